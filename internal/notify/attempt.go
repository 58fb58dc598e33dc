package notify

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const AttemptsCollection = "notification_attempts"

// Attempt is the audit record of one send. LeadID references the lead; the
// attempt does not own it.
type Attempt struct {
	ID                string    `json:"id" bson:"_id"`
	LeadID            string    `json:"leadId" bson:"leadId"`
	Role              Role      `json:"role" bson:"role"`
	Status            Status    `json:"status" bson:"status"`
	Recipients        []string  `json:"recipients" bson:"recipients"`
	Subject           string    `json:"subject" bson:"subject"`
	Rule              string    `json:"rule,omitempty" bson:"rule,omitempty"`
	ProviderMessageID string    `json:"providerMessageId,omitempty" bson:"providerMessageId,omitempty"`
	ErrorDetail       string    `json:"errorDetail,omitempty" bson:"errorDetail,omitempty"`
	Transport         string    `json:"transport" bson:"transport"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
}

// AttemptStore persists attempts for follow-up, since nothing retries automatically.
type AttemptStore interface {
	Record(ctx context.Context, a Attempt) error
	// ListByLead returns the attempts for leadID, oldest first.
	ListByLead(ctx context.Context, leadID string) ([]Attempt, error)
}

// MemoryAttemptStore keeps attempts in process.
type MemoryAttemptStore struct {
	mu       sync.RWMutex
	attempts []Attempt
}

func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{}
}

func (s *MemoryAttemptStore) Record(_ context.Context, a Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.Recipients = slices.Clone(a.Recipients)
	s.attempts = append(s.attempts, a)
	return nil
}

func (s *MemoryAttemptStore) ListByLead(_ context.Context, leadID string) ([]Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Attempt
	for _, a := range s.attempts {
		if a.LeadID == leadID {
			a.Recipients = slices.Clone(a.Recipients)
			out = append(out, a)
		}
	}
	return out, nil
}

// MongoAttemptStore writes attempts to the notification_attempts collection.
type MongoAttemptStore struct {
	coll *mongo.Collection
}

func NewMongoAttemptStore(db *mongo.Database) *MongoAttemptStore {
	return &MongoAttemptStore{coll: db.Collection(AttemptsCollection)}
}

// EnsureIndexes creates the (leadId, createdAt) index used by ListByLead.
func (s *MongoAttemptStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "leadId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return err
}

func (s *MongoAttemptStore) Record(ctx context.Context, a Attempt) error {
	if _, err := s.coll.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (s *MongoAttemptStore) ListByLead(ctx context.Context, leadID string) ([]Attempt, error) {
	cur, err := s.coll.Find(ctx,
		bson.D{{Key: "leadId", Value: leadID}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	var out []Attempt
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode attempts: %w", err)
	}
	return out, nil
}
