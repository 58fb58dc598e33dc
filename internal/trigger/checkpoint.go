package trigger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	CheckpointsCollection = "checkpoints"
	// DefaultCheckpointName keys the runner's document in the collection.
	DefaultCheckpointName = "lead_trigger"
)

// Checkpoint stores the lead.Created token of the newest event that, along
// with every event before it, has been handled. Run resumes after it.
type Checkpoint interface {
	// Load returns "" when nothing was saved yet.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
}

// MemoryCheckpoint keeps the token in process.
type MemoryCheckpoint struct {
	mu    sync.Mutex
	token string
}

func NewMemoryCheckpoint() *MemoryCheckpoint {
	return &MemoryCheckpoint{}
}

func (c *MemoryCheckpoint) Load(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, nil
}

func (c *MemoryCheckpoint) Save(_ context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	return nil
}

type checkpointDoc struct {
	Name      string    `bson:"_id"`
	Token     string    `bson:"token"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoCheckpoint keeps the token in one document of the checkpoints
// collection.
type MongoCheckpoint struct {
	coll *mongo.Collection
	name string
	now  func() time.Time
}

func NewMongoCheckpoint(db *mongo.Database, name string) *MongoCheckpoint {
	if name == "" {
		name = DefaultCheckpointName
	}
	return &MongoCheckpoint{coll: db.Collection(CheckpointsCollection), name: name, now: time.Now}
}

func (c *MongoCheckpoint) Load(ctx context.Context) (string, error) {
	var doc checkpointDoc
	err := c.coll.FindOne(ctx, bson.D{{Key: "_id", Value: c.name}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load checkpoint: %w", err)
	}
	return doc.Token, nil
}

func (c *MongoCheckpoint) Save(ctx context.Context, token string) error {
	doc := checkpointDoc{Name: c.name, Token: token, UpdatedAt: c.now().UTC()}
	_, err := c.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: c.name}},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// progress commits handled events in dispatch order. An event finishing
// early waits for everything dispatched before it.
type progress struct {
	mu        sync.Mutex
	next      uint64
	committed uint64
	done      map[uint64]string
	token     string

	saveMu sync.Mutex
	saved  string
}

func newProgress(saved string) *progress {
	return &progress{done: make(map[uint64]string), token: saved, saved: saved}
}

// dispatch returns the sequence number of the next event.
func (p *progress) dispatch() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	seq := p.next
	p.next++
	return seq
}

// finish marks seq handled and reports whether the committed token moved.
func (p *progress) finish(seq uint64, token string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done[seq] = token
	moved := false
	for {
		t, ok := p.done[p.committed]
		if !ok {
			return moved
		}
		delete(p.done, p.committed)
		p.committed++
		if t != "" {
			p.token = t
			moved = true
		}
	}
}

func (p *progress) latest() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token
}

// save writes the latest committed token unless it is already stored. Saves
// are serialized so an older token never overwrites a newer one.
func (p *progress) save(ctx context.Context, c Checkpoint) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	token := p.latest()
	if token == p.saved {
		return nil
	}
	if err := c.Save(ctx, token); err != nil {
		return err
	}
	p.saved = token
	return nil
}
