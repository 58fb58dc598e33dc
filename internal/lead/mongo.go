package lead

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/shutterhouse/leadmail/pkg/logger"
)

// MongoStore stores leads in a MongoDB collection and watches it through a
// change stream. Watching needs a replica set or sharded cluster.
type MongoStore struct {
	coll *mongo.Collection
	opts options
	open func(ctx context.Context, resume bson.Raw) (changeStream, error)
}

var (
	_ Store   = (*MongoStore)(nil)
	_ Watcher = (*MongoStore)(nil)
)

func NewMongoStore(db *mongo.Database, opts ...Option) *MongoStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &MongoStore{coll: db.Collection(o.collection), opts: o}
	s.open = s.openStream
	return s
}

// EnsureIndexes creates the createdAt index used for admin listing.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	return err
}

func (s *MongoStore) Create(ctx context.Context, l *Lead) error {
	if l == nil {
		return ErrNilLead
	}
	stamp(l, s.opts.now, uuid.NewString)

	if _, err := s.coll.InsertOne(ctx, l); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, l.ID)
		}
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (Lead, error) {
	var l Lead
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Lead{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Lead{}, fmt.Errorf("find lead: %w", err)
	}
	return l, nil
}

// changeEvent is the subset of a change stream document we read.
type changeEvent struct {
	FullDocument Lead `bson:"fullDocument"`
	DocumentKey  struct {
		ID string `bson:"_id"`
	} `bson:"documentKey"`
}

// insertPipeline limits the change stream to inserts.
func insertPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "operationType", Value: "insert"}}}},
	}
}

// changeStream is the part of *mongo.ChangeStream the watcher uses.
type changeStream interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	ResumeToken() bson.Raw
	Err() error
	Close(ctx context.Context) error
}

func (s *MongoStore) openStream(ctx context.Context, resume bson.Raw) (changeStream, error) {
	opts := mongoopts.ChangeStream()
	if resume != nil {
		opts.SetResumeAfter(resume)
	}
	cs, err := s.coll.Watch(ctx, insertPipeline(), opts)
	if err != nil {
		return nil, err
	}
	return cs, nil
}

// encodeToken turns a resume token into an opaque Created.Token.
func encodeToken(raw bson.Raw) string {
	if len(raw) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func decodeToken(token string) (bson.Raw, error) {
	if token == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	raw := bson.Raw(b)
	if err := raw.Validate(); err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return raw, nil
}

// Watch opens a change stream and returns its events. The first open is
// synchronous so a deployment without change streams fails fast. A token the
// server no longer accepts (e.g. trimmed from the oplog) is logged and the
// stream starts from now. After that, a broken stream is reopened from the
// last resume token every RetryInterval until ctx is done, which may
// redeliver the last event.
func (s *MongoStore) Watch(ctx context.Context, after string) (<-chan Created, error) {
	resume, err := decodeToken(after)
	if err != nil {
		return nil, errors.Join(ErrWatch, err)
	}

	stream, err := s.open(ctx, resume)
	if err != nil && resume != nil {
		s.opts.logger.ErrorContext(ctx, "cannot resume change stream, watching from now", logger.Error(err))
		resume = nil
		stream, err = s.open(ctx, nil)
	}
	if err != nil {
		return nil, errors.Join(ErrWatch, err)
	}

	out := make(chan Created, s.opts.bufferSize)
	go s.consume(ctx, stream, resume, out)
	return out, nil
}

func (s *MongoStore) consume(ctx context.Context, stream changeStream, resumeToken bson.Raw, out chan<- Created) {
	defer close(out)

	log := s.opts.logger.With(logger.Component("lead_watcher"))

	for {
		resumeToken = s.drain(ctx, stream, out, resumeToken)
		_ = stream.Close(context.WithoutCancel(ctx))

		// Reopen until it works or we are told to stop.
		for stream = nil; stream == nil; {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.opts.retryInterval):
			}

			var err error
			if stream, err = s.open(ctx, resumeToken); err != nil {
				log.WarnContext(ctx, "change stream reopen failed", logger.Error(err))
				stream = nil
			}
		}
		log.InfoContext(ctx, "change stream reopened")
	}
}

// drain forwards events until the stream fails or ctx is done and returns
// the resume token of the last event handed to out.
func (s *MongoStore) drain(ctx context.Context, stream changeStream, out chan<- Created, token bson.Raw) bson.Raw {
	for stream.Next(ctx) {
		var ev changeEvent
		if err := stream.Decode(&ev); err != nil {
			s.opts.logger.ErrorContext(ctx, "undecodable change event", logger.Error(err))
			token = stream.ResumeToken()
			continue
		}

		id := ev.DocumentKey.ID
		if id == "" {
			id = ev.FullDocument.ID
		}
		next := stream.ResumeToken()
		select {
		case out <- Created{LeadID: id, Lead: ev.FullDocument, Token: encodeToken(next)}:
			token = next
		case <-ctx.Done():
			return token
		}
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		s.opts.logger.WarnContext(ctx, "change stream interrupted", logger.Error(err))
	}
	return token
}
