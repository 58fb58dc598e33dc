package lead

import (
	"log/slog"
	"time"

	"github.com/shutterhouse/leadmail/pkg/logger"
)

const DefaultCollection = "leads"

type options struct {
	logger        *slog.Logger
	now           func() time.Time
	collection    string
	retryInterval time.Duration
	bufferSize    int
}

func defaultOptions() options {
	return options{
		logger:        logger.Discard(),
		now:           time.Now,
		collection:    DefaultCollection,
		retryInterval: 5 * time.Second,
		bufferSize:    16,
	}
}

// Option configures a store.
type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithCollection sets the MongoDB collection name. Ignored by MemoryStore.
func WithCollection(name string) Option {
	return func(o *options) {
		if name != "" {
			o.collection = name
		}
	}
}

// WithRetryInterval sets how long the Mongo watcher waits before reopening a
// broken change stream.
func WithRetryInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retryInterval = d
		}
	}
}

// WithBufferSize sets the per-watcher channel buffer.
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = max(n, 0) }
}

// stamp prepares l for insertion. BSON datetimes hold milliseconds, so both
// stores truncate to keep reads identical.
func stamp(l *Lead, now func() time.Time, newID func() string) {
	if l.ID == "" {
		l.ID = newID()
	}
	l.CreatedAt = now().UTC().Truncate(time.Millisecond)
}
