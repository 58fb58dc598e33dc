package lead

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps leads in a map and every Created event in an append-only
// log. Each watcher follows the log with its own cursor, so Create never
// waits for a consumer. Tokens are log positions and do not survive a
// restart.
type MemoryStore struct {
	opts options

	mu     sync.RWMutex
	leads  map[string]Lead
	events []Created
	// appended is closed and replaced on every append.
	appended chan struct{}
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Watcher = (*MemoryStore)(nil)
)

func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		opts:     o,
		leads:    make(map[string]Lead),
		appended: make(chan struct{}),
	}
}

func (s *MemoryStore) Create(_ context.Context, l *Lead) error {
	if l == nil {
		return ErrNilLead
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stamp(l, s.opts.now, uuid.NewString)
	if _, exists := s.leads[l.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, l.ID)
	}
	s.leads[l.ID] = *l
	s.events = append(s.events, Created{
		LeadID: l.ID,
		Lead:   *l,
		Token:  strconv.Itoa(len(s.events) + 1),
	})
	close(s.appended)
	s.appended = make(chan struct{})
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.leads[id]
	if !ok {
		return Lead{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return l, nil
}

// Watch follows the event log until ctx is done. A token from before the
// store was created (e.g. after a restart) starts from now.
func (s *MemoryStore) Watch(ctx context.Context, after string) (<-chan Created, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatch, err)
	}

	s.mu.RLock()
	cursor := len(s.events)
	s.mu.RUnlock()

	if after != "" {
		n, err := strconv.Atoi(after)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: invalid token %q", ErrWatch, after)
		}
		cursor = min(n, cursor)
	}

	out := make(chan Created, s.opts.bufferSize)
	go s.follow(ctx, cursor, out)
	return out, nil
}

func (s *MemoryStore) follow(ctx context.Context, cursor int, out chan<- Created) {
	defer close(out)

	for {
		s.mu.RLock()
		pending := s.events[cursor:]
		appended := s.appended
		s.mu.RUnlock()

		if len(pending) == 0 {
			select {
			case <-appended:
				continue
			case <-ctx.Done():
				return
			}
		}

		// Logged events are never modified, so pending is safe to read
		// without the lock.
		for _, ev := range pending {
			select {
			case out <- ev:
				cursor++
			case <-ctx.Done():
				return
			}
		}
	}
}
