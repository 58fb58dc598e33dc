package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const guardKeyPrefix = "leadmail:notify"

var ErrGuard = errors.New("idempotency guard unavailable")

// Guard remembers which lead notifications were already delivered so a
// redelivered creation event does not email the client twice.
type Guard interface {
	// Claim marks key as taken for ttl. It returns false if key was already taken.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees key so a later attempt can claim it again.
	Release(ctx context.Context, key string) error
}

func guardKey(leadID string, role Role) string {
	return fmt.Sprintf("%s:%s:%s", guardKeyPrefix, leadID, role)
}

// MemoryGuard is a process-local Guard.
type MemoryGuard struct {
	mu   sync.Mutex
	keys map[string]time.Time // key -> expiry, zero means never
	now  func() time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{keys: make(map[string]time.Time), now: time.Now}
}

func (g *MemoryGuard) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if exp, ok := g.keys[key]; ok && (exp.IsZero() || now.Before(exp)) {
		return false, nil
	}

	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	g.keys[key] = exp
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	return nil
}

// RedisClient is the part of go-redis the guard needs.
// *redis.Client and redis.UniversalClient satisfy it.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisGuard claims keys with SET NX so the guard holds across replicas.
type RedisGuard struct {
	client RedisClient
}

func NewRedisGuard(client RedisClient) *RedisGuard {
	return &RedisGuard{client: client}
}

func (g *RedisGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, errors.Join(ErrGuard, err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, key).Err(); err != nil {
		return errors.Join(ErrGuard, err)
	}
	return nil
}
