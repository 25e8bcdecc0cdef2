package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemorySlot keeps the token in process memory
type MemorySlot struct {
	mu      sync.RWMutex
	token   string
	present bool
}

// NewMemorySlot creates an empty in-memory slot
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Load(ctx context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.present, nil
}

func (m *MemorySlot) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.present = true
	return nil
}

func (m *MemorySlot) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.present = false
	return nil
}

// RedisSlot stores the token of one session in Redis. Writes and Touch
// refresh the TTL so the token dies with an idle session.
type RedisSlot struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedisSlot creates a slot for the given session ID
func NewRedisSlot(client redis.UniversalClient, sessionID string, ttl time.Duration) *RedisSlot {
	return &RedisSlot{
		client: client,
		key:    fmt.Sprintf("session:%s:%s", sessionID, Key),
		ttl:    ttl,
	}
}

func (r *RedisSlot) Load(ctx context.Context) (string, bool, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return token, true, nil
}

func (r *RedisSlot) Save(ctx context.Context, token string) error {
	if err := r.client.Set(ctx, r.key, token, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisSlot) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Touch restarts the TTL of a stored token
func (r *RedisSlot) Touch(ctx context.Context) error {
	if err := r.client.Expire(ctx, r.key, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis expire: %w", err)
	}
	return nil
}
