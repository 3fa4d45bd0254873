package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// QueueStore persists the pending write queue across restarts.
type QueueStore interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, queue []Entry) error
}

// MemoryQueueStore keeps the queue in process memory. Used in tests and when
// no Redis is configured.
type MemoryQueueStore struct {
	mu    sync.Mutex
	queue []Entry
}

func NewMemoryQueueStore() *MemoryQueueStore {
	return &MemoryQueueStore{}
}

func (m *MemoryQueueStore) Load(context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.queue))
	copy(out, m.queue)
	return out, nil
}

func (m *MemoryQueueStore) Save(_ context.Context, queue []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = make([]Entry, len(queue))
	copy(m.queue, queue)
	return nil
}

const redisQueueKey = "tcgp:write_queue"

// RedisQueueStore persists the queue as one JSON blob so load and save stay
// atomic from the gateway's point of view.
type RedisQueueStore struct {
	client *redis.Client
}

func NewRedisQueueStore(client *redis.Client) *RedisQueueStore {
	return &RedisQueueStore{client: client}
}

func (r *RedisQueueStore) Load(ctx context.Context) ([]Entry, error) {
	blob, err := r.client.Get(ctx, redisQueueKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load write queue: %w", err)
	}

	var queue []Entry
	if err := json.Unmarshal(blob, &queue); err != nil {
		return nil, fmt.Errorf("failed to decode write queue: %w", err)
	}
	return queue, nil
}

func (r *RedisQueueStore) Save(ctx context.Context, queue []Entry) error {
	if len(queue) == 0 {
		if err := r.client.Del(ctx, redisQueueKey).Err(); err != nil {
			return fmt.Errorf("failed to clear write queue: %w", err)
		}
		return nil
	}

	blob, err := json.Marshal(queue)
	if err != nil {
		return fmt.Errorf("failed to encode write queue: %w", err)
	}
	if err := r.client.Set(ctx, redisQueueKey, blob, 0).Err(); err != nil {
		return fmt.Errorf("failed to save write queue: %w", err)
	}
	return nil
}
