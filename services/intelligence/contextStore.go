package intelligence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"voicedesk/models"
)

const callContextPrefix = "call:ctx:"

// RedisContextStore keeps per-call history in Redis with a TTL roughly the
// length of a call, so an abandoned call's history ages out on its own.
type RedisContextStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisContextStore(client *redis.Client, ttl time.Duration) *RedisContextStore {
	return &RedisContextStore{client: client, ttl: ttl}
}

func (s *RedisContextStore) Get(ctx context.Context, callID string) ([]models.ChatMessage, error) {
	data, err := s.client.Get(ctx, callContextPrefix+callID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var history []models.ChatMessage
	if err := json.Unmarshal([]byte(data), &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *RedisContextStore) Set(ctx context.Context, callID string, history []models.ChatMessage) error {
	b, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, callContextPrefix+callID, b, s.ttl).Err()
}

func (s *RedisContextStore) Clear(ctx context.Context, callID string) error {
	return s.client.Del(ctx, callContextPrefix+callID).Err()
}

// MemoryContextStore backs tests and Redis-less deployments.
type MemoryContextStore struct {
	mu       sync.Mutex
	contexts map[string][]models.ChatMessage
}

func NewMemoryContextStore() *MemoryContextStore {
	return &MemoryContextStore{contexts: make(map[string][]models.ChatMessage)}
}

func (s *MemoryContextStore) Get(_ context.Context, callID string) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.contexts[callID]
	out := make([]models.ChatMessage, len(history))
	copy(out, history)
	return out, nil
}

func (s *MemoryContextStore) Set(_ context.Context, callID string, history []models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(history))
	copy(out, history)
	s.contexts[callID] = out
	return nil
}

func (s *MemoryContextStore) Clear(_ context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, callID)
	return nil
}
