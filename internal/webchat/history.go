package webchat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is one chat line.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryStore persists chat transcripts per session.
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, msg Message) error
	List(ctx context.Context, sessionID string, limit int64) ([]Message, error)
}

// RedisHistory keeps transcripts in Redis lists with a sliding TTL.
type RedisHistory struct {
	client *redis.Client
	ttl    time.Duration
	max    int64
}

// NewRedisHistory creates a Redis-backed history store.
func NewRedisHistory(client *redis.Client, ttl time.Duration, maxMessages int64) *RedisHistory {
	if maxMessages <= 0 {
		maxMessages = 200
	}
	return &RedisHistory{client: client, ttl: ttl, max: maxMessages}
}

func historyKey(sessionID string) string {
	return "webchat:history:" + sessionID
}

func (r *RedisHistory) Append(ctx context.Context, sessionID string, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("webchat: marshal message: %w", err)
	}
	key := historyKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, -r.max, -1)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("webchat: append history: %w", err)
	}
	return nil
}

func (r *RedisHistory) List(ctx context.Context, sessionID string, limit int64) ([]Message, error) {
	if limit <= 0 {
		limit = r.max
	}
	raw, err := r.client.LRange(ctx, historyKey(sessionID), -limit, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("webchat: list history: %w", err)
	}
	messages := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// MemoryHistory is the local-dev and test history store.
type MemoryHistory struct {
	mu    sync.RWMutex
	store map[string][]Message
}

// NewMemoryHistory creates an in-memory history store.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{store: make(map[string][]Message)}
}

func (m *MemoryHistory) Append(_ context.Context, sessionID string, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[sessionID] = append(m.store[sessionID], msg)
	return nil
}

func (m *MemoryHistory) List(_ context.Context, sessionID string, limit int64) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.store[sessionID]
	if limit > 0 && int64(len(msgs)) > limit {
		msgs = msgs[int64(len(msgs))-limit:]
	}
	return append([]Message(nil), msgs...), nil
}
