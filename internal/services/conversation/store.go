package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const keyPrefix = "grokgate:conversation:"

// Message is one turn of a stored transcript
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store keeps conversation transcripts in append order
type Store interface {
	// GetOrCreate returns the transcript for id, creating an empty one on first use.
	// created reports whether the conversation did not exist before.
	GetOrCreate(ctx context.Context, id string) (messages []Message, created bool, err error)
	// Append adds messages to the end of the transcript for id.
	Append(ctx context.Context, id string, messages ...Message) error
}

type memoryRecord struct {
	messages []Message
	touched  time.Time
}

// MemoryStore is a process-lifetime Store
type MemoryStore struct {
	mu          sync.RWMutex
	records     map[string]*memoryRecord
	maxMessages int
	ttl         time.Duration
	now         func() time.Time
}

// NewMemoryStore creates a MemoryStore. A positive maxMessages keeps only the
// newest messages; a positive ttl forgets conversations idle for that long.
func NewMemoryStore(maxMessages int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		records:     make(map[string]*memoryRecord),
		maxMessages: maxMessages,
		ttl:         ttl,
		now:         time.Now,
	}
}

func (ms *MemoryStore) GetOrCreate(ctx context.Context, id string) ([]Message, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	rec, exists := ms.records[id]
	if exists && ms.expired(rec, now) {
		delete(ms.records, id)
		exists = false
	}
	if !exists {
		ms.records[id] = &memoryRecord{touched: now}
		return []Message{}, true, nil
	}

	rec.touched = now
	out := make([]Message, len(rec.messages))
	copy(out, rec.messages)
	return out, false, nil
}

func (ms *MemoryStore) Append(ctx context.Context, id string, messages ...Message) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	rec, exists := ms.records[id]
	if !exists || ms.expired(rec, now) {
		rec = &memoryRecord{}
		ms.records[id] = rec
	}

	rec.messages = append(rec.messages, messages...)
	if ms.maxMessages > 0 && len(rec.messages) > ms.maxMessages {
		rec.messages = append([]Message(nil), rec.messages[len(rec.messages)-ms.maxMessages:]...)
	}
	rec.touched = now
	return nil
}

// Len returns the number of live conversations
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.records)
}

func (ms *MemoryStore) expired(rec *memoryRecord, now time.Time) bool {
	return ms.ttl > 0 && now.Sub(rec.touched) > ms.ttl
}

// ListStore is the subset of the Redis service used for transcripts
type ListStore interface {
	AppendList(ctx context.Context, key string, maxLen int, ttl time.Duration, values ...string) error
	ListRange(ctx context.Context, key string) ([]string, error)
	Touch(ctx context.Context, key string, ttl time.Duration) error
}

// RedisStore keeps each transcript as a Redis list of JSON encoded messages
type RedisStore struct {
	lists       ListStore
	maxMessages int
	ttl         time.Duration
}

func NewRedisStore(lists ListStore, maxMessages int, ttl time.Duration) *RedisStore {
	return &RedisStore{lists: lists, maxMessages: maxMessages, ttl: ttl}
}

func (rs *RedisStore) GetOrCreate(ctx context.Context, id string) ([]Message, bool, error) {
	vals, err := rs.lists.ListRange(ctx, keyPrefix+id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}

	messages := make([]Message, 0, len(vals))
	for _, v := range vals {
		var m Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			log.Warn().Err(err).Str("conversation_id", id).Msg("Skipping undecodable stored message")
			continue
		}
		messages = append(messages, m)
	}

	if len(vals) > 0 && rs.ttl > 0 {
		if err := rs.lists.Touch(ctx, keyPrefix+id, rs.ttl); err != nil {
			return nil, false, fmt.Errorf("failed to refresh conversation %s: %w", id, err)
		}
	}

	// an empty list does not exist in Redis, so an empty transcript counts as new
	return messages, len(vals) == 0, nil
}

func (rs *RedisStore) Append(ctx context.Context, id string, messages ...Message) error {
	values := make([]string, 0, len(messages))
	for _, m := range messages {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
		values = append(values, string(data))
	}

	if err := rs.lists.AppendList(ctx, keyPrefix+id, rs.maxMessages, rs.ttl, values...); err != nil {
		return fmt.Errorf("failed to append to conversation %s: %w", id, err)
	}
	return nil
}
