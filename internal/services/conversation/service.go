package conversation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/deepgram/grokgate/internal/config"
	"github.com/deepgram/grokgate/internal/infrastructure/redis"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// Service owns conversation transcripts and serialises turns per conversation id
type Service struct {
	store Store
	locks *keyedLocks
}

// NewService picks the Redis store when Redis is reachable and the memory store otherwise
func NewService(redisService *redis.Service, cfg config.ConversationConfig) *Service {
	var store Store
	if redisService != nil {
		if err := redisService.Ping(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Redis unavailable - conversations will be kept in memory")
			store = NewMemoryStore(cfg.MaxMessages, cfg.TTL)
		} else {
			store = NewRedisStore(redisService, cfg.MaxMessages, cfg.TTL)
		}
	} else {
		store = NewMemoryStore(cfg.MaxMessages, cfg.TTL)
	}

	return NewServiceWithStore(store)
}

func NewServiceWithStore(store Store) *Service {
	return &Service{store: store, locks: newKeyedLocks()}
}

// NewID returns a conversation id for clients that did not supply one
func NewID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// Lock waits for exclusive access to conversation id. The returned func releases it.
func (s *Service) Lock(ctx context.Context, id string) (func(), error) {
	unlock, err := s.locks.acquire(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock conversation %s: %w", id, err)
	}
	return unlock, nil
}

func (s *Service) GetOrCreate(ctx context.Context, id string) ([]Message, bool, error) {
	messages, created, err := s.store.GetOrCreate(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if created {
		log.Info().Str("conversation_id", id).Msg("New conversation started")
	} else {
		log.Debug().Str("conversation_id", id).Int("messages", len(messages)).Msg("Continuing conversation")
	}
	return messages, created, nil
}

// Append adds client-submitted turns in order
func (s *Service) Append(ctx context.Context, id string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}
	return s.store.Append(ctx, id, messages...)
}

// AppendAssistant adds a single assistant turn
func (s *Service) AppendAssistant(ctx context.Context, id, content string) error {
	return s.store.Append(ctx, id, Message{Role: openai.ChatMessageRoleAssistant, Content: content})
}

// History returns the stored transcript of id, empty if it does not exist
func (s *Service) History(ctx context.Context, id string) ([]Message, error) {
	messages, _, err := s.store.GetOrCreate(ctx, id)
	return messages, err
}
