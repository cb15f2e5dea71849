package services

import (
	"sync"

	"github.com/deepgram/grokgate/internal/config"
	"github.com/deepgram/grokgate/internal/connections"
	"github.com/deepgram/grokgate/internal/infrastructure/grok"
	"github.com/deepgram/grokgate/internal/infrastructure/redis"
	"github.com/deepgram/grokgate/internal/metrics"
	"github.com/deepgram/grokgate/internal/services/chat"
	"github.com/deepgram/grokgate/internal/services/conversation"
	"github.com/rs/zerolog/log"
)

var (
	// Mutex for thread-safe initialization
	servicesMu sync.RWMutex
)

type Services struct {
	chatService         *chat.Implementation
	connections         *connections.Manager
	conversationService *conversation.Service
	grokService         *grok.Service
	metrics             *metrics.Metrics
	redisService        *redis.Service
}

// InitializeServices initializes all required services
func InitializeServices() (*Services, error) {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	log.Info().Msg("Initializing core services")

	// Initialize Redis service (optional)
	redisService := redis.NewService()
	log.Info().Bool("enabled", redisService != nil).Msg("Initializing Redis service")

	conversationService := conversation.NewService(redisService, config.GetConversationConfig())
	log.Info().Msg("Initializing conversation service")

	grokConfig := config.GetGrokConfig()
	grokService := grok.NewService(grokConfig)
	log.Info().Str("url", grokConfig.APIURL).Msg("Initializing Grok service")

	var m *metrics.Metrics
	if config.IsMetricsEnabled() {
		m = metrics.New()
		log.Info().Msg("Initializing metrics")
	}

	conns := connections.NewManager()
	chatService := chat.NewService(grokService, conversationService, conns, m, grokConfig.LinkBase)
	log.Info().Msg("Initializing chat service")

	log.Info().Msg("All services initialized successfully")

	return &Services{
		chatService:         chatService,
		connections:         conns,
		conversationService: conversationService,
		grokService:         grokService,
		metrics:             m,
		redisService:        redisService,
	}, nil
}

// GetChatService returns the chat service
func (s *Services) GetChatService() chat.Service {
	return s.chatService
}

// GetMetrics returns the metrics collectors, nil when metrics are disabled
func (s *Services) GetMetrics() *metrics.Metrics {
	return s.metrics
}

// GetConnections returns the in-flight stream registry
func (s *Services) GetConnections() *connections.Manager {
	return s.connections
}

// Shutdown cancels in-flight streams and releases external connections
func (s *Services) Shutdown() {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	if cancelled := s.connections.CancelAll(); cancelled > 0 {
		log.Info().Int("streams", cancelled).Msg("Cancelled in-flight streams")
	}

	if s.redisService != nil {
		if err := s.redisService.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis connection")
		}
	}
}
