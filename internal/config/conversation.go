package config

import "time"

// ConversationConfig bounds stored conversation history. Zero values mean unbounded.
type ConversationConfig struct {
	MaxMessages int
	TTL         time.Duration
}

func GetConversationConfig() ConversationConfig {
	return ConversationConfig{
		MaxMessages: parseEnvInt("CONVERSATION_MAX_MESSAGES", 0),
		TTL:         parseEnvDuration("CONVERSATION_TTL", 0),
	}
}
