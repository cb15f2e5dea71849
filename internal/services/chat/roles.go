package chat

import (
	"github.com/deepgram/grokgate/internal/infrastructure/grok"
	"github.com/sashabaranov/go-openai"
)

// SenderForRole maps a client role to a Grok sender. Anything that is not
// assistant is sent as the user.
func SenderForRole(role string) grok.Sender {
	switch role {
	case openai.ChatMessageRoleAssistant:
		return grok.SenderAssistant
	default:
		return grok.SenderUser
	}
}

// RoleForSender maps a Grok sender to a client role. Unknown senders are
// reported as the assistant.
func RoleForSender(sender grok.Sender) string {
	switch sender {
	case grok.SenderUser:
		return openai.ChatMessageRoleUser
	default:
		return openai.ChatMessageRoleAssistant
	}
}
