package chat

import (
	"strings"

	"github.com/deepgram/grokgate/internal/infrastructure/grok"
	"github.com/deepgram/grokgate/internal/services/chat/models"
	"github.com/deepgram/grokgate/internal/services/conversation"
	"github.com/sashabaranov/go-openai"
)

// MessageContent returns the text of a client message. Multi-part content
// keeps the text parts, joined by newlines.
func MessageContent(msg openai.ChatCompletionMessage) string {
	if len(msg.MultiContent) == 0 {
		return msg.Content
	}

	parts := make([]string, 0, len(msg.MultiContent))
	for _, part := range msg.MultiContent {
		if part.Type == openai.ChatMessagePartTypeText {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ToConversationMessages keeps the client role as sent; it is mapped to a
// sender when the Grok request is built.
func ToConversationMessages(msgs []openai.ChatCompletionMessage) []conversation.Message {
	out := make([]conversation.Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, conversation.Message{Role: msg.Role, Content: MessageContent(msg)})
	}
	return out
}

// BuildGrokRequest turns the whole stored transcript into a Grok request
func BuildGrokRequest(history []conversation.Message, model models.Model) *grok.Request {
	turns := make([]grok.Turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, grok.Turn{
			Message:         msg.Content,
			Sender:          SenderForRole(msg.Role),
			FileAttachments: []string{},
		})
	}

	return &grok.Request{
		Responses:         turns,
		GrokModelOptionID: grok.ModelGrok3,
		IsDeepsearch:      model.IsDeepsearch,
		IsReasoning:       model.IsReasoning,
	}
}
