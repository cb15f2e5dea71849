package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// ConversationID accepts a JSON string or number so clients that send numeric ids keep working
type ConversationID string

func (c *ConversationID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ConversationID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("conversation_id must be a string or number: %w", err)
	}
	*c = ConversationID(n.String())
	return nil
}

// ChatCompletionRequest is the subset of the OpenAI chat completion request the proxy understands.
// Unknown fields are ignored.
type ChatCompletionRequest struct {
	// Model is matched against the catalogue; unknown values fall back to the default model
	Model          string                         `json:"model,omitempty"`
	ConversationID ConversationID                 `json:"conversation_id,omitempty"`
	Messages       []openai.ChatCompletionMessage `json:"messages" validate:"required,min=1"`
	// Stream is accepted for compatibility; replies are always streamed
	Stream bool `json:"stream,omitempty"`
}
