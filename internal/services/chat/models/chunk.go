package models

import (
	"github.com/sashabaranov/go-openai"
)

const (
	ChunkObject      = "chat.completion.chunk"
	ErrorTypeAPI     = "api_error"
	chunkChoiceIndex = 0
)

// ChunkDelta is the incremental part of a chunk. Content is a pointer so an
// empty fragment is still sent while the terminal delta stays {}.
type ChunkDelta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

type ChunkChoice struct {
	Index        int                 `json:"index"`
	Delta        ChunkDelta          `json:"delta"`
	Logprobs     any                 `json:"logprobs"`
	FinishReason openai.FinishReason `json:"finish_reason"`
}

// ChatCompletionChunk is one server-sent event of a streamed completion
type ChatCompletionChunk struct {
	ID      string        `json:"id"`
	Choices []ChunkChoice `json:"choices"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Object  string        `json:"object"`
}

// NewContentChunk carries one fragment authored by role
func NewContentChunk(id, model string, created int64, role, content string) ChatCompletionChunk {
	return ChatCompletionChunk{
		ID: id,
		Choices: []ChunkChoice{{
			Index: chunkChoiceIndex,
			Delta: ChunkDelta{Role: role, Content: &content},
		}},
		Created: created,
		Model:   model,
		Object:  ChunkObject,
	}
}

// NewStopChunk is the terminal chunk with an empty delta
func NewStopChunk(id, model string, created int64) ChatCompletionChunk {
	return ChatCompletionChunk{
		ID: id,
		Choices: []ChunkChoice{{
			Index:        chunkChoiceIndex,
			FinishReason: openai.FinishReasonStop,
		}},
		Created: created,
		Model:   model,
		Object:  ChunkObject,
	}
}

// NewErrorChunk reports an upstream failure inside an already committed stream
func NewErrorChunk(message string) openai.ErrorResponse {
	return openai.ErrorResponse{
		Error: &openai.APIError{
			Message: message,
			Type:    ErrorTypeAPI,
		},
	}
}
