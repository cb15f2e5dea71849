package chat

import (
	"encoding/json"
	"errors"
	"sync"
)

// recorder is a ChunkWriter that keeps every event as JSON, with "[DONE]" for the end marker
type recorder struct {
	mu        sync.Mutex
	events    []string
	failAfter int
}

var errClientGone = errors.New("client gone")

func newRecorder() *recorder {
	return &recorder{failAfter: -1}
}

func (r *recorder) Send(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAfter >= 0 && len(r.events) >= r.failAfter {
		return errClientGone
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.events = append(r.events, string(data))
	return nil
}

func (r *recorder) Done() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAfter >= 0 && len(r.events) >= r.failAfter {
		return errClientGone
	}
	r.events = append(r.events, "[DONE]")
	return nil
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type decodedChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Object  string `json:"object"`
	Choices []struct {
		Delta struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Chunks decodes every event except the end marker
func (r *recorder) Chunks() []decodedChunk {
	var out []decodedChunk
	for _, e := range r.Events() {
		if e == "[DONE]" {
			continue
		}
		var c decodedChunk
		if err := json.Unmarshal([]byte(e), &c); err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}
