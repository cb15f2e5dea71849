package httpext

import (
	"encoding/json"
	"fmt"
	"net/http"
)

var doneEvent = []byte("data: [DONE]\n\n")

// EventStream writes text/event-stream frames and flushes each one to the client
type EventStream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewEventStream commits the response to streaming: headers are written with a 200 status
func NewEventStream(w http.ResponseWriter) *EventStream {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	s := &EventStream{w: w, rc: http.NewResponseController(w)}
	_ = s.rc.Flush()
	return s
}

// Send writes v as a single `data: <json>` event
func (s *EventStream) Send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, '\n', '\n')
	return s.write(frame)
}

// Done writes the end-of-stream sentinel
func (s *EventStream) Done() error {
	return s.write(doneEvent)
}

func (s *EventStream) write(frame []byte) error {
	if _, err := s.w.Write(frame); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	return nil
}
