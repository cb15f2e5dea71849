package metrics

import "strconv"

// Outcomes of a chat completion stream
const (
	OutcomeStop          = "stop"
	OutcomeUpstreamError = "upstream_error"
	OutcomeReadError     = "read_error"
	OutcomeCancelled     = "cancelled"
)

// Chunk kinds
const (
	ChunkContent = "content"
	ChunkStop    = "stop"
	ChunkError   = "error"
)

func statusLabel(status int) string {
	return strconv.Itoa(status)
}
