package chat

import (
	"context"
	"regexp"
	"strings"

	"github.com/deepgram/grokgate/internal/infrastructure/grok"
	"github.com/deepgram/grokgate/internal/metrics"
	"github.com/deepgram/grokgate/internal/services/chat/models"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

var tweetLinkPattern = regexp.MustCompile(`\[link\]\(#tweet=(\d+)\)`)

// RewriteLinks turns Grok's internal [link](#tweet=N) markers into links under base
func RewriteLinks(message, base string) string {
	if !strings.Contains(message, "#tweet=") {
		return message
	}
	return tweetLinkPattern.ReplaceAllString(message, "[link]("+strings.ReplaceAll(base, "$", "$$")+"${1})")
}

// WrapThinking marks a reasoning fragment so clients can tell it from the answer
func WrapThinking(message string) string {
	return "<think>\n" + message + "\n</think>\n\n"
}

// ChunkWriter is the client side of a stream
type ChunkWriter interface {
	Send(v any) error
	Done() error
}

// StreamMeta is fixed for every chunk of one reply
type StreamMeta struct {
	ID      string
	Model   string
	Created int64
}

// StreamTranslator re-emits Grok stream records as client chunks. It starts
// streaming and terminates after exactly one stop chunk.
type StreamTranslator struct {
	w           ChunkWriter
	meta        StreamMeta
	linkBase    string
	onAssistant func(content string)
	metrics     *metrics.Metrics

	terminated bool
	finished   bool
}

// NewStreamTranslator calls onAssistant with every assistant fragment sent to
// the client, in order. onAssistant may be nil.
func NewStreamTranslator(w ChunkWriter, meta StreamMeta, linkBase string, onAssistant func(string), m *metrics.Metrics) *StreamTranslator {
	if onAssistant == nil {
		onAssistant = func(string) {}
	}
	return &StreamTranslator{
		w:           w,
		meta:        meta,
		linkBase:    linkBase,
		onAssistant: onAssistant,
		metrics:     m,
	}
}

// Terminated reports whether the stop chunk has been sent
func (t *StreamTranslator) Terminated() bool {
	return t.terminated
}

// HandleLine processes one non-blank record. It reports done once Grok has
// signalled the end of the turn; further lines must not be passed in. A
// non-nil error means the client could not be written to.
func (t *StreamTranslator) HandleLine(ctx context.Context, line []byte) (bool, error) {
	if t.terminated {
		return true, nil
	}

	result, err := grok.ParseLine(line)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Str("line", string(line)).Msg("Could not decode Grok stream line, skipping")
		t.metrics.MalformedLine()
		return false, nil
	}

	if result.HasSender {
		role := RoleForSender(result.Sender)
		content := RewriteLinks(result.Message, t.linkBase)
		if result.IsThinking {
			content = WrapThinking(content)
		}

		if err := t.w.Send(models.NewContentChunk(t.meta.ID, t.meta.Model, t.meta.Created, role, content)); err != nil {
			return false, err
		}
		t.metrics.ChunkSent(metrics.ChunkContent)

		if role == openai.ChatMessageRoleAssistant {
			t.onAssistant(content)
		}
	}

	if result.IsSoftStop {
		if err := t.sendStop(); err != nil {
			return true, err
		}
		return true, nil
	}

	return false, nil
}

// Finish sends the stop chunk if Grok never did, then the end-of-stream marker
func (t *StreamTranslator) Finish() error {
	if t.finished {
		return nil
	}
	if !t.terminated {
		if err := t.sendStop(); err != nil {
			return err
		}
	}
	t.finished = true
	return t.w.Done()
}

func (t *StreamTranslator) sendStop() error {
	t.terminated = true
	if err := t.w.Send(models.NewStopChunk(t.meta.ID, t.meta.Model, t.meta.Created)); err != nil {
		return err
	}
	t.metrics.ChunkSent(metrics.ChunkStop)
	return nil
}

// Fail reports an upstream failure as a single error chunk and ends the stream
func Fail(w ChunkWriter, message string, m *metrics.Metrics) error {
	if err := w.Send(models.NewErrorChunk(message)); err != nil {
		return err
	}
	m.ChunkSent(metrics.ChunkError)
	return w.Done()
}
