package chat

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/deepgram/grokgate/internal/connections"
	"github.com/deepgram/grokgate/internal/infrastructure/grok"
	"github.com/deepgram/grokgate/internal/metrics"
	"github.com/deepgram/grokgate/internal/services/chat/models"
	"github.com/deepgram/grokgate/internal/services/conversation"
	"github.com/deepgram/grokgate/pkg/chatid"
	"github.com/rs/zerolog"
)

// Service defines the interface for chat operations
type Service interface {
	// StreamCompletion runs one conversation turn against Grok and writes the
	// reply to w. Upstream failures are reported inside the stream; a returned
	// error means the turn could not be delivered to the client at all.
	StreamCompletion(ctx context.Context, creds grok.Credentials, req *models.ChatCompletionRequest, w ChunkWriter) error
}

// GrokClient opens a streaming reply from Grok
type GrokClient interface {
	Stream(ctx context.Context, creds grok.Credentials, req *grok.Request) (*grok.StreamResponse, error)
}

type Implementation struct {
	grok          GrokClient
	conversations *conversation.Service
	connections   *connections.Manager
	metrics       *metrics.Metrics
	linkBase      string
	now           func() time.Time
}

// NewService wires the chat service. connections and m may be nil.
func NewService(grokClient GrokClient, conversations *conversation.Service, conns *connections.Manager, m *metrics.Metrics, linkBase string) *Implementation {
	return &Implementation{
		grok:          grokClient,
		conversations: conversations,
		connections:   conns,
		metrics:       m,
		linkBase:      linkBase,
		now:           time.Now,
	}
}

func (s *Implementation) StreamCompletion(ctx context.Context, creds grok.Credentials, req *models.ChatCompletionRequest, w ChunkWriter) error {
	if s.connections != nil {
		var done func()
		ctx, done = s.connections.Track(ctx)
		defer done()
	}

	conversationID := string(req.ConversationID)
	if conversationID == "" {
		conversationID = conversation.NewID(s.now())
	}

	logger := zerolog.Ctx(ctx).With().Str("conversation_id", conversationID).Logger()
	ctx = logger.WithContext(ctx)

	unlock, err := s.conversations.Lock(ctx, conversationID)
	if err != nil {
		return err
	}
	defer unlock()

	model := models.LookupModel(req.Model)
	finished := s.metrics.StreamStarted(model.ID)

	grokReq, err := s.prepareTurn(ctx, conversationID, req, model)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to update conversation")
		finished(metrics.OutcomeUpstreamError)
		return Fail(w, fmt.Sprintf("Conversation store unavailable: %v", err), s.metrics)
	}

	logger.Info().
		Str("model", model.ID).
		Int("turns", len(grokReq.Responses)).
		Bool("reasoning", grokReq.IsReasoning).
		Bool("deepsearch", grokReq.IsDeepsearch).
		Msg("Sending conversation to Grok")

	resp, err := s.grok.Stream(ctx, creds, grokReq)
	if err != nil {
		if ctx.Err() != nil {
			finished(metrics.OutcomeCancelled)
			return ctx.Err()
		}

		status := 0
		var statusErr *grok.StatusError
		if errors.As(err, &statusErr) {
			status = statusErr.StatusCode
		}
		s.metrics.UpstreamError(status)
		logger.Error().Err(err).Int("status", status).Msg("Grok API request failed")
		finished(metrics.OutcomeUpstreamError)
		return Fail(w, fmt.Sprintf("Grok API request failed: %v", err), s.metrics)
	}
	defer resp.Body.Close()

	// history of fragments already sent must be kept even if the client goes away
	storeCtx := context.WithoutCancel(ctx)
	translator := NewStreamTranslator(w, StreamMeta{
		ID:      chatid.Encode(resp.ChatItemID),
		Model:   grokReq.GrokModelOptionID,
		Created: resp.Created.Unix(),
	}, s.linkBase, func(content string) {
		if err := s.conversations.AppendAssistant(storeCtx, conversationID, content); err != nil {
			logger.Error().Err(err).Msg("Failed to record assistant reply")
		}
	}, s.metrics)

	outcome, err := s.pump(ctx, resp.Body, translator)
	finished(outcome)
	return err
}

// prepareTurn records the submitted messages and builds the Grok request from
// the resulting transcript
func (s *Implementation) prepareTurn(ctx context.Context, conversationID string, req *models.ChatCompletionRequest, model models.Model) (*grok.Request, error) {
	_, created, err := s.conversations.GetOrCreate(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if created {
		s.metrics.ConversationCreated()
	}

	if err := s.conversations.Append(ctx, conversationID, ToConversationMessages(req.Messages)); err != nil {
		return nil, err
	}

	history, err := s.conversations.History(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return BuildGrokRequest(history, model), nil
}

// pump feeds Grok's newline-delimited records to the translator in order
func (s *Implementation) pump(ctx context.Context, body io.Reader, translator *StreamTranslator) (string, error) {
	logger := zerolog.Ctx(ctx)
	reader := bufio.NewReader(body)
	outcome := metrics.OutcomeStop

	for {
		line, readErr := reader.ReadBytes('\n')

		if line = bytes.TrimSpace(line); len(line) > 0 {
			done, err := translator.HandleLine(ctx, line)
			if err != nil {
				logger.Debug().Err(err).Msg("Client went away mid-stream")
				return metrics.OutcomeCancelled, err
			}
			if done {
				break
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if ctx.Err() != nil {
				logger.Debug().Err(readErr).Msg("Stream cancelled")
				return metrics.OutcomeCancelled, ctx.Err()
			}
			logger.Error().Err(readErr).Msg("Grok stream broke off")
			outcome = metrics.OutcomeReadError
			break
		}
	}

	if !translator.Terminated() {
		logger.Debug().Msg("Grok stream ended without soft stop")
	}
	if err := translator.Finish(); err != nil {
		return metrics.OutcomeCancelled, err
	}
	return outcome, nil
}
