package grok

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/deepgram/grokgate/internal/config"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog/log"
)

const chatItemIDHeader = "userChatItemId"

// StatusError reports a non-2xx reply from Grok
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("grok returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("grok returned status %d: %s", e.StatusCode, e.Body)
}

// StreamResponse is an open Grok reply whose body yields newline-delimited records
type StreamResponse struct {
	Body io.ReadCloser
	// Created comes from the Date header, or the local clock when absent
	Created time.Time
	// ChatItemID identifies the turn; a millisecond timestamp when Grok sends none
	ChatItemID string
}

type Service struct {
	client      *http.Client
	apiURL      string
	readTimeout time.Duration
	retryPolicy retrypolicy.RetryPolicy[*http.Response]
	now         func() time.Time
}

func NewService(cfg config.GrokConfig) *Service {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // operator opt-in
		},
	}

	if cfg.InsecureSkipVerify {
		log.Warn().Msg("TLS verification towards Grok is disabled")
	}

	return NewServiceWithClient(cfg, &http.Client{Transport: transport})
}

// NewServiceWithClient uses client for every attempt. Timeouts other than the
// streaming read timeout are the client's responsibility.
func NewServiceWithClient(cfg config.GrokConfig, client *http.Client) *Service {
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay, maxDelay := cfg.RetryBaseDelay, cfg.RetryMaxDelay
	if baseDelay <= 0 {
		baseDelay = time.Millisecond
	}
	if maxDelay <= baseDelay {
		maxDelay = 2 * baseDelay
	}

	policy := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(func(_ *http.Response, err error) bool {
			return isRetryable(err)
		}).
		WithMaxRetries(maxRetries).
		WithBackoff(baseDelay, maxDelay).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[*http.Response]) {
			log.Warn().
				Err(e.LastError()).
				Int("attempt", e.Attempts()).
				Int("max_retries", maxRetries).
				Msg("Grok request failed, retrying")
		}).
		Build()

	return &Service{
		client:      client,
		apiURL:      cfg.APIURL,
		readTimeout: cfg.ReadTimeout,
		retryPolicy: policy,
		now:         time.Now,
	}
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	// transport level failure
	return true
}

// Stream posts req to Grok and returns the open streaming reply. Transient
// failures are retried with exponential backoff. The caller must close Body;
// cancelling ctx aborts the stream.
func (s *Service) Stream(ctx context.Context, creds Credentials, req *Request) (*StreamResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal grok request: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)

	resp, err := failsafe.With(s.retryPolicy).WithContext(streamCtx).Get(func() (*http.Response, error) {
		return s.post(streamCtx, creds, payload)
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("grok request failed: %w", err)
	}

	body, err := decodeBody(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		resp.Body.Close()
		cancel()
		return nil, err
	}

	created := s.now()
	if date := resp.Header.Get("Date"); date != "" {
		if t, err := http.ParseTime(date); err == nil {
			created = t
		}
	}

	chatItemID := resp.Header.Get(chatItemIDHeader)
	if chatItemID == "" {
		chatItemID = strconv.FormatInt(s.now().UnixMilli(), 10)
	}

	return &StreamResponse{
		Body:       newIdleTimeoutBody(body, s.readTimeout, cancel),
		Created:    created,
		ChatItemID: chatItemID,
	}, nil
}

func (s *Service) post(ctx context.Context, creds Credentials, payload []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+creds.Bearer)
	httpReq.Header.Set("Content-Type", "application/json; charset=UTF-8")
	httpReq.Header.Set("Accept-Encoding", acceptEncoding)
	httpReq.Header.Set("Cookie", "auth_token="+creds.AuthToken)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	return resp, nil
}

// idleTimeoutBody aborts the stream when no bytes arrive for timeout
type idleTimeoutBody struct {
	io.ReadCloser
	timer   *time.Timer
	timeout time.Duration
	cancel  context.CancelFunc
}

func newIdleTimeoutBody(body io.ReadCloser, timeout time.Duration, cancel context.CancelFunc) io.ReadCloser {
	b := &idleTimeoutBody{ReadCloser: body, timeout: timeout, cancel: cancel}
	if timeout > 0 {
		b.timer = time.AfterFunc(timeout, func() {
			log.Warn().Dur("timeout", timeout).Msg("Grok stream idle, aborting")
			cancel()
		})
	}
	return b
}

func (b *idleTimeoutBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 && b.timer != nil {
		b.timer.Reset(b.timeout)
	}
	return n, err
}

func (b *idleTimeoutBody) Close() error {
	if b.timer != nil {
		b.timer.Stop()
	}
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
