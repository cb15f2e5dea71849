package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/deepgram/grokgate/internal/services"
	"github.com/deepgram/grokgate/pkg/chatid"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGrok answers add_response calls with a fixed stream
type fakeGrok struct {
	calls    atomic.Int32
	lastBody atomic.Value
	lines    []string
	status   int
}

func (f *fakeGrok) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)

	body, _ := io.ReadAll(r.Body)
	f.lastBody.Store(string(body))

	if r.Header.Get("Authorization") != "Bearer A" || r.Header.Get("Cookie") != "auth_token=B" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}

	w.Header().Set("userChatItemId", "1234567890")
	w.Header().Set("Content-Type", "application/json")
	for _, line := range f.lines {
		_, _ = io.WriteString(w, line+"\n")
		w.(http.Flusher).Flush()
	}
}

func setupTestServer(t *testing.T, origin *fakeGrok) *httptest.Server {
	t.Helper()

	grokServer := httptest.NewServer(origin)
	t.Cleanup(grokServer.Close)

	t.Setenv("GROK_API_URL", grokServer.URL)
	t.Setenv("GROK_MAX_RETRIES", "0")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("REDIS_URL", "")

	svcs, err := services.InitializeServices()
	require.NoError(t, err)
	t.Cleanup(svcs.Shutdown)

	server := httptest.NewServer(setupRouter(svcs))
	t.Cleanup(server.Close)
	return server
}

func newClient(server *httptest.Server, key string) *openai.Client {
	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = server.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func TestMainServer(t *testing.T) {
	origin := &fakeGrok{lines: []string{
		`{"result":{"sender":1,"message":"hi"}}`,
		`{"result":{"sender":2,"message":"thinking","isThinking":true}}`,
		`{"result":{"sender":2,"message":"see [link](#tweet=123)"}}`,
		`not json`,
		`{"result":{"isSoftStop":true}}`,
	}}
	server := setupTestServer(t, origin)

	t.Run("models endpoint", func(t *testing.T) {
		list, err := newClient(server, "unused").ListModels(context.Background())
		require.NoError(t, err)

		var ids []string
		for _, m := range list.Models {
			ids = append(ids, m.ID)
			assert.Equal(t, "model", m.Object)
			assert.Equal(t, int64(1145141919), m.CreatedAt)
			assert.Equal(t, "yilongma", m.OwnedBy)
		}
		assert.Equal(t, []string{"grok-3", "grok-3t", "grok-3ds"}, ids)
	})

	t.Run("chat completions stream through the OpenAI client", func(t *testing.T) {
		stream, err := newClient(server, "A,B").CreateChatCompletionStream(context.Background(), openai.ChatCompletionRequest{
			Model:    "grok-3t",
			Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hi"}},
			Stream:   true,
		})
		require.NoError(t, err)
		defer stream.Close()

		var contents []string
		var finish []openai.FinishReason
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			require.NoError(t, err)
			require.Len(t, resp.Choices, 1)
			assert.Equal(t, chatid.Encode("1234567890"), resp.ID)
			assert.Equal(t, "grok-3", resp.Model)
			assert.Equal(t, "chat.completion.chunk", resp.Object)
			contents = append(contents, resp.Choices[0].Delta.Content)
			finish = append(finish, resp.Choices[0].FinishReason)
		}

		assert.Equal(t, []string{
			"hi",
			"<think>\nthinking\n</think>\n\n",
			"see [link](https://x.com/elonmusk/status/123)",
			"",
		}, contents)
		assert.Equal(t, []openai.FinishReason{"", "", "", openai.FinishReasonStop}, finish)

		var sent struct {
			Responses []struct {
				Message string `json:"message"`
				Sender  int    `json:"sender"`
			} `json:"responses"`
			IsReasoning bool `json:"isReasoning"`
		}
		require.NoError(t, json.Unmarshal([]byte(origin.lastBody.Load().(string)), &sent))
		assert.True(t, sent.IsReasoning)
		require.Len(t, sent.Responses, 1)
		assert.Equal(t, "hi", sent.Responses[0].Message)
		assert.Equal(t, 1, sent.Responses[0].Sender)
	})

	t.Run("raw event stream framing", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, server.URL+"/v1/chat/completions",
			strings.NewReader(`{"conversation_id":"framing","messages":[{"role":"user","content":"hi"}]}`))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer A,B")
		req.Header.Set("Content-Type", "text/plain")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
		assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

		var events []string
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				require.True(t, strings.HasPrefix(line, "data: "), line)
				events = append(events, strings.TrimPrefix(line, "data: "))
			}
		}
		require.NoError(t, scanner.Err())

		require.Len(t, events, 5)
		assert.Contains(t, events[3], `"finish_reason":"stop"`)
		assert.Equal(t, "[DONE]", events[4])
	})

	t.Run("missing authorization never reaches grok", func(t *testing.T) {
		before := origin.calls.Load()

		resp, err := http.Post(server.URL+"/v1/chat/completions", "application/json",
			strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Authorization header is missing", string(body))
		assert.Equal(t, before, origin.calls.Load())
	})

	t.Run("preflight", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, server.URL+"/v1/chat/completions", nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, body)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Content-Type,Authorization", resp.Header.Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "POST,OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "grokgate_chat_completions_total")
		assert.Contains(t, string(body), "grokgate_upstream_malformed_lines_total")
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/invalid")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/v1/chat/completions")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestUpstreamFailureIsReportedInStream(t *testing.T) {
	server := setupTestServer(t, &fakeGrok{status: http.StatusForbidden})

	req, err := http.NewRequest(http.MethodPost, server.URL+"/v1/chat/completions",
		strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer A,B")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	events := strings.Split(strings.TrimSpace(string(body)), "\n\n")
	require.Len(t, events, 2)
	assert.Contains(t, events[0], `"type":"api_error"`)
	assert.Contains(t, events[0], "Grok API request failed")
	assert.Equal(t, "data: [DONE]", events[1])
}
