package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/deepgram/grokgate/internal/infrastructure/grok"
	"github.com/deepgram/grokgate/internal/services/chat"
	"github.com/deepgram/grokgate/internal/services/chat/models"
	"github.com/deepgram/grokgate/pkg/httpext"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const (
	bearerPrefix = "Bearer "
	maxBodyBytes = 10 << 20
)

var (
	ErrMissingAuthorization   = errors.New("missing authorization header")
	ErrMalformedAuthorization = errors.New("malformed authorization header")
	ErrUnparseableBody        = errors.New("unparseable request body")
	ErrMissingMessages        = errors.New("messages missing from request body")
	ErrEmptyMessages          = errors.New("messages is empty")
)

// plain-text bodies sent back for each client error
var clientMessages = []struct {
	err     error
	message string
}{
	{ErrMissingAuthorization, "Authorization header is missing"},
	{ErrMalformedAuthorization, "Invalid Authorization header format. Expected 'Bearer $AUTH_BEARER,$AUTH_TOKEN'"},
	{ErrUnparseableBody, "Unable to parse request body"},
	{ErrMissingMessages, "Invalid request body. Expected 'messages' in request body"},
	{ErrEmptyMessages, "'messages' cannot be empty"},
}

func clientMessage(err error) string {
	for _, m := range clientMessages {
		if errors.Is(err, m.err) {
			return m.message
		}
	}
	return http.StatusText(http.StatusBadRequest)
}

// use a single instance of Validate, it caches struct info
var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseCredentials splits "Bearer <bearer>,<auth token>" into the two Grok secrets
func ParseCredentials(header string) (grok.Credentials, error) {
	if header == "" {
		return grok.Credentials{}, ErrMissingAuthorization
	}

	value, found := strings.CutPrefix(header, bearerPrefix)
	if !found {
		return grok.Credentials{}, ErrMalformedAuthorization
	}

	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return grok.Credentials{}, ErrMalformedAuthorization
	}

	creds := grok.Credentials{
		Bearer:    strings.TrimSpace(parts[0]),
		AuthToken: strings.TrimSpace(parts[1]),
	}
	if creds.Bearer == "" || creds.AuthToken == "" {
		return grok.Credentials{}, ErrMalformedAuthorization
	}
	return creds, nil
}

// DecodeRequest reads the body as JSON whatever the declared content type.
// Form posts may carry the JSON document in a "data" field.
func DecodeRequest(r *http.Request) (*models.ChatCompletionRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableBody, err)
	}

	var req models.ChatCompletionRequest
	if jsonErr := json.Unmarshal(body, &req); jsonErr != nil {
		data := formData(r, body)
		if data == "" {
			return nil, fmt.Errorf("%w: %v", ErrUnparseableBody, jsonErr)
		}
		req = models.ChatCompletionRequest{}
		if err := json.Unmarshal([]byte(data), &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparseableBody, err)
		}
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "min" {
			return nil, ErrEmptyMessages
		}
		return nil, ErrMissingMessages
	}
	return &req, nil
}

func formData(r *http.Request, body []byte) string {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	if mediaType != "application/x-www-form-urlencoded" && mediaType != "multipart/form-data" {
		return ""
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return ""
	}
	return r.PostFormValue("data")
}

// HandleChatCompletions validates the request, then streams Grok's reply as
// OpenAI chat completion chunks
func HandleChatCompletions(chatService chat.Service, w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	creds, err := ParseCredentials(r.Header.Get("Authorization"))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrMissingAuthorization) {
			status = http.StatusUnauthorized
		}
		logger.Warn().Err(err).Int("status", status).Msg("Rejected chat completions request")
		httpext.TextError(w, clientMessage(err), status)
		return
	}

	req, err := DecodeRequest(r)
	if err != nil {
		logger.Warn().Err(err).Msg("Client sent an invalid request body")
		httpext.TextError(w, clientMessage(err), http.StatusBadRequest)
		return
	}

	// trace level log of the JSON request body pretty printed
	if logger.Trace().Enabled() {
		prettyJSON, err := json.MarshalIndent(req, "", "    ")
		if err == nil {
			logger.Trace().RawJSON("request_body", prettyJSON).Msg("Incoming completions request")
		}
	}

	logger.Info().
		Int("message_count", len(req.Messages)).
		Str("model", req.Model).
		Str("client_ip", r.RemoteAddr).
		Msg("Received chat completions request")

	stream := httpext.NewEventStream(w)
	if err := chatService.StreamCompletion(r.Context(), creds, req, stream); err != nil {
		logger.Warn().Err(err).Msg("Chat completions stream ended early")
		return
	}

	logger.Info().
		Str("client_ip", r.RemoteAddr).
		Int("status", http.StatusOK).
		Msg("Chat completions request processed successfully")
}

// HandleOptions answers CORS preflight requests; headers come from the CORS middleware
func HandleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
