package handlers

import (
	"net/http"

	v1chat "github.com/deepgram/grokgate/internal/api/v1/handlers/chat"
	v1mware "github.com/deepgram/grokgate/internal/api/v1/middleware"
	"github.com/deepgram/grokgate/internal/services"
	"github.com/gorilla/mux"
)

func RegisterV1Routes(router *mux.Router, services *services.Services) {
	// v1 routes
	v1 := router.PathPrefix("/v1").Subrouter()

	v1.Handle("/models", v1mware.RateLimit("models")(http.HandlerFunc(HandleListModels))).Methods(http.MethodGet)

	// chat routes; credentials are passed through to Grok, so no auth middleware
	v1chatRouter := v1.PathPrefix("/chat").Subrouter()
	v1chatRouter.HandleFunc("/completions", v1chat.HandleOptions).Methods(http.MethodOptions)
	v1chatRouter.Handle("/completions", v1mware.RateLimit("chat_completion")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1chat.HandleChatCompletions(services.GetChatService(), w, r)
	}))).Methods(http.MethodPost)
}
