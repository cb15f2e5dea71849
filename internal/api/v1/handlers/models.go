package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/deepgram/grokgate/internal/services/chat/models"
	"github.com/deepgram/grokgate/pkg/httpext"
	"github.com/rs/zerolog"
)

// HandleListModels returns the fixed model catalogue
func HandleListModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(models.ListModels()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode model list")
		httpext.JsonError(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
