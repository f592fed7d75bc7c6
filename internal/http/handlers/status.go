package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"diarist/internal/domain"
)

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Status reports the reconciled state of a transcription job.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, errMsg, err := a.Service.Status(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "transcription job not found")
		case errors.Is(err, domain.ErrProviderUnavailable):
			a.Log.Error().Err(err).Str("job_id", id).Msg("status check failed")
			a.error(w, http.StatusInternalServerError, "transcription provider unavailable")
		default:
			a.Log.Error().Err(err).Str("job_id", id).Msg("status check failed")
			a.error(w, http.StatusInternalServerError, "failed to check transcription status")
		}
		return
	}

	a.json(w, http.StatusOK, statusResponse{Status: string(status), Error: errMsg})
}
