package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"diarist/internal/domain"
	"diarist/internal/transcript"
)

type transcriptResponse struct {
	Transcript []transcript.Segment `json:"transcript"`
}

// Transcript returns the formatted speaker-segmented transcript of a
// completed job.
func (a *App) Transcript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	segments, err := a.Service.Transcript(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "transcription job not found")
		case errors.Is(err, domain.ErrNotReady):
			a.error(w, http.StatusBadRequest, "transcription is not yet complete")
		case errors.Is(err, domain.ErrTranscriptionFailed):
			a.error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrProviderUnavailable):
			a.Log.Error().Err(err).Str("job_id", id).Msg("transcript retrieval failed")
			a.error(w, http.StatusInternalServerError, "transcription provider unavailable")
		default:
			a.Log.Error().Err(err).Str("job_id", id).Msg("transcript retrieval failed")
			a.error(w, http.StatusInternalServerError, "failed to retrieve transcript")
		}
		return
	}

	a.json(w, http.StatusOK, transcriptResponse{Transcript: segments})
}
