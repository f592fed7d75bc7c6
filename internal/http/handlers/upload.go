package handlers

import (
	"errors"
	"net/http"
	"strings"

	"diarist/internal/domain"
)

type uploadResponse struct {
	TranscriptionID string `json:"transcriptionId"`
}

// Upload receives a multipart video, persists it to temporary storage, and
// submits it for transcription. Validation failures never leave a job
// record or a temp file behind.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)

	file, header, err := r.FormFile("video")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			a.error(w, http.StatusBadRequest, "file size exceeds the upload limit")
			return
		}
		a.error(w, http.StatusBadRequest, "no video file uploaded")
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); !strings.HasPrefix(ct, "video/") {
		a.error(w, http.StatusBadRequest, "uploaded file must be a video")
		return
	}

	path, err := a.Store.SaveUpload(file, header.Filename)
	if err != nil {
		a.Log.Error().Err(err).Msg("failed to persist upload")
		a.error(w, http.StatusInternalServerError, "failed to store uploaded file")
		return
	}

	id, err := a.Service.Submit(r.Context(), path)
	if err != nil {
		// No job was registered, so the temp file is ours to clean up.
		if rmErr := a.Store.Remove(path); rmErr != nil {
			a.Log.Warn().Err(rmErr).Str("path", path).Msg("failed to remove orphaned upload")
		}
		a.Log.Error().Err(err).Msg("transcription submission failed")
		if errors.Is(err, domain.ErrProviderUnavailable) {
			a.error(w, http.StatusInternalServerError, "transcription provider unavailable")
			return
		}
		a.error(w, http.StatusInternalServerError, "failed to start transcription")
		return
	}

	a.json(w, http.StatusOK, uploadResponse{TranscriptionID: id})
}
