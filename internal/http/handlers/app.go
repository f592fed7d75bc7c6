package handlers

import (
	"encoding/json"
	"net/http"

	"diarist/internal/infra"
	"diarist/internal/service"
	"diarist/internal/storage"
)

// App carries the dependencies the HTTP handlers need.
type App struct {
	Log            infra.Logger
	Service        *service.Service
	Store          *storage.FileStore
	MaxUploadBytes int64
}

func NewApp(logger infra.Logger, svc *service.Service, store *storage.FileStore, maxUploadBytes int64) *App {
	return &App{
		Log:            logger,
		Service:        svc,
		Store:          store,
		MaxUploadBytes: maxUploadBytes,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
