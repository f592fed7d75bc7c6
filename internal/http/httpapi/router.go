package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"diarist/internal/http/handlers"
	"diarist/internal/infra"
	"diarist/internal/metrics"
	"diarist/internal/middleware"
)

func NewRouter(app *handlers.App, logger infra.Logger, m *metrics.Metrics) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimiddleware.RealIP, chimiddleware.Recoverer)
	r.Use(middleware.Logger(logger))
	if m != nil {
		r.Use(middleware.Metrics(m))
	}

	r.Get("/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/upload", app.Upload)
	r.Get("/status/{id}", app.Status)
	r.Get("/transcript/{id}", app.Transcript)

	return r
}
