package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"diarist/internal/http/handlers"
	httpapi "diarist/internal/http/httpapi"
	"diarist/internal/infra"
	"diarist/internal/metrics"
	"diarist/internal/providers/assemblyai"
	"diarist/internal/registry"
	"diarist/internal/service"
	"diarist/internal/storage"
	"diarist/internal/sweeper"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	store, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	provider, err := assemblyai.NewClient(assemblyai.Options{
		APIKey:           cfg.AssemblyAPIKey,
		BaseURL:          cfg.AssemblyBaseURL,
		SpeakersExpected: cfg.SpeakersExpected,
		Logger:           &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure transcription provider")
	}

	m := metrics.New(nil)
	reg := registry.New()
	sw := sweeper.New(reg, store, m, logger, cfg.RetentionTTL)
	svc := service.New(provider, reg, sw, m, logger)

	app := handlers.NewApp(logger, svc, store, cfg.MaxUploadBytes)
	router := httpapi.NewRouter(app, logger, m)
	server := infra.NewHTTPServer(infra.ServerOptions{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	if cfg.SweepInterval > 0 {
		go sw.Run(sweepCtx, cfg.SweepInterval)
	}

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
