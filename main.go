package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lifanwar/warung22/config"
	"github.com/lifanwar/warung22/database"
	"github.com/lifanwar/warung22/internal/handler"
	"github.com/lifanwar/warung22/internal/helper"
	"github.com/lifanwar/warung22/internal/model"
	"github.com/lifanwar/warung22/internal/service"
	"github.com/lifanwar/warung22/internal/whatsapp"
	"github.com/lifanwar/warung22/internal/ws"
	"github.com/rs/zerolog"
)

func main() {
	// Load .env (abaikan error kalau file tidak ada, misal di production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := helper.NewLogger("", "")
		boot.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger := helper.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialect, address := cfg.CredentialStoreURL()
	container, err := database.InitWhatsmeow(ctx, dialect, address, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open credential store")
	}

	backend := service.NewBackendClient(cfg.BackendURL, cfg.APIKey, logger)
	backend.AskTimeout = cfg.AskTimeout
	backend.RefreshTimeout = cfg.RefreshTimeout
	probeBackend(ctx, backend, logger)

	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	var sessions *service.SessionManager
	pairing := handler.NewPairingServer(cfg.Addr(), cfg.BrandName, hub, func() model.Session {
		return sessions.Status()
	}, logger)

	sessions = service.NewSessionManager(cfg.SessionID, whatsapp.NewDialer(container, logger), pairing, logger)
	sessions.Backoff = service.FixedBackoff(cfg.ReconnectDelay)

	webhook := service.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookSecret, logger)
	dispatcher := service.NewDispatcher(backend, sessions, webhook, cfg.BrandName, logger)

	logger.Info().
		Str("backend", cfg.BackendURL).
		Str("session", cfg.SessionID).
		Str("store", dialect).
		Bool("webhook", webhook.Enabled()).
		Msg("🚀 Starting WhatsApp bridge")

	err = sessions.Run(ctx, dispatcher.HandleEvent)
	switch {
	case errors.Is(err, service.ErrLoggedOut):
		// Keep the process alive without a session; an operator has to
		// re-pair and restart.
		logger.Warn().Msg("No active session, waiting for shutdown signal")
		<-ctx.Done()
	case err != nil:
		logger.Fatal().Err(err).Msg("Session manager stopped")
	}

	logger.Info().Msg("Shutdown complete")
}

// probeBackend only logs; the bridge runs even when the backend is down and
// commands then answer with the maintenance text.
func probeBackend(ctx context.Context, backend *service.BackendClient, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := backend.Health(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("⚠ Backend API is not reachable yet")
		return
	}
	logger.Info().Str("service", health.Service).Str("status", health.Status).Str("version", health.Version).Msg("✓ Backend API reachable")
}
