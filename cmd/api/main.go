package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/furnimarket-backend/internal/ai"
	"github.com/shinyyama/furnimarket-backend/internal/config"
	"github.com/shinyyama/furnimarket-backend/internal/db"
	"github.com/shinyyama/furnimarket-backend/internal/imagesrc"
	"github.com/shinyyama/furnimarket-backend/internal/logger"
	"github.com/shinyyama/furnimarket-backend/internal/metrics"
	appmw "github.com/shinyyama/furnimarket-backend/internal/middleware"
	"github.com/shinyyama/furnimarket-backend/internal/repository"
	"github.com/shinyyama/furnimarket-backend/internal/server"
)

var (
	gitSHA    = "dev"
	buildTime = ""
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("config_load_failed")
	}
	logger.Init("furnimarket-api", cfg.LogLevel, cfg.LogPretty)
	log := &logger.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("db_connect_failed")
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("db_migrate_failed")
	}

	deps := server.Deps{
		Store:               repository.NewStore(conn),
		Metrics:             metrics.New(),
		CORSAllowedSuffixes: cfg.CORSAllowedSuffixes,
		GitSHA:              gitSHA,
		BuildTime:           buildTime,
	}

	switch {
	case cfg.FirebaseProjectID != "":
		authMw, err := appmw.NewAuthMiddleware(ctx, cfg.FirebaseProjectID)
		if err != nil {
			log.Fatal().Err(err).Msg("firebase_auth_init_failed")
		}
		deps.Auth = authMw
		deps.Users = authMw.Client()
	case cfg.AuthDevHeader:
		log.Warn().Str("header", appmw.DevUserIDHeader).Msg("dev_identity_header_enabled")
		deps.Auth = appmw.NewDevAuthMiddleware()
	default:
		log.Fatal().Str("hint", "set FIREBASE_PROJECT_ID, or AUTH_DEV_HEADER=true for local sqlite runs").Msg("auth_not_configured")
	}

	if cfg.GeminiAPIKey != "" {
		captioner, err := ai.NewCaptionClient(ctx, cfg.GeminiAPIKey, cfg.GeminiCaptionModel)
		if err != nil {
			log.Error().Err(err).Msg("caption_client_init_failed")
		} else {
			gcs, err := imagesrc.NewStorageClient(ctx, cfg.GCSCredentialsFile)
			if err != nil {
				// gs:// references are rejected without a client
				log.Warn().Err(err).Msg("storage_client_unavailable")
				gcs = nil
			} else {
				defer gcs.Close()
			}
			deps.Fetcher = imagesrc.New(nil, gcs)
			deps.Captioner = captioner
		}
	}

	srv, err := server.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("server_init_failed")
	}
	addr := ":" + cfg.Port

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("git_sha", gitSHA).Msg("server_starting")
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server_stopped")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server_shutdown_failed")
		}
		log.Info().Msg("server_stopped")
	}
}
