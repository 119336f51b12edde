package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/escience/sitebot/internal/api/handlers"
	"github.com/escience/sitebot/internal/database"
	"github.com/escience/sitebot/internal/jobs"
	"github.com/escience/sitebot/internal/repository"
	"github.com/escience/sitebot/internal/server"
	"github.com/escience/sitebot/internal/service"
	"github.com/escience/sitebot/internal/telemetry"
	"github.com/escience/sitebot/migrations"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the sitebot chat and admin API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides SITEBOT_PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.SentryDSN != "" {
		// 10% sampling in production, everything elsewhere
		sampleRate := 1.0
		if cfg.Environment == "production" {
			sampleRate = 0.1
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Warn().Err(err).Msg("telemetry init failed, continuing without tracing")
		} else {
			defer shutdownTelemetry()
		}
	}

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := database.Migrate(cfg.DatabaseURL, migrations.FS); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	log.Info().Msg("connected to database")

	if a.archive != nil {
		if err := a.archive.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Info().Str("bucket", cfg.S3Bucket).Msg("document archive ready")
	}

	if !cfg.HasAdminTokens() {
		log.Warn().Msg("no admin tokens configured, admin endpoints will reject every request")
	}

	var backfill *jobs.Worker
	if a.configured && cfg.BackfillInterval > 0 {
		backfill = jobs.NewWorker("embedding-backfill", a.backfillWorker(), cfg.BackfillInterval)
		go backfill.Start(ctx)
	}

	recorder := service.NewAsyncChatLogger(repository.NewChatLogRepository(a.pool), service.DefaultChatLogWriteTimeout)

	router := server.NewRouter(server.RouterConfig{
		SessionValidator: service.NewTokenSessionValidator(cfg.AdminTokens),
		ChatHandler:      handlers.NewChatHandler(a.chatService(recorder)),
		KnowledgeHandler: handlers.NewKnowledgeHandler(a.knowledgeService()),
		ChatsHandler:     handlers.NewChatsHandler(a.chatLogService()),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	}
	log.Info().Msg("shutting down")

	if backfill != nil {
		backfill.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if err := recorder.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("pending chat logs were not written before shutdown")
	}

	log.Info().Msg("server exited")
	return nil
}
