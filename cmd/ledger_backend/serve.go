package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/handlers"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/middleware"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/platform/telemetry"
	"github.com/Rust-Frog/Accounting-System-sub002/pkg/database"
)

const shutdownTimeout = 10 * time.Second

func serveCommand(a *app) *cobra.Command {
	var migrationsPath string
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run database migrations and start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, migrationsPath, skipMigrations)
		},
	}
	cmd.Flags().StringVar(&migrationsPath, "migrations", defaultMigrationsPath, "migration source URL")
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on start")
	return cmd
}

func (a *app) serve(ctx context.Context, migrationsPath string, skipMigrations bool) error {
	logger := a.logger
	cfg := a.cfg

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("Failed to flush traces", slog.String("error", err.Error()))
		}
	}()

	if cfg.DatabaseURL != "" && !skipMigrations {
		logger.Info("Running database migrations...")
		changed, err := database.RunMigrations(cfg.DatabaseURL, migrationsPath, database.MigrateUp)
		if err != nil {
			return err
		}
		if changed {
			logger.Info("Database migrations applied successfully.")
		} else {
			logger.Info("No new migrations to apply.")
		}
	}

	rt, err := a.wire(ctx, true)
	if err != nil {
		return err
	}
	defer rt.close()

	rateLimiter, err := middleware.NewLimiter(cfg.RateLimit, rt.redisClient)
	if err != nil {
		return err
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}
	if err := handlers.RegisterRoutes(r, cfg, rt.services, rateLimiter); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed to run: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
