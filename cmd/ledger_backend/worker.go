package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/events"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/platform/telemetry"
)

func workerCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume domain events from redis and append them to the activity chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWorker(cmd.Context())
		},
	}
}

func (a *app) runWorker(ctx context.Context) error {
	cfg := a.cfg
	if cfg.RedisURL == "" {
		return errors.New("worker requires REDIS_URL")
	}

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.ServiceName+"-worker", cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			a.logger.Error("Failed to flush traces", slog.String("error", err.Error()))
		}
	}()

	// The worker records events but never raises new ones.
	rt, err := a.wire(ctx, false)
	if err != nil {
		return err
	}
	defer rt.close()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL for the event queue: %w", err)
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues:      map[string]int{cfg.EventQueue: 1},
		Logger:      newAsynqLogger(a.logger),
	})

	a.logger.Info("Worker starting", slog.String("queue", cfg.EventQueue), slog.Int("concurrency", cfg.WorkerConcurrency))
	// Run blocks until SIGINT or SIGTERM.
	if err := srv.Run(events.NewWorkerMux(rt.bus)); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}
	return nil
}

// asynqLogger routes asynq's internal logging through slog.
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{logger: logger.With(slog.String("component", "asynq"))}
}

func (l *asynqLogger) Debug(args ...any) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...any)  { l.logger.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...any)  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...any) { l.logger.Error(fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...any) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
