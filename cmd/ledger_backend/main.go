package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/cache"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	portssvc "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/services"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/events"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/lock"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/platform/config"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/repositories/database/pgsql"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/repositories/memory"
	"github.com/Rust-Frog/Accounting-System-sub002/pkg/database"
)

// app carries what every command needs once the configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

// runtime is the wired ledger. close releases the pool and the redis clients.
type runtime struct {
	services    *portssvc.ServiceContainer
	redisClient *redis.Client
	bus         *events.Bus
	closers     []func()
}

func (r *runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "ledger",
		Short:         "Multi-tenant double-entry ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
			slog.SetDefault(a.logger)

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg
			return nil
		},
	}

	rootCmd.AddCommand(serveCommand(a))
	rootCmd.AddCommand(workerCommand(a))
	rootCmd.AddCommand(migrateCommand(a))
	rootCmd.AddCommand(verifyChainCommand(a))
	rootCmd.AddCommand(expireApprovalsCommand(a))
	return rootCmd
}

// wire builds the repositories and services. Without PGSQL_URL the ledger runs on the in-memory
// store; without REDIS_URL chain locks and the threshold cache are skipped and events are
// delivered in process. publish controls whether services emit events at all.
func (a *app) wire(ctx context.Context, publish bool) (*runtime, error) {
	rt := &runtime{bus: events.NewBus()}

	var repos portsrepo.RepositoryProvider
	if a.cfg.DatabaseURL != "" {
		pool, err := database.NewPgxPool(ctx, a.cfg.DatabaseURL, a.cfg.EnableDBCheck)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { database.ClosePgxPool(pool) })
		repos = pgsql.NewRepositoryProvider(pool, a.cfg.DefaultThresholds())
		a.logger.Info("Using Postgres repositories")
	} else {
		repos = memory.New(a.cfg.DefaultThresholds()).Repositories()
		a.logger.Warn("Using the in-memory store; data is lost on exit")
	}

	var locker portssvc.ChainLocker
	var publisher portssvc.EventPublisher = rt.bus
	if a.cfg.RedisURL != "" {
		opts, err := redis.ParseURL(a.cfg.RedisURL)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rt.redisClient = redis.NewClient(opts)
		rt.closers = append(rt.closers, func() { _ = rt.redisClient.Close() })

		locker = lock.NewChainLocker(rt.redisClient)
		repos.ThresholdRepo = cache.NewCachedThresholdRepository(repos.ThresholdRepo, rt.redisClient, a.cfg.ThresholdCacheTTL)

		redisOpt, err := asynq.ParseRedisURI(a.cfg.RedisURL)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("invalid REDIS_URL for the event queue: %w", err)
		}
		client := asynq.NewClient(redisOpt)
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		publisher = events.NewAsynqPublisher(client, a.cfg.EventQueue)
	}

	var opts []services.Option
	if publish {
		opts = append(opts, services.WithPublisher(publisher))
	}
	rt.services = services.NewServiceContainer(a.cfg, repos, locker, opts...)

	// In-process delivery records activity right away; with redis the worker does it.
	rt.bus.SubscribeAll(services.NewActivityRecorder(rt.services.Audit).Handle)
	return rt, nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("Command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
