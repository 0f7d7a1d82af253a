package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/bytedrop/internal/logger"
	"github.com/marmos91/bytedrop/pkg/api"
	"github.com/marmos91/bytedrop/pkg/api/handlers"
	"github.com/marmos91/bytedrop/pkg/cache"
	"github.com/marmos91/bytedrop/pkg/config"
	"github.com/marmos91/bytedrop/pkg/content"
	"github.com/marmos91/bytedrop/pkg/metrics"
	"github.com/marmos91/bytedrop/pkg/ratelimit"
	"github.com/marmos91/bytedrop/pkg/token"
	"github.com/marmos91/bytedrop/pkg/worker"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bytedrop server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStart()
	},
}

func runStart() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("configuration loaded",
		"key_length", cfg.Content.KeyLength,
		"lifetime", cfg.Content.Lifetime,
		"max_content_length", cfg.Content.MaxContentLength,
		"content_dir", cfg.Content.Path)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics are opt-in; a nil collector disables all recording.
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		logger.Info("metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("metrics collection disabled")
	}

	store, err := content.NewStore(cfg.Content.Path)
	if err != nil {
		return fmt.Errorf("failed to open content store: %w", err)
	}

	pool := worker.NewPool(worker.PoolConfig{
		Workers:   cfg.Workers.IOPoolSize,
		QueueSize: cfg.Workers.QueueSize,
	})
	pool.Start()

	access := worker.NewAccessLogger(cfg.Workers.QueueSize)
	access.Start()

	var cacheMetrics cache.Metrics
	if m != nil {
		cacheMetrics = m
	}
	recordCache := cache.New(cache.Options{
		MaxWeight: int64(cfg.Cache.MaxSize),
		IdleTTL:   cfg.Cache.Expiry,
		Load:      store.Load,
		Submit: func(fn func()) {
			if !pool.Submit(fn) {
				// Pool already stopped; resolve on the caller to avoid
				// stranding waiters during shutdown.
				fn()
			}
		},
		Metrics: cacheMetrics,
	})

	tokens, err := token.NewGenerator(cfg.Content.KeyLength)
	if err != nil {
		return fmt.Errorf("invalid key length: %w", err)
	}

	postLimit := ratelimit.NewLimiter(cfg.RateLimit.Post.Limit, cfg.RateLimit.Post.Period)
	readLimit := ratelimit.NewLimiter(cfg.RateLimit.Read.Limit, cfg.RateLimit.Read.Period)
	go postLimit.Run(ctx)
	go readLimit.Run(ctx)

	var sweepMetrics content.SweeperMetrics
	if m != nil {
		sweepMetrics = m
	}
	sweeper := content.NewSweeper(store, cfg.Cache.Expiry, sweepMetrics)
	go sweeper.Run(ctx)

	var apiMetrics handlers.Metrics
	if m != nil {
		apiMetrics = m
	}
	handler := handlers.New(
		handlers.Config{
			Lifetime:         cfg.Content.Lifetime,
			MaxContentLength: cfg.Content.MaxContentLength,
		},
		store,
		recordCache,
		pool,
		access,
		tokens,
		postLimit,
		readLimit,
		apiMetrics,
	)

	server := api.NewServer(api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, api.NewRouter(handler))

	if m != nil {
		metricsServer := metrics.NewServer(cfg.Metrics.Port, m)
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("metrics server error", logger.KeyError, err)
			}
		}()
	}

	// Run the API server until a signal or a bind failure.
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()
		if err := <-serverDone; err != nil {
			drainWorkers(pool, access)
			return fmt.Errorf("server shutdown error: %w", err)
		}
	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			drainWorkers(pool, access)
			return err
		}
	}

	// Pending saves scheduled before shutdown still reach disk.
	drainWorkers(pool, access)
	logger.Info("server stopped")
	return nil
}

// drainWorkers stops the I/O pool and the access logger, letting queued
// work finish.
func drainWorkers(pool *worker.Pool, access *worker.AccessLogger) {
	pool.Stop()
	access.Stop()
}
