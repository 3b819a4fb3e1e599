package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maltedev/whey-ranker/internal/api"
	"github.com/maltedev/whey-ranker/internal/config"
	"github.com/maltedev/whey-ranker/internal/database"
	"github.com/maltedev/whey-ranker/internal/events"
	"github.com/maltedev/whey-ranker/internal/fetcher"
	"github.com/maltedev/whey-ranker/internal/jobs"
	"github.com/maltedev/whey-ranker/internal/pipeline"
	"github.com/maltedev/whey-ranker/internal/scraper"
	"github.com/maltedev/whey-ranker/pkg/logger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := database.Open(ctx, cfg.StoreConfig(), logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// The browser starts lazily on the first rendered page.
	f := fetcher.New(cfg.FetcherConfig(), logger)
	defer f.Close()

	runner := scraper.NewRunner(f, store, scraper.Adapters(cfg.Scraper.Sources, logger), logger)
	p := pipeline.New(store, runner, cfg.Scraper.TopN, logger)

	var (
		publisher   jobs.EventPublisher
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		pub := events.NewPublisher(redisClient, cfg.Redis.Stream, logger)
		defer pub.Close()
		publisher = pub
	}

	jobManager := jobs.NewManager(p, publisher, logger)
	handlers := api.NewHandlers(jobManager, p, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handlers, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		jobManager.StartWorker(gctx)
		return nil
	})

	if redisClient != nil {
		consumer := events.NewConsumer(redisClient, cfg.Redis.TriggerStream, cfg.Redis.ConsumerGroup,
			cfg.Redis.ConsumerName, func(ctx context.Context) error {
				_, err := jobManager.CreateRun(ctx)
				if errors.Is(err, jobs.ErrBusy) {
					logger.Info("run request ignored, a run is already in progress")
					return nil
				}
				return err
			}, logger)
		g.Go(func() error {
			if err := consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("trigger consumer: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("server starting", "port", cfg.Server.Port, "store", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	// Graceful shutdown on signal or when any component fails
	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigChan:
			logger.Info("shutting down server...")
		case <-gctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
