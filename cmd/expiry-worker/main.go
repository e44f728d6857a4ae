package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/princekumarofficial/zcreens-service/internal/config"
	"github.com/princekumarofficial/zcreens-service/internal/services/media"
	"github.com/princekumarofficial/zcreens-service/internal/services/presentations"
	"github.com/princekumarofficial/zcreens-service/internal/storage/postgres"
	"github.com/princekumarofficial/zcreens-service/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	// Load config
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	storage, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	opts := []presentations.Option{
		presentations.WithLogger(logger),
		presentations.WithSweepBatch(cfg.Worker.BatchSize),
	}
	if cfg.MinIO.Enabled {
		mediaService, err := media.NewService(ctx, cfg)
		if err != nil {
			log.Fatal("Failed to initialize MinIO:", err)
		}
		opts = append(opts, presentations.WithArchive(mediaService))
	}

	// Expiry never gives storage back, so the sweep needs no quota service.
	sweeper := presentations.NewService(storage, nil, opts...)
	w := worker.NewExpiryWorker(sweeper, cfg.Worker.Interval, logger)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancel()
	}()

	// Start the worker
	w.Start(ctx)

	slog.Info("Expiry worker stopped")
}
