// Package worker runs the periodic sweep that deletes expired presentations.
package worker

import (
	"context"
	"log/slog"
	"time"
)

type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type ExpiryWorker struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *slog.Logger
	ticks    func(time.Duration) (<-chan time.Time, func())
}

func NewExpiryWorker(sweeper Sweeper, interval time.Duration, logger *slog.Logger) *ExpiryWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpiryWorker{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
		ticks: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// Start sweeps once immediately and then on every tick until ctx is done.
func (ew *ExpiryWorker) Start(ctx context.Context) {
	tick, stop := ew.ticks(ew.interval)
	defer stop()

	ew.logger.Info("Expiry worker started",
		"interval", ew.interval.String())

	ew.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			ew.logger.Info("Expiry worker shutting down")
			return
		case <-tick:
			ew.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and returns how many presentations it
// removed.
func (ew *ExpiryWorker) RunOnce(ctx context.Context) int {
	startTime := time.Now()

	count, err := ew.sweeper.Sweep(ctx)
	if err != nil {
		ew.logger.Error("Failed to remove expired presentations",
			"error", err.Error(),
			"removed", count,
			"duration_ms", time.Since(startTime).Milliseconds())
		return count
	}

	duration := time.Since(startTime)
	if count > 0 {
		ew.logger.Info("Completed expired presentations cleanup",
			"presentations_deleted", count,
			"duration_ms", duration.Milliseconds(),
			"duration", duration.String())
	} else {
		ew.logger.Debug("No expired presentations",
			"duration_ms", duration.Milliseconds())
	}
	return count
}
