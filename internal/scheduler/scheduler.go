// Package scheduler drives fetch-and-persist cycles. Shutdown is delivered
// through the context: cancellation interrupts the inter-cycle wait
// immediately instead of waiting out the interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"pool-logger/internal/types"
)

// Fetcher produces one poll cycle's worth of readings. Vendor failures are
// handled inside Fetch and surface as an empty batch.
type Fetcher interface {
	Fetch(ctx context.Context) []types.Reading
}

// Writer persists a batch atomically.
type Writer interface {
	WriteBatch(ctx context.Context, readings []types.Reading) error
}

// Sink receives a batch after it has been persisted. Sink failures are
// logged but never abort the cycle.
type Sink interface {
	Name() string
	Publish(ctx context.Context, readings []types.Reading) error
}

type Scheduler struct {
	fetcher Fetcher
	writer  Writer
	sinks   []Sink
	logger  *slog.Logger
}

func New(fetcher Fetcher, writer Writer, logger *slog.Logger, sinks ...Sink) *Scheduler {
	return &Scheduler{
		fetcher: fetcher,
		writer:  writer,
		sinks:   sinks,
		logger:  logger,
	}
}

// RunOnce performs exactly one fetch-and-write cycle. Persistence errors
// are logged and propagated to the caller.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.logger.Info("checking pool temperatures")

	readings := s.fetcher.Fetch(ctx)
	if err := s.writer.WriteBatch(ctx, readings); err != nil {
		s.logger.Error("temperature check failed", "error", err)
		return err
	}

	if len(readings) == 0 {
		s.logger.Warn("no temperature data retrieved")
		return nil
	}
	s.logger.Info("logged temperature readings", "count", len(readings))

	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, readings); err != nil {
			s.logger.Warn("sink publish failed", "sink", sink.Name(), "error", err)
		}
	}
	return nil
}

// RunContinuous loops RunOnce at the given interval until ctx is cancelled.
// A pending shutdown interrupts the wait at once rather than after the full
// interval. Returns nil on clean shutdown.
func (s *Scheduler) RunContinuous(ctx context.Context, interval time.Duration) error {
	s.logger.Info("starting continuous temperature logging", "interval", interval)

	for {
		if err := s.RunOnce(ctx); err != nil {
			return err
		}

		s.logger.Info("waiting until next check", "interval", interval)
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("shutdown requested, stopping")
			return nil
		case <-timer.C:
		}
	}
}
