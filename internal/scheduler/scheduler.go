package scheduler

import (
	"context"
	"time"

	"github.com/feli-codes/Door2Dock/internal/services"
	"github.com/feli-codes/Door2Dock/pkg/logging"
)

// CycleRunner runs one collection cycle
type CycleRunner interface {
	RunCycle(ctx context.Context) (*services.CycleResult, error)
}

// Scheduler drives the collector in one of three modes: single-shot,
// fixed-count burst, or unbounded continuous loop. Cycles are strictly
// sequential; there is never more than one in flight.
type Scheduler struct {
	collector CycleRunner
	interval  time.Duration
	logger    *logging.StructuredLogger

	// injected for tests
	sleep func(d time.Duration)
	wait  func(ctx context.Context, d time.Duration) bool
}

// New creates a scheduler with the fixed inter-cycle interval
func New(collector CycleRunner, interval time.Duration, logger *logging.StructuredLogger) *Scheduler {
	return &Scheduler{
		collector: collector,
		interval:  interval,
		logger:    logger,
		sleep:     time.Sleep,
		wait:      waitInterval,
	}
}

// waitInterval sleeps for d, returning false if the context was
// canceled first
func waitInterval(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// RunOnce performs a single collection cycle
func (s *Scheduler) RunOnce(ctx context.Context) (*services.CycleResult, error) {
	return s.collector.RunCycle(ctx)
}

// RunBurst performs exactly cycles collection cycles with the fixed
// interval between them and no sleep after the last one
func (s *Scheduler) RunBurst(ctx context.Context, cycles int) error {
	s.logger.Info(ctx, "[BURST_START] Starting burst collection", logging.Fields{
		"cycles":   cycles,
		"interval": s.interval.String(),
	})

	for i := 0; i < cycles; i++ {
		s.logger.Info(ctx, "[BURST_CYCLE] Running cycle", logging.Fields{
			"cycle": i + 1,
			"of":    cycles,
		})

		if _, err := s.collector.RunCycle(ctx); err != nil {
			return err
		}

		if i < cycles-1 {
			s.sleep(s.interval)
		}
	}

	s.logger.Info(ctx, "[BURST_COMPLETE] Burst finished", logging.Fields{
		"cycles": cycles,
	})

	return nil
}

// RunContinuous runs an immediate cycle and then loops forever with the
// fixed interval between cycles. The context is checked only between
// cycles: a cycle that has started always runs to completion.
func (s *Scheduler) RunContinuous(ctx context.Context) error {
	s.logger.Info(ctx, "[CONTINUOUS_START] Starting continuous collection", logging.Fields{
		"interval": s.interval.String(),
	})

	for {
		if _, err := s.collector.RunCycle(context.WithoutCancel(ctx)); err != nil {
			return err
		}

		if !s.wait(ctx, s.interval) {
			s.logger.Info(ctx, "[CONTINUOUS_STOP] Interrupt received, stopping", logging.Fields{})
			return nil
		}
	}
}
