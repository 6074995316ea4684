package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives Monitor.Tick on a fixed interval.
type Scheduler struct {
	monitor  *Monitor
	cron     *cron.Cron
	logger   *slog.Logger
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(m *Monitor, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))

	return &Scheduler{
		monitor:  m,
		logger:   logger,
		interval: m.opts.Interval,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		)),
	}
}

// Start registers the tick job and starts the cron runner. The first scan
// happens one interval after Start.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() {
		s.monitor.Tick(s.ctx)
	}); err != nil {
		s.cancel()
		return fmt.Errorf("scheduling monitor tick: %w", err)
	}

	s.cron.Start()
	s.monitor.setActive(true)

	s.logger.Info("payment monitor started",
		"interval", s.interval,
		"max_attempts", s.monitor.opts.MaxAttempts,
	)
	return nil
}

// Stop halts the schedule and waits for a running tick to finish, cancelling
// it once ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.monitor.setActive(false)
	if s.cancel == nil {
		return nil
	}

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.cancel()
		s.logger.Info("payment monitor stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done.Done()
		return fmt.Errorf("stopping payment monitor: %w", ctx.Err())
	}
}
