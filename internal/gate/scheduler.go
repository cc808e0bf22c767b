package gate

import (
	"context"
	"time"
)

const schedulerTickInterval = 60 * time.Second

// Scheduler drives the backup manager on a fixed tick. Ticks run on a
// single goroutine, so a slow run delays the next tick instead of
// overlapping it.
type Scheduler struct {
	backups *BackupManager
	logger  Logger
	tick    time.Duration
}

// NewScheduler creates a scheduler with the standard tick interval.
func NewScheduler(backups *BackupManager, logger Logger) *Scheduler {
	return &Scheduler{
		backups: backups,
		logger:  logger,
		tick:    schedulerTickInterval,
	}
}

// Run ticks until ctx is cancelled. Tick failures are logged and the
// loop keeps going.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("backup scheduler started", "tick", s.tick.String())
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("backup scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs all due jobs once.
func (s *Scheduler) Tick(ctx context.Context) {
	ran, err := s.backups.RunDue(ctx)
	if err != nil {
		s.logger.Error("scheduler tick failed", "error", err)
		return
	}
	if ran > 0 {
		s.logger.Info("scheduler tick complete", "jobsRan", ran)
	}
}
