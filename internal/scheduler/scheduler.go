// Package scheduler runs a sync job once at startup and then on a fixed period.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Job is one sync attempt. The result is only logged.
type Job func(ctx context.Context) bool

// Scheduler is either enabled or disabled for its whole life; the mode is chosen
// at construction from whether the remote is configured.
type Scheduler struct {
	name     string
	interval time.Duration
	enabled  bool
	job      Job
	logger   *slog.Logger
}

func New(name string, interval time.Duration, enabled bool, job Job, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		name:     name,
		interval: interval,
		enabled:  enabled,
		job:      job,
		logger:   logger.With("scheduler", name),
	}
}

func (s *Scheduler) Enabled() bool {
	return s.enabled
}

// Run blocks until ctx is done. A disabled scheduler returns immediately without
// running the job. Ticks never overlap; a slow job delays the next one.
func (s *Scheduler) Run(ctx context.Context) {
	if !s.enabled {
		s.logger.Info("Periodic sync disabled, registrations stay local")
		return
	}

	s.logger.Info("Starting periodic sync", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			s.logger.Info("Periodic sync stopping")
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if ok := s.job(ctx); !ok {
		s.logger.Debug("Sync attempt did not complete, next attempt on schedule")
	}
}
