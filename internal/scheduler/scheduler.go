package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/qepting91/reddit-image-relay/internal/domain"
	"github.com/qepting91/reddit-image-relay/internal/pipeline"
)

// Runner defines the interface for a pipeline run.
type Runner interface {
	Run(ctx context.Context) (*domain.RunStats, error)
}

// Scheduler triggers runs on a cron schedule evaluated in UTC.
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	schedule string
	logger   *slog.Logger
	ctx      context.Context
}

func NewScheduler(runner Runner, schedule string, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		runner:   runner,
		schedule: schedule,
		logger:   logger.With("component", "scheduler"),
		ctx:      context.Background(),
	}

	if _, err := s.cron.AddFunc(schedule, s.runScheduled); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the schedule until ctx is cancelled, then waits for an
// in-flight run to return.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.schedule, "next_run", s.NextRun())

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

// NextRun reports when the job fires next; zero before Start.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) runScheduled() {
	start := time.Now()
	stats, err := s.runner.Run(s.ctx)
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		s.logger.Warn("scheduled run skipped, previous run still active")
	case err != nil:
		s.logger.Error("scheduled run failed", "error", err)
	default:
		s.logger.Info("scheduled run completed", "published", stats.Published(), "duration", time.Since(start))
	}
}
