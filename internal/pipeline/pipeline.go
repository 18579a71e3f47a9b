package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/qepting91/reddit-image-relay/internal/domain"
	"github.com/qepting91/reddit-image-relay/internal/metrics"
)

// ErrRunInProgress is returned by Run while another run holds the store.
var ErrRunInProgress = errors.New("a run is already in progress")

type Config struct {
	Targets   []domain.Target
	Threshold int
	Limit     int
}

type Service struct {
	fetcher   Fetcher
	store     DedupeStore
	publisher Publisher
	cfg       Config
	logger    *slog.Logger

	running sync.Mutex

	mu      sync.RWMutex
	lastRun *domain.RunStats
}

func NewService(fetcher Fetcher, store DedupeStore, publisher Publisher, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		fetcher:   fetcher,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With("component", "pipeline"),
	}
}

// Run pulls every target in order and publishes the images not yet posted
// today. Only one run executes at a time; a concurrent call returns
// ErrRunInProgress without touching the store.
func (s *Service) Run(ctx context.Context) (*domain.RunStats, error) {
	if !s.running.TryLock() {
		metrics.Runs.WithLabelValues("skipped").Inc()
		s.logger.Warn("run requested while another is in progress")
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()

	stats := &domain.RunStats{StartedAt: time.Now().UTC()}
	s.logger.Info("starting run", "targets", len(s.cfg.Targets), "threshold", s.cfg.Threshold, "limit", s.cfg.Limit)

	posted := s.store.ResetIfNewDay()

	var err error
	for _, target := range s.cfg.Targets {
		if err = ctx.Err(); err != nil {
			break
		}
		cs, cerr := s.runTarget(ctx, target, posted)
		stats.Communities = append(stats.Communities, cs)
		if cerr != nil {
			err = cerr
			break
		}
	}

	stats.Duration = time.Since(stats.StartedAt)
	metrics.PostedToday.Set(float64(posted.Len()))
	s.setLastRun(stats)

	if err != nil {
		metrics.Runs.WithLabelValues("cancelled").Inc()
		s.logger.Warn("run interrupted", "error", err, "published", stats.Published())
		return stats, fmt.Errorf("run interrupted: %w", err)
	}

	metrics.Runs.WithLabelValues("completed").Inc()
	s.logger.Info("run completed",
		"published", stats.Published(),
		"posted_today", posted.Len(),
		"duration", stats.Duration,
	)
	return stats, nil
}

// LastRun returns the stats of the most recent run, or nil before the first one.
func (s *Service) LastRun() *domain.RunStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

func (s *Service) runTarget(ctx context.Context, target domain.Target, posted *domain.PostedImages) (domain.CommunityStats, error) {
	cs := domain.CommunityStats{Community: target.Subreddit}

	threshold := s.cfg.Threshold
	if target.MinScore > 0 {
		threshold = target.MinScore
	}

	images := s.fetcher.FetchImages(ctx, target.Subreddit, threshold, s.cfg.Limit)
	cs.Candidates = len(images)
	caption := Caption(target.Subreddit)

	for _, url := range images {
		if err := ctx.Err(); err != nil {
			return cs, err
		}
		if posted.Contains(url) {
			cs.Duplicates++
			continue
		}

		if err := s.publisher.Publish(ctx, url, caption, posted); err != nil {
			cs.Failed++
			metrics.ImagesFailed.WithLabelValues(target.Subreddit).Inc()
			s.logger.Warn("failed to publish image", "sub", target.Subreddit, "url", url, "error", err)
			continue
		}

		cs.Published++
		metrics.ImagesPublished.WithLabelValues(target.Subreddit).Inc()
	}

	return cs, nil
}

func (s *Service) setLastRun(stats *domain.RunStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = stats
}

// Caption names the community an image was taken from.
func Caption(community string) string {
	return "From r/" + community
}
