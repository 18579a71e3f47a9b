package collector

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/qepting91/reddit-image-relay/internal/domain"
	"github.com/qepting91/reddit-image-relay/internal/metrics"
)

// ImageSuffixes are the URL endings accepted as images. Matching is case-sensitive.
var ImageSuffixes = []string{".jpg", ".png", ".jpeg"}

// Fetcher turns a community's hot listing into today's popular image URLs.
type Fetcher struct {
	collector domain.Collector
	now       func() time.Time
	logger    *slog.Logger
}

// NewFetcher wraps collector. A nil collector puts the fetcher in degraded
// mode where every call returns no images.
func NewFetcher(collector domain.Collector, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		collector: collector,
		now:       time.Now,
		logger:    logger.With("component", "fetcher"),
	}
}

// FetchImages never fails: errors are logged and reported as an empty result.
func (f *Fetcher) FetchImages(ctx context.Context, community string, threshold, limit int) []string {
	if f.collector == nil {
		f.logger.Debug("reddit client not initialized, skipping", "sub", community)
		return nil
	}

	posts, err := f.collector.FetchHotPosts(ctx, community, limit)
	if err != nil {
		metrics.FetchErrors.WithLabelValues(community).Inc()
		f.logger.Error("error fetching images", "sub", community, "error", err)
		return nil
	}

	images := FilterImages(posts, StartOfDay(f.now()), threshold)
	f.logger.Info("fetched images", "sub", community, "posts", len(posts), "images", len(images))
	return images
}

// FilterImages keeps the URLs of posts created at or after dayStart with a
// score of at least threshold and an image suffix.
func FilterImages(posts []domain.Post, dayStart time.Time, threshold int) []string {
	var images []string
	for _, p := range posts {
		if p.Created().Before(dayStart) || p.Score < threshold {
			continue
		}
		if !IsImageURL(p.URL) {
			continue
		}
		images = append(images, p.URL)
	}
	return images
}

func IsImageURL(url string) bool {
	for _, suffix := range ImageSuffixes {
		if strings.HasSuffix(url, suffix) {
			return true
		}
	}
	return false
}

// StartOfDay returns 00:00:00 UTC of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
