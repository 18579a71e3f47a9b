package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"github.com/qepting91/reddit-image-relay/internal/domain"
)

const (
	dateLayout = "2006-01-02"
	filePerm   = 0o644
)

// record is the on-disk layout of the posted images file.
type record struct {
	Images []string `json:"images"`
	Date   string   `json:"date"`
}

// DedupeStore keeps the set of image URLs posted during the current UTC day
// in a single JSON file.
type DedupeStore struct {
	path   string
	now    func() time.Time
	logger *slog.Logger
	mu     sync.Mutex
}

type Option func(*DedupeStore)

// WithClock overrides the time source used to derive the current UTC date.
func WithClock(now func() time.Time) Option {
	return func(s *DedupeStore) { s.now = now }
}

func NewDedupeStore(path string, logger *slog.Logger, opts ...Option) *DedupeStore {
	s := &DedupeStore{
		path:   path,
		now:    time.Now,
		logger: logger.With("component", "dedupe_store", "path", path),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the persisted URLs and the date they were saved on.
// Any failure yields an empty set and an empty date.
func (s *DedupeStore) Load() (*domain.PostedImages, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("posted images file not found")
		return domain.NewPostedImages(), ""
	}
	if err != nil {
		s.logger.Error("failed to read posted images file", "error", err)
		return domain.NewPostedImages(), ""
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Error("failed to parse posted images file", "error", err)
		return domain.NewPostedImages(), ""
	}

	return domain.NewPostedImages(rec.Images...), rec.Date
}

// Save overwrites the file with images and today's UTC date. The previous
// file survives a failed or interrupted write. An existing file keeps its mode.
func (s *DedupeStore) Save(images *domain.PostedImages) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := record{
		Images: images.URLs(),
		Date:   s.today(),
	}
	if err := s.write(rec); err != nil {
		s.logger.Error("failed to save posted images", "error", err)
		return err
	}
	return nil
}

// ResetIfNewDay returns the stored set, clearing it first when it was saved
// on a different UTC date.
func (s *DedupeStore) ResetIfNewDay() *domain.PostedImages {
	images, date := s.Load()
	today := s.today()
	if date == today {
		return images
	}

	s.logger.Info("new day detected, clearing posted images", "stored_date", date, "today", today)
	empty := domain.NewPostedImages()
	_ = s.Save(empty)
	return empty
}

func (s *DedupeStore) today() string {
	return s.now().UTC().Format(dateLayout)
}

func (s *DedupeStore) write(rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	// Temp file lives next to the target so the rename never crosses mounts.
	if err := renameio.WriteFile(s.path, data, filePerm, renameio.WithTempDir(filepath.Dir(s.path))); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
