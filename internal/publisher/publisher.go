package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/qepting91/reddit-image-relay/internal/domain"
)

// ErrNotRetrievable is returned when the image URL does not answer with 200 OK.
var ErrNotRetrievable = errors.New("image not retrievable")

// ChannelSender delivers a photo, referenced by URL, to the broadcast channel.
type ChannelSender interface {
	SendPhoto(ctx context.Context, url, caption string) error
}

// Saver persists the posted image set.
type Saver interface {
	Save(images *domain.PostedImages) error
}

type Config struct {
	Timeout   time.Duration
	UserAgent string
}

type Publisher struct {
	httpClient *http.Client
	userAgent  string
	sender     ChannelSender
	store      Saver
	logger     *slog.Logger
}

func New(cfg Config, sender ChannelSender, store Saver, logger *slog.Logger) *Publisher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Publisher{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
		sender:     sender,
		store:      store,
		logger:     logger.With("component", "publisher"),
	}
}

// Publish checks that url is reachable, sends it to the channel and, only
// after a successful send, adds it to posted and persists the set.
// A failure to persist is logged and does not fail the publish.
func (p *Publisher) Publish(ctx context.Context, url, caption string, posted *domain.PostedImages) error {
	if err := p.checkRetrievable(ctx, url); err != nil {
		return err
	}

	if err := p.sender.SendPhoto(ctx, url, caption); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}

	posted.Add(url)
	if err := p.store.Save(posted); err != nil {
		p.logger.Error("posted image not persisted, keeping in memory", "url", url, "error", err)
	}

	p.logger.Info("successfully posted image", "url", url, "caption", caption)
	return nil
}

func (p *Publisher) checkRetrievable(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch image: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrNotRetrievable, resp.StatusCode)
	}
	return nil
}
