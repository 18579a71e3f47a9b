package collector

import (
	"fmt"

	"github.com/qepting91/reddit-image-relay/internal/config"
	"github.com/qepting91/reddit-image-relay/internal/domain"
)

// NewCollector selects the correct implementation based on the configured mode
func NewCollector(cfg config.RedditConfig) (domain.Collector, error) {
	switch cfg.Mode {
	case "api":
		return NewAPIClient(
			cfg.ClientID,
			cfg.ClientSecret,
			cfg.Username,
			cfg.Password,
			cfg.UserAgent,
		)
	case "public":
		return NewPublicClient(cfg.UserAgent)
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'api', 'public', or 'mock')", cfg.Mode)
	}
}
