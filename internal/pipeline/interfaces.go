package pipeline

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/qepting91/reddit-image-relay/internal/domain"
)

type Fetcher interface {
	FetchImages(ctx context.Context, community string, threshold, limit int) []string
}

type DedupeStore interface {
	ResetIfNewDay() *domain.PostedImages
}

type Publisher interface {
	Publish(ctx context.Context, url, caption string, posted *domain.PostedImages) error
}
