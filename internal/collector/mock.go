package collector

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/qepting91/reddit-image-relay/internal/domain"
)

// MockClient implements domain.Collector but returns fake image posts
type MockClient struct {
	latency time.Duration
	now     func() time.Time
}

func NewMockClient() *MockClient {
	return &MockClient{latency: 500 * time.Millisecond, now: time.Now}
}

func (mc *MockClient) FetchHotPosts(ctx context.Context, sub string, limit int) ([]domain.Post, error) {
	// Simulate network latency
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(mc.latency):
	}

	exts := []string{".jpg", ".png", ".jpeg", ".gif"}
	created := float64(mc.now().Unix())

	posts := make([]domain.Post, 0, limit)
	for i := 0; i < limit; i++ {
		posts = append(posts, domain.Post{
			ID:           fmt.Sprintf("mock_%s_%d", sub, i),
			Title:        fmt.Sprintf("[%s] Simulated picture #%d", sub, i),
			Subreddit:    "r/" + sub,
			Author:       "simulated_user",
			URL:          fmt.Sprintf("https://picsum.photos/seed/%s-%d/800/600%s", sub, i, exts[i%len(exts)]),
			Score:        rand.Intn(2000),
			CommentCount: rand.Intn(50),
			CreatedUTC:   created,
		})
	}
	return posts, nil
}
