package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/reddit-image-relay/internal/config"
)

func TestNewCollector(t *testing.T) {
	c, err := NewCollector(config.RedditConfig{Mode: "mock"})
	require.NoError(t, err)
	assert.IsType(t, &MockClient{}, c)

	c, err = NewCollector(config.RedditConfig{Mode: "public", UserAgent: "relay/1.0"})
	require.NoError(t, err)
	assert.IsType(t, &PublicClient{}, c)

	_, err = NewCollector(config.RedditConfig{Mode: "api"})
	assert.Error(t, err, "api mode without credentials")

	_, err = NewCollector(config.RedditConfig{Mode: "scrape"})
	assert.Error(t, err)
}

func TestMockClient_FetchHotPosts(t *testing.T) {
	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	mc := &MockClient{now: func() time.Time { return now }}

	posts, err := mc.FetchHotPosts(context.Background(), "Art", 8)
	require.NoError(t, err)
	require.Len(t, posts, 8)

	images := FilterImages(posts, StartOfDay(now), 0)
	assert.Len(t, images, 6, "every fourth mock post is a gif")
}

func TestMockClient_Cancelled(t *testing.T) {
	mc := NewMockClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mc.FetchHotPosts(ctx, "Art", 3)
	assert.ErrorIs(t, err, context.Canceled)
}
