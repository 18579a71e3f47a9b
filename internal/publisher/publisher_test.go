package publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/reddit-image-relay/internal/domain"
)

type fakeSender struct {
	err   error
	sent  []string
	saver *fakeSaver
}

func (f *fakeSender) SendPhoto(_ context.Context, url, caption string) error {
	if f.saver != nil && f.saver.calls > 0 {
		return errors.New("store updated before send")
	}
	f.sent = append(f.sent, url+"|"+caption)
	return f.err
}

type fakeSaver struct {
	err   error
	calls int
	last  []string
}

func (f *fakeSaver) Save(images *domain.PostedImages) error {
	f.calls++
	f.last = images.URLs()
	return f.err
}

func newTestPublisher(sender ChannelSender, saver Saver) *Publisher {
	return New(Config{Timeout: 2 * time.Second, UserAgent: "relay-test"}, sender, saver,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func imageServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "relay-test", r.Header.Get("User-Agent"))
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPublish_Success(t *testing.T) {
	srv := imageServer(t, http.StatusOK)
	url := srv.URL + "/a.jpg"
	saver := &fakeSaver{}
	sender := &fakeSender{saver: saver}
	posted := domain.NewPostedImages("https://x/earlier.jpg")

	err := newTestPublisher(sender, saver).Publish(context.Background(), url, "From r/Art", posted)

	require.NoError(t, err)
	assert.Equal(t, []string{url + "|From r/Art"}, sender.sent)
	assert.True(t, posted.Contains(url))
	assert.Equal(t, 1, saver.calls)
	assert.Equal(t, []string{"https://x/earlier.jpg", url}, saver.last)
}

func TestPublish_NotRetrievable(t *testing.T) {
	srv := imageServer(t, http.StatusNotFound)
	url := srv.URL + "/gone.jpg"
	saver := &fakeSaver{}
	sender := &fakeSender{}
	posted := domain.NewPostedImages()

	err := newTestPublisher(sender, saver).Publish(context.Background(), url, "From r/Art", posted)

	assert.ErrorIs(t, err, ErrNotRetrievable)
	assert.Empty(t, sender.sent, "channel send must not be attempted")
	assert.Equal(t, 0, posted.Len())
	assert.Equal(t, 0, saver.calls)
}

func TestPublish_TransportError(t *testing.T) {
	srv := imageServer(t, http.StatusOK)
	url := srv.URL + "/a.jpg"
	srv.Close()
	saver := &fakeSaver{}
	sender := &fakeSender{}
	posted := domain.NewPostedImages()

	err := newTestPublisher(sender, saver).Publish(context.Background(), url, "From r/Art", posted)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotRetrievable)
	assert.Empty(t, sender.sent)
	assert.Equal(t, 0, posted.Len())
}

func TestPublish_SendFailure(t *testing.T) {
	srv := imageServer(t, http.StatusOK)
	url := srv.URL + "/a.jpg"
	saver := &fakeSaver{}
	sender := &fakeSender{err: errors.New("Bad Request: wrong file identifier")}
	posted := domain.NewPostedImages()

	err := newTestPublisher(sender, saver).Publish(context.Background(), url, "From r/Art", posted)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "send photo")
	assert.False(t, posted.Contains(url))
	assert.Equal(t, 0, saver.calls)
}

func TestPublish_SaveFailureIsNotFatal(t *testing.T) {
	srv := imageServer(t, http.StatusOK)
	url := srv.URL + "/a.jpg"
	saver := &fakeSaver{err: errors.New("disk full")}
	sender := &fakeSender{}
	posted := domain.NewPostedImages()

	err := newTestPublisher(sender, saver).Publish(context.Background(), url, "From r/Art", posted)

	require.NoError(t, err)
	assert.True(t, posted.Contains(url), "in-memory set keeps the delivered url")
}

func TestPublish_SlowImageHostTimesOut(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	p := New(Config{Timeout: 50 * time.Millisecond}, &fakeSender{}, &fakeSaver{},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := p.Publish(context.Background(), srv.URL+"/slow.jpg", "From r/Art", domain.NewPostedImages())
	assert.Error(t, err)
}
