package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/reddit-image-relay/internal/domain"
)

type fakeStats struct{ run *domain.RunStats }

func (f fakeStats) LastRun() *domain.RunStats { return f.run }

type fakePosted struct {
	images *domain.PostedImages
	date   string
}

func (f fakePosted) Load() (*domain.PostedImages, string) { return f.images, f.date }

func clockAt(value string) func() time.Time {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return ts }
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatusPage(t *testing.T) {
	run := &domain.RunStats{
		StartedAt: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		Communities: []domain.CommunityStats{
			{Community: "EarthPorn", Candidates: 4, Duplicates: 1, Published: 3},
			{Community: "spaceporn", Candidates: 2, Failed: 2},
		},
	}
	posted := fakePosted{
		images: domain.NewPostedImages("https://i.redd.it/a.jpg", "https://i.imgur.com/b.png"),
		date:   "2024-01-02",
	}

	rec := get(t, NewHandler(fakeStats{run: run}, posted, WithClock(clockAt("2024-01-02T18:00:00Z"))), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "r/EarthPorn")
	assert.Contains(t, body, "r/spaceporn")
	assert.Contains(t, body, "i.redd.it")
	assert.Contains(t, body, "i.imgur.com")
	assert.Contains(t, body, "2024-01-02")
}

func TestStatusPage_YesterdaysRecordIsNotShown(t *testing.T) {
	posted := fakePosted{
		images: domain.NewPostedImages("https://i.redd.it/a.jpg"),
		date:   "2024-01-02",
	}

	rec := get(t, NewHandler(fakeStats{}, posted, WithClock(clockAt("2024-01-03T00:05:00Z"))), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "i.redd.it")
	assert.Contains(t, body, "2024-01-03")
}

func TestServe_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", NewHandler(fakeStats{}, fakePosted{images: domain.NewPostedImages()}))
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServe_BindFailure(t *testing.T) {
	err := Serve(context.Background(), "256.0.0.1:bad", http.NotFoundHandler())
	assert.Error(t, err)
}

func TestStatusPage_BeforeFirstRun(t *testing.T) {
	rec := get(t, NewHandler(fakeStats{}, fakePosted{images: domain.NewPostedImages()}), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "no run yet")
}

func TestUnknownPath(t *testing.T) {
	rec := get(t, NewHandler(fakeStats{}, fakePosted{images: domain.NewPostedImages()}), "/favicon.ico")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, NewHandler(fakeStats{}, fakePosted{images: domain.NewPostedImages()}), "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
