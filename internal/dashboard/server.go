package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qepting91/reddit-image-relay/internal/domain"
)

// StatsSource exposes the most recent run.
type StatsSource interface {
	LastRun() *domain.RunStats
}

// PostedSource exposes today's dedupe record.
type PostedSource interface {
	Load() (*domain.PostedImages, string)
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewHandler serves the status page on / and Prometheus metrics on /metrics.
func NewHandler(stats StatsSource, posted PostedSource, handlerOpts ...Option) http.Handler {
	o := options{now: time.Now}
	for _, opt := range handlerOpts {
		opt(&o)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		page := components.NewPage()
		page.PageTitle = "reddit-image-relay"
		today := o.now().UTC().Format("2006-01-02")
		page.AddCharts(lastRunChart(stats.LastRun()), postedChart(posted, today))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := page.Render(w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return mux
}

// Serve runs the dashboard on addr until ctx is done, then shuts it down.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// 1. Last run per community
func lastRunChart(run *domain.RunStats) *charts.Bar {
	bar := charts.NewBar()
	title := opts.Title{Title: "Last Run", Subtitle: "no run yet"}
	if run != nil {
		title.Subtitle = run.StartedAt.Format("2006-01-02 15:04:05 MST")
	}
	bar.SetGlobalOptions(
		charts.WithTitleOpts(title),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)

	var names []string
	var candidates, duplicates, published, failed []opts.BarData
	if run != nil {
		for _, c := range run.Communities {
			names = append(names, "r/"+c.Community)
			candidates = append(candidates, opts.BarData{Value: c.Candidates})
			duplicates = append(duplicates, opts.BarData{Value: c.Duplicates})
			published = append(published, opts.BarData{Value: c.Published})
			failed = append(failed, opts.BarData{Value: c.Failed})
		}
	}

	bar.SetXAxis(names).
		AddSeries("Candidates", candidates).
		AddSeries("Duplicates", duplicates).
		AddSeries("Published", published).
		AddSeries("Failed", failed)
	return bar
}

// 2. Today's posts by image host. A record from an earlier day counts as empty
// until the next run resets it.
func postedChart(posted PostedSource, today string) *charts.Pie {
	images, date := posted.Load()
	if date != today {
		images = domain.NewPostedImages()
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Posted Today", Subtitle: today}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)

	hostCounts := make(map[string]int)
	for _, u := range images.URLs() {
		host := "unknown"
		if parsed, err := url.Parse(u); err == nil && parsed.Host != "" {
			host = parsed.Host
		}
		hostCounts[host]++
	}

	hosts := make([]string, 0, len(hostCounts))
	for h := range hostCounts {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	pieItems := make([]opts.PieData, 0, len(hosts))
	for _, h := range hosts {
		pieItems = append(pieItems, opts.PieData{Name: h, Value: hostCounts[h]})
	}
	pie.AddSeries("Images", pieItems)
	return pie
}
