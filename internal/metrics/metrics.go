package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Runs = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "relay_runs_total",
	Help: "Number of pipeline runs by result",
}, []string{"result"})

var ImagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "relay_images_published_total",
	Help: "Number of images delivered to the channel",
}, []string{"community"})

var ImagesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "relay_images_failed_total",
	Help: "Number of candidate images that could not be delivered",
}, []string{"community"})

var FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "relay_fetch_errors_total",
	Help: "Number of failed community listings",
}, []string{"community"})

var PostedToday = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "relay_posted_today",
	Help: "Number of images recorded in the dedupe store for the current UTC day",
})
