// Package metrics provides Prometheus instrumentation for the activity
// stream: open stream gauges, event throughput counters and publish latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// StreamsOpen tracks the current number of open activity streams, labeled
	// by transport: "sse" or "ws".
	StreamsOpen = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "huddle_streams_open",
		Help: "Current number of open activity streams",
	}, []string{"transport"})

	// EventsPublished counts activity events persisted, labeled by type.
	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_events_published_total",
		Help: "Total number of activity events published",
	}, []string{"type"})

	// EventsDelivered counts events handed to subscriber buffers.
	EventsDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "huddle_events_delivered_total",
		Help: "Total number of activity events delivered to subscribers",
	})

	// EventsDropped counts events dropped because a subscriber buffer was full.
	EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "huddle_events_dropped_total",
		Help: "Total number of activity events dropped for slow subscribers",
	})

	// PublishLatency records the time to persist and broadcast one event.
	PublishLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "huddle_publish_latency_seconds",
		Help:    "Activity publish latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	// HTTPRequests counts REST requests, labeled by route pattern and status.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_http_requests_total",
		Help: "Total number of REST API requests",
	}, []string{"route", "status"})
)

func init() {
	prometheus.MustRegister(
		StreamsOpen,
		EventsPublished,
		EventsDelivered,
		EventsDropped,
		PublishLatency,
		HTTPRequests,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
