package discovery

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	discoverRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devprep_discovery_requests_total",
		Help: "Discovery calls by outcome.",
	}, []string{"outcome"})

	discoverDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "devprep_discovery_duration_seconds",
		Help:    "End-to-end duration of discovery calls.",
		Buckets: prometheus.DefBuckets,
	})
)

func observeDiscover(outcome string, elapsed time.Duration) {
	discoverRequests.WithLabelValues(outcome).Inc()
	discoverDuration.Observe(elapsed.Seconds())
}
