package httpapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	analyses        *prometheus.CounterVec
	duration        prometheus.Histogram
	edgeScore       prometheus.Histogram
	brightnessScore prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	scoreBuckets := prometheus.LinearBuckets(10, 10, 9)
	m := &metrics{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leaf_analyses_total",
			Help: "Analysis requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "leaf_analysis_duration_seconds",
			Help:    "Wall time of successful analyses, including decode and encode.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		edgeScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "leaf_edge_score",
			Help:    "Distribution of reported edge scores.",
			Buckets: scoreBuckets,
		}),
		brightnessScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "leaf_brightness_score",
			Help:    "Distribution of reported brightness scores.",
			Buckets: scoreBuckets,
		}),
	}
	reg.MustRegister(m.analyses, m.duration, m.edgeScore, m.brightnessScore)
	return m
}

// observe counts one request; d is recorded only for successful analyses.
func (m *metrics) observe(outcome string, d time.Duration) {
	m.analyses.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.duration.Observe(d.Seconds())
	}
}
