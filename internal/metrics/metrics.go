package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reaction pipeline metrics.
var (
	ReactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shittracker_reactions_total",
		Help: "Reaction events by pipeline outcome",
	}, []string{"outcome"})

	RateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shittracker_rate_limit_hits_total",
		Help: "Total rate limit rejections",
	})

	NoticesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shittracker_notices_total",
		Help: "Notices sent to Discord by kind and result",
	}, []string{"kind", "result"})

	HandlerPanics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shittracker_handler_panics_total",
		Help: "Panics recovered at the event handler boundary",
	})
)

// Text improvement metrics.
var (
	ImprovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shittracker_improvements_total",
		Help: "Text improvement requests by result",
	}, []string{"result"})

	ImprovementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shittracker_improvement_duration_seconds",
		Help:    "LLM improvement call duration in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
	})
)
