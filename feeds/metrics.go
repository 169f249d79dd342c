package feeds

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	feedPagesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swipefeed_feed_pages_total",
		Help: "The total number of feed pages served, by source",
	}, []string{"source"})

	feedFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swipefeed_feed_fetch_errors_total",
		Help: "The total number of feed page fetches that failed",
	})

	feedFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swipefeed_feed_fallbacks_total",
		Help: "The number of times the fallback query served a page because the ranking procedure was unavailable",
	})

	feedInvalidRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swipefeed_feed_invalid_records_total",
		Help: "The number of candidate records that failed validation",
	})

	feedFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swipefeed_feed_fetch_duration_seconds",
		Help:    "Duration of feed page fetches",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // Start at 5ms, double each bucket, 10 buckets
	})

	interactionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swipefeed_interactions_total",
		Help: "The number of swipe interactions recorded, by kind and result",
	}, []string{"kind", "result"})

	activityBumps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swipefeed_activity_bumps_total",
		Help: "Activity signals by result: ok, failed or dropped",
	}, []string{"result"})
)
