package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedFetches counts page fetches by feed, kind (initial, refresh, load_more, page) and outcome.
	FeedFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_feed_fetches_total",
			Help: "Total number of feed page fetches",
		},
		[]string{"feed", "kind", "outcome"}, // outcome: "ok", "empty", "error", "superseded"
	)

	// FeedFetchDuration observes page fetch latency by feed.
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "huddle_feed_fetch_duration_seconds",
			Help:    "Feed page fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"feed"},
	)

	// LoadMoreSkipped counts load-more calls that did not fetch.
	LoadMoreSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_feed_load_more_skipped_total",
			Help: "Total number of load-more calls skipped",
		},
		[]string{"feed", "reason"}, // "in_flight", "last_page"
	)

	// BatchPagesFetched counts pages fetched by BatchFetcher.
	BatchPagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_batch_pages_fetched_total",
			Help: "Total number of pages fetched by batch fetchers",
		},
		[]string{"outcome"},
	)
)
