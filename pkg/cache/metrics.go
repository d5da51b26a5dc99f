package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_cache_hits_total",
			Help: "Total number of API response cache hits",
		},
		[]string{"layer"}, // "redis"
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huddle_cache_misses_total",
			Help: "Total number of API response cache misses",
		},
	)

	// CacheSize tracks bytes written to the cache by layer
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "huddle_cache_size_bytes",
			Help: "Bytes written to the API response cache",
		},
		[]string{"layer"},
	)

	// ConditionalRequestsSent tracks requests sent with If-None-Match / If-Modified-Since
	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huddle_conditional_requests_total",
			Help: "Total number of conditional requests sent",
		},
	)

	// NotModifiedResponses tracks 304 Not Modified responses
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huddle_304_responses_total",
			Help: "Total number of 304 Not Modified responses",
		},
	)

	// CacheInvalidations tracks keys removed after mutating requests
	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huddle_cache_invalidations_total",
			Help: "Total number of cache keys invalidated",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "invalidate"
	)
)
