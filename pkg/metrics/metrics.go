// Package metrics exposes the Prometheus metrics of the Huddle client.
// Metrics are defined in their own packages (client, cache, ratelimit,
// pagination, store) and registered via promauto; this package serves them.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the registerer every huddle_* metric is registered with.
var Registry = prometheus.DefaultRegisterer

// NewMux returns a mux serving /metrics and /health.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// Serve runs the metrics endpoint on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		return nil
	}
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - huddle_rate_limit_remaining (Gauge): Requests left in the server's window
//   - huddle_rate_limit_blocks_total (Counter): Requests blocked at the critical threshold
//   - huddle_rate_limit_throttles_total (Counter): Requests delayed at the warning threshold
//
// Cache Metrics (pkg/cache):
//   - huddle_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - huddle_cache_misses_total (Counter): Cache misses
//   - huddle_cache_size_bytes{layer="redis"} (Gauge): Bytes written to the cache
//   - huddle_conditional_requests_total (Counter): Requests sent with If-None-Match
//   - huddle_304_responses_total (Counter): 304 Not Modified responses
//   - huddle_cache_invalidations_total (Counter): Entries dropped after writes
//   - huddle_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - huddle_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - huddle_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - huddle_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - huddle_retries_total{error_class} (Counter): Retry attempts
//   - huddle_retry_backoff_seconds{error_class} (Histogram): Backoff durations
//   - huddle_retry_exhausted_total{error_class} (Counter): Requests that ran out of attempts
//
// Feed Metrics (pkg/pagination):
//   - huddle_feed_fetches_total{feed, kind, outcome} (Counter): Page fetches
//   - huddle_feed_fetch_duration_seconds{feed} (Histogram): Page fetch latency
//   - huddle_feed_load_more_skipped_total{feed, reason} (Counter): Load-more calls that did not fetch
//   - huddle_batch_pages_fetched_total{outcome} (Counter): Pages fetched by batch fetchers
//
// Store Metrics (pkg/store):
//   - huddle_store_actions_total{action} (Counter): Dispatched actions
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(huddle_cache_hits_total[5m])) /
//   (sum(rate(huddle_cache_hits_total[5m])) + sum(rate(huddle_cache_misses_total[5m])))
//
//   # Feed error rate
//   sum(rate(huddle_feed_fetches_total{outcome="error"}[5m])) by (feed)
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(huddle_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(huddle_304_responses_total[5m]) / rate(huddle_requests_total[5m])
