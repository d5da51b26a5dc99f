// Package cache provides Huddle API response caching with a Redis backend.
//
// The client only caches GET responses. Feed pages are short-lived, so the
// cache is mostly a vehicle for conditional requests: a cached ETag lets the
// backend answer 304 Not Modified and the page is served from Redis.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Endpoint:    "/events",
//		QueryParams: url.Values{"page": []string{"0"}, "size": []string{"10"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API
//	}
//
// # Conditional Requests
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//	}
//
// # Invalidation
//
// Mutations (join, leave, create, delete) make cached feed pages wrong.
// Invalidate drops every key under an endpoint prefix:
//
//	removed, err := manager.Invalidate(ctx, "/events")
//
// # Metrics
//
//   - huddle_cache_hits_total{layer="redis"}
//   - huddle_cache_misses_total
//   - huddle_cache_size_bytes{layer="redis"}
//   - huddle_conditional_requests_total
//   - huddle_304_responses_total
//   - huddle_cache_invalidations_total
//   - huddle_cache_errors_total{operation}
package cache
