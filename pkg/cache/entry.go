package cache

import (
	"net/http"
	"time"
)

// CacheEntry is one cached Huddle GET response, typically a feed page wrapped
// in the {"data": ...} envelope. Entries are scoped to the principal that
// fetched them so one user's joined events are never served to another.
type CacheEntry struct {
	// Data is the raw response body, envelope included.
	Data []byte `json:"data"`

	// ETag is replayed as If-None-Match.
	ETag string `json:"etag"`

	// Expires is derived from Cache-Control max-age, Expires, or DefaultTTL.
	Expires time.Time `json:"expires"`

	// LastModified is replayed as If-Modified-Since when there is no ETag.
	LastModified time.Time `json:"last_modified"`

	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`

	// Principal is the user the response was fetched for, "" when anonymous.
	// Manager.Set stamps it from the CacheKey.
	Principal string `json:"principal,omitempty"`

	CachedAt time.Time `json:"cached_at"`
}

// IsExpired reports whether the entry is past Expires.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, 0 once expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Age returns how long ago the entry was cached.
func (e *CacheEntry) Age() time.Duration {
	if e.CachedAt.IsZero() {
		return 0
	}
	return time.Since(e.CachedAt)
}

// BelongsTo reports whether the entry may be served to principal.
func (e *CacheEntry) BelongsTo(principal string) bool {
	return e.Principal == principal
}
