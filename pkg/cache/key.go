package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every cache key in Redis.
const KeyPrefix = "huddle"

// CacheKey represents a unique identifier for a cached API response.
type CacheKey struct {
	// Endpoint is the API path (e.g., "/events/joined")
	Endpoint string

	// QueryParams are the query parameters (e.g., {"page": "0", "size": "10"})
	QueryParams url.Values

	// Principal identifies the authenticated user the response belongs to ("" for anonymous)
	Principal string
}

// String generates a deterministic cache key string.
// Format: huddle:endpoint:query1=val1:query2=val2:user=abc
//
// Example:
//
//	huddle:events/joined:page=0:size=10:user=3f2a9c
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Query params sorted for determinism, multi-values joined in order
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(k.QueryParams[key], ",")))
		}
	}

	if k.Principal != "" {
		parts = append(parts, "user="+k.Principal)
	}

	return strings.Join(parts, ":")
}

// EndpointPattern returns a Redis MATCH pattern covering every cached
// response under the given endpoint prefix.
func EndpointPattern(endpointPrefix string) string {
	endpoint := strings.Trim(endpointPrefix, "/")
	if endpoint == "" {
		return KeyPrefix + ":*"
	}
	return KeyPrefix + ":" + endpoint + "*"
}
