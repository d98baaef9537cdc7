// Package cache provides the short-lived response cache used by the payout
// query engine. Entries are TTL-bounded and lazily evicted; expired entries
// remain readable through GetStale so the engine can serve a labeled stale
// payload when the upstream is down.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Store is the cache capability injected into the query engine. Implementations
// must be safe for concurrent use; a single entry's Get/Set is atomic.
type Store interface {
	// Get returns the entry for key, or a miss if absent or expired.
	// Reading an expired entry evicts it (lazy eviction).
	Get(ctx context.Context, key string) ([]byte, bool)
	// GetStale returns the entry for key even past its expiry, without
	// evicting. Used only for the degraded fallback path; callers must
	// label the response as stale.
	GetStale(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key. A ttl <= 0 stores a non-expiring entry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Delete removes the entry for key, if any.
	Delete(ctx context.Context, key string)
	// Clear removes all entries.
	Clear(ctx context.Context)
}

// BuildKey derives the deterministic cache key for a query: tenant, logical
// route, and the full normalized parameter set. Parameter order must not
// affect the key, so pairs are sorted before hashing. Keys and values are
// escaped so a value containing "&" or "=" cannot masquerade as extra pairs.
func BuildKey(tenant, route string, params map[string]string) string {
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(v))
	}
	sort.Strings(pairs)

	h := sha256.New()
	h.Write([]byte(tenant))
	h.Write([]byte{0})
	h.Write([]byte(route))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(h.Sum(nil))
}
