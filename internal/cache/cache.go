// Package cache provides the result cache: an LRU of recent search results
// keyed so that a cache hit is only possible against the exact index
// instance that produced it. Because the key embeds the library's
// generation counter, no explicit eviction-on-write logic is needed — a
// reindex or invalidating mutation simply changes the generation, and every
// key built against the old generation becomes unreachable.
package cache

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Key identifies a cached search result set.
type Key struct {
	LibraryID         string
	Generation        uint64
	QueryFingerprint  string
	K                 int
	FilterFingerprint string
}

func (k Key) string() string {
	return fmt.Sprintf("%s|%d|%s|%d|%s", k.LibraryID, k.Generation, k.QueryFingerprint, k.K, k.FilterFingerprint)
}

// QueryFingerprint builds a stable fingerprint for a query vector.
func QueryFingerprint(vector []float64) string {
	var b strings.Builder
	for _, v := range vector {
		fmt.Fprintf(&b, "%.9f,", v)
	}
	return b.String()
}

// FilterFingerprint builds a stable fingerprint for metadata filters plus an
// optional similarity threshold, independent of map iteration order.
func FilterFingerprint(filters map[string]string, threshold *float64) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s;", k, filters[k])
	}
	if threshold != nil {
		fmt.Fprintf(&b, "threshold=%.6f", *threshold)
	}
	return b.String()
}

// ResultCache is an LRU of recent search results. Value is left as `any` so
// internal/search can cache its own result type without this package
// depending on it.
type ResultCache struct {
	lru *lru.Cache[string, any]
}

// New returns a ResultCache with the given capacity. A capacity <= 0
// disables caching: Get always misses and Put is a no-op, so callers never
// need to branch on whether caching is enabled.
func New(capacity int) (*ResultCache, error) {
	if capacity <= 0 {
		return &ResultCache{}, nil
	}
	c, err := lru.New[string, any](capacity)
	if err != nil {
		return nil, err
	}
	return &ResultCache{lru: c}, nil
}

// Get returns the cached value for key, if present.
func (c *ResultCache) Get(key Key) (any, bool) {
	if c == nil || c.lru == nil {
		return nil, false
	}
	return c.lru.Get(key.string())
}

// Put stores value under key.
func (c *ResultCache) Put(key Key, value any) {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Add(key.string(), value)
}

// Enabled reports whether this cache actually stores anything.
func (c *ResultCache) Enabled() bool {
	return c != nil && c.lru != nil
}
