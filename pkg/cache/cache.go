// Package cache stores pipeline results keyed by a hash of their inputs.
//
// Three implementations share the [Cache] interface: [NullCache] disables
// caching, [FileCache] keeps entries under a local directory for the CLI and
// [RedisCache] serves the HTTP API when several instances share results.
// Keys are produced by a [Keyer] so that callers never assemble key strings
// themselves.
package cache

import (
	"context"
	"strings"
	"time"
)

// TTLs for cached pipeline results.
const (
	// TTLLayout is how long a computed layout stays cached. Layout inputs
	// are content-addressed, so entries never go stale; the TTL only
	// bounds storage.
	TTLLayout = 7 * 24 * time.Hour

	// TTLMetrics is how long a metric report for a stored layout stays cached.
	TTLMetrics = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiration.
type Cache interface {
	// Get returns the stored data and whether the key was present.
	// A missing or expired key is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl stores without expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying resources.
	Close() error
}

// Keyer derives cache keys for pipeline results.
type Keyer interface {
	// LayoutKey keys a full layout run over the inputs hashed to inputHash.
	LayoutKey(inputHash string, opts LayoutKeyOpts) string

	// MetricsKey keys the metric report of the inputs hashed to inputHash.
	MetricsKey(inputHash string) string
}

// LayoutKeyOpts holds the run options that change a layout result.
type LayoutKeyOpts struct {
	ConfigHash         string `json:"config_hash"`
	CreateNewGraph     bool   `json:"create_new_graph"`
	Group              bool   `json:"group"`
	GeneralizationOnly bool   `json:"generalization_only"`
}

// DefaultKeyer builds "<kind>:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(inputHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", inputHash, opts)
}

// MetricsKey implements [Keyer].
func (DefaultKeyer) MetricsKey(inputHash string) string {
	return hashKey("metrics", inputHash)
}

// KeyType returns the kind prefix of a key produced by [DefaultKeyer],
// ignoring any scope prefix. It labels cache hook events.
func KeyType(key string) string {
	end := strings.LastIndexByte(key, ':')
	if end < 0 {
		return "unknown"
	}
	return key[strings.LastIndexByte(key[:end], ':')+1 : end]
}
