package cache

// ScopedKeyer wraps a Keyer with a prefix so that several front ends can
// share one backing store without sharing entries.
//
// Example usage:
//
//	// Entries written by the HTTP API
//	apiKeyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
//
//	// Entries written by the CLI
//	cliKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(inputHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(inputHash, opts)
}

// MetricsKey generates a prefixed key for metric report caching.
func (k *ScopedKeyer) MetricsKey(inputHash string) string {
	return k.prefix + k.inner.MetricsKey(inputHash)
}
