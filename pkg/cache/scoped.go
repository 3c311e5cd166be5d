package cache

// ScopedKeyer wraps a Keyer with a prefix so independent projects or
// pipeline stages sharing one redis instance stay isolated.
//
// Example usage:
//
//	// per-project keys on a shared batch cache
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "proj:cortex-14:")
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

// GraphKey generates a prefixed key for parsed skeleton graphs.
func (k *ScopedKeyer) GraphKey(inputHash string) string {
	return k.prefix + k.inner.GraphKey(inputHash)
}

// MorphologyKey generates a prefixed key for conversion results.
func (k *ScopedKeyer) MorphologyKey(inputHash string, opts MorphKeyOpts) string {
	return k.prefix + k.inner.MorphologyKey(inputHash, opts)
}
