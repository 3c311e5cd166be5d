// Package cache provides content-addressed caching for conversion results.
// Parsing a large skeleton and rebuilding its morphology is pure and
// deterministic, so a hit keyed on the input bytes and options is always
// valid; entries only expire to bound disk or redis usage.
//
// Backends: file (single-machine CLI use), redis (batch farms sharing one
// cache), null (caching disabled).
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry class.
const (
	// GraphTTL bounds cached parsed skeleton graphs.
	GraphTTL = 7 * 24 * time.Hour
	// MorphologyTTL bounds cached conversion results.
	MorphologyTTL = 30 * 24 * time.Hour
)

// Cache is the backend interface. Implementations must treat a miss as
// (nil, false, nil), reserving the error return for real backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// MorphKeyOpts are the conversion options that change the output and hence
// must take part in the cache key.
type MorphKeyOpts struct {
	Threshold float64
	Scale     float64
	Verbosity string
	Debug     bool
}

// Keyer derives cache keys from conversion inputs.
type Keyer interface {
	// GraphKey keys a parsed skeleton graph by the hash of its input
	// bytes (skeleton file plus any cross-section overrides).
	GraphKey(inputHash string) string

	// MorphologyKey keys a finished conversion by the input hash and
	// the options that shaped it.
	MorphologyKey(inputHash string, opts MorphKeyOpts) string
}

// DefaultKeyer hashes inputs into versioned, collision-resistant keys. Bump
// the version segments when the cached representation changes shape.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey generates a key for parsed skeleton graphs.
func (k *DefaultKeyer) GraphKey(inputHash string) string {
	return hashKey("graph:v1", inputHash)
}

// MorphologyKey generates a key for conversion results.
func (k *DefaultKeyer) MorphologyKey(inputHash string, opts MorphKeyOpts) string {
	return hashKey("morph:v1", inputHash, opts)
}

var _ Keyer = (*DefaultKeyer)(nil)
