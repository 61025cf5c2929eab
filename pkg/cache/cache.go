// Package cache provides caching primitives for layout results and scores.
//
// The Cache interface abstracts the storage backend: a file cache for CLI
// usage, Redis for the API server, and a null cache for tests or when
// caching is disabled. The Keyer interface generates stable cache keys from
// score content and layout options, so identical inputs always hit the same
// entry regardless of entry point.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry class.
const (
	// TTLScore is how long parsed scores stay cached.
	TTLScore = 24 * time.Hour

	// TTLLayout is how long computed layouts stay cached. Layouts are pure
	// functions of score + config, so entries never go stale; the TTL only
	// bounds storage.
	TTLLayout = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts carries the configuration that differentiates layout cache
// entries for the same score.
type LayoutKeyOpts struct {
	MaxSystemWidth float64 `json:"max_system_width"`
	UnitsPerSpace  float64 `json:"units_per_space"`
	SystemSpacing  float64 `json:"system_spacing"`
	SystemHeight   float64 `json:"system_height"`
	StretchToFill  bool    `json:"stretch_to_fill"`
	BaseSpacing    float64 `json:"base_spacing"`
	DurationFactor float64 `json:"duration_factor"`
	MinimumSpacing float64 `json:"minimum_spacing"`
}

// Keyer generates cache keys. Implementations must be deterministic: the
// same inputs always produce the same key.
type Keyer interface {
	// ScoreKey generates a key for a stored score document.
	ScoreKey(scoreID string) string

	// LayoutKey generates a key for a computed layout, derived from the
	// score content hash and the layout options.
	LayoutKey(scoreHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer is the standard key scheme: a class prefix plus a SHA-256
// hash of the key components.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ScoreKey generates a key for a stored score document.
func (k *DefaultKeyer) ScoreKey(scoreID string) string {
	return hashKey("score", scoreID)
}

// LayoutKey generates a key for a computed layout.
func (k *DefaultKeyer) LayoutKey(scoreHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", scoreHash, opts)
}
