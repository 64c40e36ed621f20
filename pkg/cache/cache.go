// Package cache stores what bricklayers needs to remember between runs.
//
// Three kinds of entries are kept, all keyed by content hashes so that a
// file is recognised by what it contains rather than where it lives:
//
//   - output: the rewritten G-code for an input hash and a set of options,
//     so re-running the same slicer export is instant.
//   - marker: a small JSON record written for every output the tool
//     produced. Finding one for a file means the file was already
//     processed, and processing it again would shift the walls twice.
//   - original: the input bytes, stored under the output hash, so that
//     `bricklayers restore` can put the slicer's file back.
//
// # Backends
//
// [FileCache] stores entries as files below a directory (the CLI uses
// $XDG_CACHE_HOME/bricklayers). [NullCache] stores nothing and is used with
// --no-cache and in tests.
//
// # Keys
//
// A [Keyer] turns hashes and options into keys. [DefaultKeyer] hashes its
// inputs; [ScopedKeyer] adds a prefix so entries written by an incompatible
// version of the tool are never read back.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Entry lifetimes.
const (
	// TTLOutput bounds how long a memoized output is reused.
	TTLOutput = 7 * 24 * time.Hour
	// TTLMarker and TTLOriginal bound how long a processed file can be
	// recognised and restored.
	TTLMarker   = 90 * 24 * time.Hour
	TTLOriginal = 90 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend.
	Close() error
}

// OutputKeyOpts are the options that change the rewritten output.
type OutputKeyOpts struct {
	Dialect             string  `json:"dialect"`
	LayerHeight         float64 `json:"layer_height"`
	ExtrusionMultiplier float64 `json:"extrusion_multiplier"`
	BrickShift          bool    `json:"brick_shift"`
	NonPlanar           bool    `json:"non_planar"`
	Amplitude           float64 `json:"amplitude"`
	Frequency           float64 `json:"frequency"`
	WaveResolution      float64 `json:"wave_resolution"`
	WallReorder         bool    `json:"wall_reorder"`
	WallOrder           string  `json:"wall_order"`
	Tolerance           float64 `json:"tolerance"`
}

// Clearer is implemented by caches that can drop all entries at once.
type Clearer interface {
	// Clear removes every entry and reports how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Keyer builds cache keys.
type Keyer interface {
	// OutputKey addresses the memoized output for an input hash.
	OutputKey(inputHash string, opts OutputKeyOpts) string
	// MarkerKey addresses the record of a file the tool wrote.
	MarkerKey(outputHash string) string
	// OriginalKey addresses the input a written file was produced from.
	OriginalKey(outputHash string) string
}

// DefaultKeyer builds unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// OutputKey hashes the input hash together with the options.
func (DefaultKeyer) OutputKey(inputHash string, opts OutputKeyOpts) string {
	return hashKey("output", inputHash, opts)
}

// MarkerKey returns "marker:<hash>".
func (DefaultKeyer) MarkerKey(outputHash string) string {
	return "marker:" + outputHash
}

// OriginalKey returns "original:<hash>".
func (DefaultKeyer) OriginalKey(outputHash string) string {
	return "original:" + outputHash
}

var _ Keyer = DefaultKeyer{}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns prefix:hash(parts).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}
