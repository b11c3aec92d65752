// Package cache stores byte blobs between runs so expensive pipeline
// stages can be skipped when their inputs have not changed.
//
// The dominant use is the slicer: a DeScribe invocation takes minutes,
// and its output depends only on the recipe text and the mesh bytes.
// Backends share one Cache interface so the pipeline works the same
// against a local directory, a shared Redis, or nothing at all.
package cache

import (
	"context"
	"time"
)

// Cache lifetimes per stage. Slicer bundles cost minutes to recreate
// and are content-addressed, so they live long; target lists resolve
// in milliseconds and expire within a day.
const (
	TTLLayout = 24 * time.Hour
	TTLSlice  = 30 * 24 * time.Hour
)

// Cache is a content-addressed blob store. A miss is not an error:
// Get reports it through the second return value.
type Cache interface {
	// Get retrieves the blob stored under key.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes the blob stored under key, if any.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer builds the keys for the pipeline's cacheable stages. Keys hash
// every input that influences the stage's output, so a changed recipe,
// mesh or layout never hits a stale entry.
type Keyer interface {
	// LayoutKey keys the resolved target list of one layout file.
	LayoutKey(fileHash string, opts LayoutKeyOpts) string
	// SliceKey keys one slicer artifact bundle.
	SliceKey(recipeHash, meshHash string, opts SliceKeyOpts) string
}

// LayoutKeyOpts carries the resolution inputs beyond the file bytes.
type LayoutKeyOpts struct {
	// Matcher is the target predicate name plus its parameters.
	Matcher string
	// Topcell is the traversal root ("" for automatic selection).
	Topcell string
}

// SliceKeyOpts carries the slicer inputs beyond recipe and mesh.
type SliceKeyOpts struct {
	// Slicer identifies the DeScribe executable, normally its path.
	// Different installations may produce different artifacts.
	Slicer string
}

// DefaultKeyer hashes all inputs into prefix:sha256 keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey generates a key for a resolved target list.
func (k *DefaultKeyer) LayoutKey(fileHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", fileHash, opts)
}

// SliceKey generates a key for a slicer artifact bundle.
func (k *DefaultKeyer) SliceKey(recipeHash, meshHash string, opts SliceKeyOpts) string {
	return hashKey("slice", recipeHash, meshHash, opts)
}
