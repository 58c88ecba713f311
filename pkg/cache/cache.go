// Package cache stores conversion results by content hash.
//
// A [Cache] is a plain byte store with TTLs. Three backends are provided:
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: one JSON file per entry under a directory, for CLI use
//   - [RedisCache]: a shared redis instance, for the HTTP service
//
// Keys are produced by a [Keyer] so that every caller derives the same key
// for the same input and options. [ScopedKeyer] adds a namespace prefix.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry kind.
const (
	TTLCompress   = 24 * time.Hour
	TTLDecompress = 24 * time.Hour
)

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// CompressKeyOpts holds the options that change compress output.
type CompressKeyOpts struct {
	Format string `json:"format"`
	Policy string `json:"policy"`
}

// DecompressKeyOpts holds the options that change decompress output.
type DecompressKeyOpts struct {
	Format string `json:"format"`
}

// Keyer derives cache keys.
type Keyer interface {
	// CompressKey returns the key for compressing the input with the given hash.
	CompressKey(inputHash string, opts CompressKeyOpts) string

	// DecompressKey returns the key for decompressing the input with the given hash.
	DecompressKey(inputHash string, opts DecompressKeyOpts) string
}

// DefaultKeyer produces keys of the form "kind:sha256(parts)".
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// CompressKey implements Keyer.
func (DefaultKeyer) CompressKey(inputHash string, opts CompressKeyOpts) string {
	return hashKey("compress", inputHash, opts)
}

// DecompressKey implements Keyer.
func (DefaultKeyer) DecompressKey(inputHash string, opts DecompressKeyOpts) string {
	return hashKey("decompress", inputHash, opts)
}
