// Package pipeline runs the edge list to binary conversions with caching.
//
// This package is the single entry point for the CLI and the HTTP service.
// By centralizing the conversions here, both surfaces share the same
// validation, caching, logging, and observability hooks.
//
// # Operations
//
//  1. Compress: parse a text edge list, canonicalize it, encode it
//  2. Decompress: decode a binary stream lazily, write a text edge list
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Compress(ctx, in, out, pipeline.Options{
//	    Format: "framed",
//	    Policy: "skip",
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Stats.Keys, result.Stats.Edges)
//
// With a [cache.NullCache] both operations stream their input. Any other
// cache makes the runner read the whole input first, since the cache key is
// the hash of its bytes.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/adjpack/pkg/adjacency"
	"github.com/matzehuels/adjpack/pkg/cache"
	"github.com/matzehuels/adjpack/pkg/codec"
	"github.com/matzehuels/adjpack/pkg/edgelist"
	apperr "github.com/matzehuels/adjpack/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultCompressFormat is the framing written by Compress.
	DefaultCompressFormat = codec.FormatLegacy

	// DefaultDecompressFormat is the framing expected by Decompress.
	DefaultDecompressFormat = codec.FormatAuto

	// DefaultPolicy is the malformed-line policy.
	DefaultPolicy = edgelist.DefaultPolicy
)

// checkInterval is how many records pass between context checks.
const checkInterval = 4096

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a single Compress or Decompress call.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Format is the binary framing: legacy or framed for Compress,
	// auto, legacy or framed for Decompress.
	Format string `json:"format,omitempty"`

	// Policy selects strict or skip handling of malformed lines (Compress only).
	Policy string `json:"policy,omitempty"`

	// Refresh bypasses cache reads. Results are still written to the cache.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	RunID  string      `json:"-"` // generated when empty

	format codec.Format
	policy edgelist.Policy
}

// ValidateForCompress checks options and applies Compress defaults.
// It is idempotent.
func (o *Options) ValidateForCompress() error {
	f, err := codec.ParseFormat(o.Format, DefaultCompressFormat)
	if err != nil {
		return err
	}
	if f == codec.FormatAuto {
		return apperr.New(apperr.ErrCodeInvalidFormat, "format %q is only valid for decompress", o.Format)
	}
	p, err := edgelist.ParsePolicy(o.Policy)
	if err != nil {
		return err
	}
	o.format, o.policy = f, p
	o.Format, o.Policy = string(f), string(p)
	o.setLogger()
	return nil
}

// ValidateForDecompress checks options and applies Decompress defaults.
// It is idempotent.
func (o *Options) ValidateForDecompress() error {
	f, err := codec.ParseFormat(o.Format, DefaultDecompressFormat)
	if err != nil {
		return err
	}
	o.format = f
	o.Format = string(f)
	o.setLogger()
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// CompressKeyOpts returns cache key options for Compress.
func (o *Options) CompressKeyOpts() cache.CompressKeyOpts {
	return cache.CompressKeyOpts{Format: o.Format, Policy: o.Policy}
}

// DecompressKeyOpts returns cache key options for Decompress.
func (o *Options) DecompressKeyOpts() cache.DecompressKeyOpts {
	return cache.DecompressKeyOpts{Format: o.Format}
}

// =============================================================================
// Results
// =============================================================================

// Result describes a finished run.
type Result struct {
	// RunID identifies the run in logs and HTTP responses.
	RunID string

	// InputHash is the SHA-256 of the input bytes.
	InputHash string

	// Format is the framing written (Compress) or detected (Decompress).
	Format codec.Format

	// Stats contains sizes and counts.
	Stats Stats

	// CacheHit is true when the output came from the cache.
	CacheHit bool

	// Duration is the wall time of the run.
	Duration time.Duration
}

// Stats contains run statistics. Decompress sets only Keys, the number of
// key blocks read, among the adjacency counters.
type Stats struct {
	adjacency.Stats

	Skipped  int   `json:"skipped,omitempty"` // malformed lines skipped under PolicySkip
	Records  int   `json:"records,omitempty"` // lines written by Decompress
	BytesIn  int64 `json:"bytes_in"`
	BytesOut int64 `json:"bytes_out"`
}
