package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/adjpack/pkg/adjacency"
	"github.com/matzehuels/adjpack/pkg/cache"
	"github.com/matzehuels/adjpack/pkg/codec"
	"github.com/matzehuels/adjpack/pkg/edgelist"
	apperr "github.com/matzehuels/adjpack/pkg/errors"
	"github.com/matzehuels/adjpack/pkg/observability"
)

// Runner encapsulates conversion with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the per-operation cache TTLs when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// envelope is the cached form of a run.
type envelope struct {
	Output []byte       `json:"output"`
	Format codec.Format `json:"format"`
	Stats  Stats        `json:"stats"`
}

// Compress reads a text edge list from in and writes its binary adjacency
// encoding to out.
func (r *Runner) Compress(ctx context.Context, in io.Reader, out io.Writer, opts Options) (*Result, error) {
	start := time.Now()
	r.applyLogger(&opts)
	if err := opts.ValidateForCompress(); err != nil {
		return nil, err
	}

	result := &Result{RunID: opts.RunID, Format: opts.format}
	if result.RunID == "" {
		result.RunID = uuid.NewString()
	}
	logger := opts.Logger.With("run", shortID(result.RunID))
	hooks := observability.Pipeline()
	hooks.OnCompressStart(ctx, opts.Format)

	err := r.run(ctx, in, out, opts.Refresh, result, "compress",
		func(hash string) string { return r.Keyer.CompressKey(hash, opts.CompressKeyOpts()) },
		r.ttl(cache.TTLCompress),
		func(in io.Reader, out io.Writer) error {
			return compress(ctx, in, out, &opts, &result.Stats, logger)
		})

	result.Duration = time.Since(start)
	hooks.OnCompressComplete(ctx, opts.Format, result.Stats.Keys, result.Stats.Edges, result.Duration, err)
	if err != nil {
		return nil, err
	}

	logger.Info("compressed edge list",
		"keys", result.Stats.Keys,
		"edges", result.Stats.Edges,
		"duplicates", result.Stats.Duplicates,
		"skipped", result.Stats.Skipped,
		"bytes", result.Stats.BytesOut,
		"cached", result.CacheHit,
		"duration", result.Duration)
	return result, nil
}

// Decompress reads a binary adjacency stream from in and writes the stored
// edges to out as a text edge list, in stored order.
func (r *Runner) Decompress(ctx context.Context, in io.Reader, out io.Writer, opts Options) (*Result, error) {
	start := time.Now()
	r.applyLogger(&opts)
	if err := opts.ValidateForDecompress(); err != nil {
		return nil, err
	}

	result := &Result{RunID: opts.RunID, Format: opts.format}
	if result.RunID == "" {
		result.RunID = uuid.NewString()
	}
	logger := opts.Logger.With("run", shortID(result.RunID))
	hooks := observability.Pipeline()
	hooks.OnDecompressStart(ctx, opts.Format)

	err := r.run(ctx, in, out, opts.Refresh, result, "decompress",
		func(hash string) string { return r.Keyer.DecompressKey(hash, opts.DecompressKeyOpts()) },
		r.ttl(cache.TTLDecompress),
		func(in io.Reader, out io.Writer) error {
			hdr, err := decompress(ctx, in, out, &opts, &result.Stats)
			if hdr.Format != "" {
				result.Format = hdr.Format
			}
			return err
		})

	result.Duration = time.Since(start)
	hooks.OnDecompressComplete(ctx, opts.Format, result.Stats.Records, result.Duration, err)
	if err != nil {
		return nil, err
	}

	logger.Info("decompressed binary graph",
		"format", result.Format,
		"keys", result.Stats.Keys,
		"records", result.Stats.Records,
		"bytes", result.Stats.BytesIn,
		"cached", result.CacheHit,
		"duration", result.Duration)
	return result, nil
}

// run executes convert either streaming (null cache) or over buffered input
// with a cache lookup first.
func (r *Runner) run(
	ctx context.Context,
	in io.Reader,
	out io.Writer,
	refresh bool,
	result *Result,
	kind string,
	keyFor func(hash string) string,
	ttl time.Duration,
	convert func(io.Reader, io.Writer) error,
) error {
	if cache.IsNull(r.Cache) {
		hr := cache.NewHashingReader(in)
		cw := &countingWriter{w: out}
		err := convert(hr, cw)
		result.InputHash = hr.Sum()
		result.Stats.BytesOut = cw.n
		if result.Stats.BytesIn == 0 {
			result.Stats.BytesIn = hr.Size()
		}
		return err
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeIO, err, "read input")
	}
	result.InputHash = cache.Hash(data)
	key := keyFor(result.InputHash)

	if !refresh {
		if env, ok := r.lookup(ctx, key, kind); ok {
			if _, err := out.Write(env.Output); err != nil {
				return apperr.Wrap(apperr.ErrCodeIO, err, "write output")
			}
			result.Stats = env.Stats
			result.Format = env.Format
			result.CacheHit = true
			return nil
		}
	}

	var buf bytes.Buffer
	if err := convert(bytes.NewReader(data), &buf); err != nil {
		return err
	}
	result.Stats.BytesOut = int64(buf.Len())
	if result.Stats.BytesIn == 0 {
		result.Stats.BytesIn = int64(len(data))
	}

	r.store(ctx, key, kind, envelope{Output: buf.Bytes(), Format: result.Format, Stats: result.Stats}, ttl)

	if _, err := out.Write(buf.Bytes()); err != nil {
		return apperr.Wrap(apperr.ErrCodeIO, err, "write output")
	}
	return nil
}

func compress(ctx context.Context, in io.Reader, out io.Writer, opts *Options, stats *Stats, logger *log.Logger) error {
	rd := edgelist.NewReader(in, edgelist.Options{
		Policy: opts.policy,
		OnSkip: func(e *edgelist.ParseError) {
			logger.Warn("skipped malformed line", "line", e.Line, "err", e.Err)
		},
	})

	g := adjacency.New()
	g.OnConflict = func(lo, hi uint32, kept, dropped uint8) {
		logger.Debug("dropped repeated edge with a different weight",
			"key", lo, "neighbor", hi, "kept", kept, "dropped", dropped)
	}

	for n := 0; rd.Next(); n++ {
		if n%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		g.Add(rd.Edge())
	}
	if err := rd.Err(); err != nil {
		return err
	}
	stats.Stats = g.Stats()
	stats.Skipped = rd.Skipped()

	_, err := codec.Encode(out, g, opts.format)
	return err
}

func decompress(ctx context.Context, in io.Reader, out io.Writer, opts *Options, stats *Stats) (codec.Header, error) {
	d := codec.NewDecoder(in, opts.format)
	w := edgelist.NewWriter(out)

	for n := 0; d.Next(); n++ {
		if n%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return codec.Header{}, err
			}
		}
		rec := d.Record()
		if err := w.Write(rec.Key, rec.Neighbor, rec.Weight); err != nil {
			return codec.Header{}, err
		}
	}
	stats.BytesIn = d.Offset()
	stats.Keys = int(d.Blocks())
	hdr, err := d.Header()
	if err != nil {
		return hdr, err
	}
	if err := w.Flush(); err != nil {
		return hdr, err
	}
	stats.Records = w.Count()
	return hdr, nil
}

// lookup reads and decodes a cached envelope. Read errors and corrupt
// entries count as misses.
func (r *Runner) lookup(ctx context.Context, key, kind string) (*envelope, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "kind", kind, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, kind)
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.Logger.Debug("discarding corrupt cache entry", "kind", kind, "err", err)
		observability.Cache().OnCacheMiss(ctx, kind)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, kind)
	return &env, true
}

// store writes an envelope. Failures are logged, never returned.
func (r *Runner) store(ctx context.Context, key, kind string, env envelope, ttl time.Duration) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "kind", kind, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
