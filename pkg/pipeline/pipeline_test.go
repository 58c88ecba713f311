package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/adjpack/pkg/cache"
	"github.com/matzehuels/adjpack/pkg/codec"
	"github.com/matzehuels/adjpack/pkg/edgelist"
	apperr "github.com/matzehuels/adjpack/pkg/errors"
	"github.com/matzehuels/adjpack/pkg/observability"
)

const scenarioInput = "1\t2\t10\n2\t1\t20\n3\t1\t5\n"

var scenarioBinary = []byte{
	1, 0, 0, 0,
	1, 0, 0, 0, 2, 0, 0, 0,
	2, 0, 0, 0, 10,
	3, 0, 0, 0, 5,
}

func compressString(t *testing.T, r *Runner, input string, opts Options) ([]byte, *Result) {
	t.Helper()
	var out bytes.Buffer
	res, err := r.Compress(context.Background(), strings.NewReader(input), &out, opts)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	return out.Bytes(), res
}

func decompressBytes(t *testing.T, r *Runner, input []byte, opts Options) (string, *Result) {
	t.Helper()
	var out bytes.Buffer
	res, err := r.Decompress(context.Background(), bytes.NewReader(input), &out, opts)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	return out.String(), res
}

func TestCompressScenario(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	got, res := compressString(t, r, scenarioInput, Options{})

	if !bytes.Equal(got, scenarioBinary) {
		t.Errorf("Compress() = %v, want %v", got, scenarioBinary)
	}
	if res.Format != codec.FormatLegacy {
		t.Errorf("Format = %q, want legacy", res.Format)
	}
	want := Stats{BytesIn: int64(len(scenarioInput)), BytesOut: int64(len(scenarioBinary))}
	want.Keys, want.Edges, want.Duplicates, want.Conflicts = 1, 2, 1, 1
	if res.Stats != want {
		t.Errorf("Stats = %+v, want %+v", res.Stats, want)
	}
	if res.InputHash != cache.Hash([]byte(scenarioInput)) {
		t.Errorf("InputHash = %q", res.InputHash)
	}
	if res.RunID == "" || res.CacheHit {
		t.Errorf("RunID = %q, CacheHit = %v", res.RunID, res.CacheHit)
	}
}

func TestDecompressScenario(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	got, res := decompressBytes(t, r, scenarioBinary, Options{})

	if want := "1\t2\t10\n1\t3\t5\n"; got != want {
		t.Errorf("Decompress() = %q, want %q", got, want)
	}
	if res.Stats.Records != 2 || res.Stats.Keys != 1 {
		t.Errorf("Records, Keys = %d, %d, want 2, 1", res.Stats.Records, res.Stats.Keys)
	}
	if res.Format != codec.FormatLegacy {
		t.Errorf("detected Format = %q, want legacy", res.Format)
	}
	if res.Stats.BytesIn != int64(len(scenarioBinary)) {
		t.Errorf("BytesIn = %d", res.Stats.BytesIn)
	}
}

func TestRoundTripFramed(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	input := "5\t5\t1\n9\t4\t2\n4\t9\t3\n0\t4294967295\t255\n"

	bin, _ := compressString(t, r, input, Options{Format: "framed"})
	if !bytes.HasPrefix(bin, []byte("ADJB\x01")) {
		t.Fatalf("framed output missing header: %v", bin[:5])
	}

	got, res := decompressBytes(t, r, bin, Options{})
	want := "0\t4294967295\t255\n4\t9\t2\n5\t5\t1\n"
	if got != want {
		t.Errorf("round trip = %q, want %q", got, want)
	}
	if res.Format != codec.FormatFramed {
		t.Errorf("detected Format = %q, want framed", res.Format)
	}
}

func TestEmptyInput(t *testing.T) {
	r := NewRunner(nil, nil, nil)

	bin, res := compressString(t, r, "", Options{})
	if !bytes.Equal(bin, []byte{0, 0, 0, 0}) {
		t.Errorf("Compress(empty) = %v, want [0 0 0 0]", bin)
	}
	if res.Stats.Keys != 0 || res.Stats.Edges != 0 {
		t.Errorf("Stats = %+v", res.Stats)
	}

	text, _ := decompressBytes(t, r, bin, Options{})
	if text != "" {
		t.Errorf("Decompress(empty graph) = %q, want empty", text)
	}
}

func TestCompressParseErrors(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	input := "1\t2\t3\nnot an edge\n4\t5\t6\n"

	// Strict fails with the offending line.
	_, err := r.Compress(context.Background(), strings.NewReader(input), &bytes.Buffer{}, Options{})
	if !apperr.Is(err, apperr.ErrCodeParse) {
		t.Fatalf("strict Compress() error = %v, want PARSE_ERROR", err)
	}
	var pe *edgelist.ParseError
	if !errors.As(err, &pe) || pe.Line != 2 {
		t.Errorf("ParseError = %+v, want line 2", pe)
	}

	// Skip drops the line and counts it.
	_, res := compressString(t, r, input, Options{Policy: "skip"})
	if res.Stats.Skipped != 1 || res.Stats.Edges != 2 {
		t.Errorf("skip Stats = %+v, want 1 skipped and 2 edges", res.Stats)
	}
}

func TestDecompressTruncated(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	for _, n := range []int{0, 3, 4, 11, 16, len(scenarioBinary) - 1} {
		_, err := r.Decompress(context.Background(), bytes.NewReader(scenarioBinary[:n]), &bytes.Buffer{}, Options{})
		if !apperr.Is(err, apperr.ErrCodeTruncated) {
			t.Errorf("Decompress(%d bytes) error = %v, want TRUNCATED_INPUT", n, err)
		}
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		decompress bool
		code       apperr.Code
	}{
		{"unknown format", Options{Format: "zip"}, false, apperr.ErrCodeInvalidFormat},
		{"auto for compress", Options{Format: "auto"}, false, apperr.ErrCodeInvalidFormat},
		{"unknown policy", Options{Policy: "lenient"}, false, apperr.ErrCodeInvalidPolicy},
		{"unknown decompress format", Options{Format: "json"}, true, apperr.ErrCodeInvalidFormat},
	}

	r := NewRunner(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.decompress {
				_, err = r.Decompress(context.Background(), bytes.NewReader(scenarioBinary), &bytes.Buffer{}, tt.opts)
			} else {
				_, err = r.Compress(context.Background(), strings.NewReader(scenarioInput), &bytes.Buffer{}, tt.opts)
			}
			if !apperr.Is(err, tt.code) {
				t.Errorf("error = %v, want %v", err, tt.code)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateForCompress(); err != nil {
		t.Fatal(err)
	}
	if opts.Format != "legacy" || opts.Policy != "strict" || opts.Logger == nil {
		t.Errorf("compress defaults = %+v", opts)
	}

	opts = Options{}
	if err := opts.ValidateForDecompress(); err != nil {
		t.Fatal(err)
	}
	if opts.Format != "auto" {
		t.Errorf("decompress default format = %q, want auto", opts.Format)
	}
}

func TestRunnerCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	defer r.Close()

	first, res1 := compressString(t, r, scenarioInput, Options{})
	if res1.CacheHit {
		t.Error("first run should miss")
	}
	second, res2 := compressString(t, r, scenarioInput, Options{})
	if !res2.CacheHit {
		t.Error("second run should hit")
	}
	if !bytes.Equal(first, second) {
		t.Errorf("cached output %v differs from %v", second, first)
	}
	if res2.Stats != res1.Stats {
		t.Errorf("cached Stats = %+v, want %+v", res2.Stats, res1.Stats)
	}

	// Options are part of the key.
	_, res3 := compressString(t, r, scenarioInput, Options{Format: "framed"})
	if res3.CacheHit {
		t.Error("different format should miss")
	}

	// Refresh skips the read.
	_, res4 := compressString(t, r, scenarioInput, Options{Refresh: true})
	if res4.CacheHit {
		t.Error("Refresh should not hit")
	}

	text1, d1 := decompressBytes(t, r, first, Options{})
	text2, d2 := decompressBytes(t, r, first, Options{})
	if d1.CacheHit || !d2.CacheHit {
		t.Errorf("decompress CacheHit = %v then %v", d1.CacheHit, d2.CacheHit)
	}
	if text1 != text2 || d2.Format != codec.FormatLegacy {
		t.Errorf("cached decompress = %q (%s), want %q", text2, d2.Format, text1)
	}
}

func TestRunnerDoesNotCacheFailures(t *testing.T) {
	fc, _ := cache.NewFileCache(t.TempDir())
	r := NewRunner(fc, nil, nil)

	for i := 0; i < 2; i++ {
		_, err := r.Decompress(context.Background(), bytes.NewReader(scenarioBinary[:10]), &bytes.Buffer{}, Options{})
		if !apperr.Is(err, apperr.ErrCodeTruncated) {
			t.Fatalf("run %d: error = %v, want TRUNCATED_INPUT", i, err)
		}
	}
}

func TestCompressCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(nil, nil, nil)
	_, err := r.Compress(ctx, strings.NewReader(scenarioInput), &bytes.Buffer{}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Compress() error = %v, want context.Canceled", err)
	}
	_, err = r.Decompress(ctx, bytes.NewReader(scenarioBinary), &bytes.Buffer{}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Decompress() error = %v, want context.Canceled", err)
	}
}

func TestPipelineHooks(t *testing.T) {
	rec := &recordingHooks{}
	observability.SetPipelineHooks(rec)
	observability.SetCacheHooks(rec)
	defer observability.Reset()

	fc, _ := cache.NewFileCache(t.TempDir())
	r := NewRunner(fc, nil, nil)
	bin, _ := compressString(t, r, scenarioInput, Options{})
	compressString(t, r, scenarioInput, Options{})
	decompressBytes(t, r, bin, Options{})

	want := []string{
		"compress start legacy", "cache miss compress", "cache set compress", "compress done 1 2 <nil>",
		"compress start legacy", "cache hit compress", "compress done 1 2 <nil>",
		"decompress start auto", "cache miss decompress", "cache set decompress", "decompress done 2 <nil>",
	}
	if strings.Join(rec.events, "|") != strings.Join(want, "|") {
		t.Errorf("events =\n%v\nwant\n%v", rec.events, want)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks
	events []string
}

func (h *recordingHooks) add(parts ...any) {
	h.events = append(h.events, strings.TrimSuffix(fmt.Sprintln(parts...), "\n"))
}

func (h *recordingHooks) OnCompressStart(_ context.Context, format string) {
	h.add("compress start", format)
}

func (h *recordingHooks) OnCompressComplete(_ context.Context, _ string, keys, edges int, _ time.Duration, err error) {
	h.add("compress done", keys, edges, err)
}

func (h *recordingHooks) OnDecompressStart(_ context.Context, format string) {
	h.add("decompress start", format)
}

func (h *recordingHooks) OnDecompressComplete(_ context.Context, _ string, records int, _ time.Duration, err error) {
	h.add("decompress done", records, err)
}

func (h *recordingHooks) OnCacheHit(_ context.Context, kind string)        { h.add("cache hit", kind) }
func (h *recordingHooks) OnCacheMiss(_ context.Context, kind string)       { h.add("cache miss", kind) }
func (h *recordingHooks) OnCacheSet(_ context.Context, kind string, _ int) { h.add("cache set", kind) }
