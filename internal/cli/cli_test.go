package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/adjpack/pkg/config"
	apperr "github.com/matzehuels/adjpack/pkg/errors"
)

const scenarioInput = "1\t2\t10\n2\t1\t20\n3\t1\t5\n"

var scenarioBinary = []byte{
	1, 0, 0, 0,
	1, 0, 0, 0, 2, 0, 0, 0,
	2, 0, 0, 0, 10,
	3, 0, 0, 0, 5,
}

// newTestCLI returns a CLI whose config and cache live in temp dirs.
func newTestCLI(t *testing.T) *CLI {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(config.EnvPath, "")
	return New(io.Discard, LogInfo)
}

// execute runs the root command with args and returns what it wrote to stdout.
func execute(t *testing.T, c *CLI, stdin []byte, args ...string) (string, error) {
	t.Helper()
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(bytes.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestCompressFile(t *testing.T) {
	c := newTestCLI(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "edges.txt", []byte(scenarioInput))
	out := filepath.Join(dir, "edges.bin")

	stdout, err := execute(t, c, nil, "compress", "-i", in, "-o", out)
	if err != nil {
		t.Fatalf("compress error = %v", err)
	}
	if got := readFile(t, out); !bytes.Equal(got, scenarioBinary) {
		t.Errorf("output = %v, want %v", got, scenarioBinary)
	}
	for _, want := range []string{"Compressed", "1 keys", "2 edges", "fresh", out} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout %q missing %q", stdout, want)
		}
	}
}

func TestOutputMode(t *testing.T) {
	c := newTestCLI(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "edges.txt", []byte(scenarioInput))
	out := filepath.Join(dir, "edges.bin")

	if _, err := execute(t, c, nil, "-s", "-i", in, "-o", out); err != nil {
		t.Fatalf("compress error = %v", err)
	}
	fi, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := fi.Mode().Perm(); got != 0o644 {
		t.Errorf("new output mode = %v, want %v", got, os.FileMode(0o644))
	}

	// Replacing an existing file keeps its mode.
	if err := os.Chmod(out, 0o640); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, c, nil, "compress", "--no-cache", "-i", in, "-o", out); err != nil {
		t.Fatalf("compress error = %v", err)
	}
	if fi, err = os.Stat(out); err != nil {
		t.Fatal(err)
	}
	if got := fi.Mode().Perm(); got != 0o640 {
		t.Errorf("replaced output mode = %v, want %v", got, os.FileMode(0o640))
	}
}

func TestCompressStdio(t *testing.T) {
	c := newTestCLI(t)
	stdout, err := execute(t, c, []byte(scenarioInput), "compress", "--no-cache")
	if err != nil {
		t.Fatalf("compress error = %v", err)
	}
	if !bytes.Equal([]byte(stdout), scenarioBinary) {
		t.Errorf("stdout = %v, want only the encoding %v", []byte(stdout), scenarioBinary)
	}
}

func TestDecompressStdio(t *testing.T) {
	c := newTestCLI(t)
	stdout, err := execute(t, c, scenarioBinary, "decompress", "-i", "-", "-o", "-")
	if err != nil {
		t.Fatalf("decompress error = %v", err)
	}
	if want := "1\t2\t10\n1\t3\t5\n"; stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestFramedRoundTrip(t *testing.T) {
	c := newTestCLI(t)
	framed, err := execute(t, c, []byte(scenarioInput), "compress", "--format", "framed")
	if err != nil {
		t.Fatalf("compress error = %v", err)
	}
	if !strings.HasPrefix(framed, "ADJB\x01") {
		t.Fatalf("framed output starts with %q", framed[:5])
	}

	text, err := execute(t, c, []byte(framed), "decompress")
	if err != nil {
		t.Fatalf("decompress error = %v", err)
	}
	if want := "1\t2\t10\n1\t3\t5\n"; text != want {
		t.Errorf("round trip = %q, want %q", text, want)
	}
}

func TestLegacyMode(t *testing.T) {
	c := newTestCLI(t)
	dir := t.TempDir()
	src := writeFile(t, dir, "edges.txt", []byte(scenarioInput))
	bin := filepath.Join(dir, "edges.bin")
	txt := filepath.Join(dir, "decoded.txt")

	if _, err := execute(t, c, nil, "-s", "-i", src, "-o", bin); err != nil {
		t.Fatalf("-s error = %v", err)
	}
	if got := readFile(t, bin); !bytes.Equal(got, scenarioBinary) {
		t.Errorf("-s output = %v", got)
	}

	if _, err := execute(t, c, nil, "-d", "-i", bin, "-o", txt); err != nil {
		t.Fatalf("-d error = %v", err)
	}
	if got := string(readFile(t, txt)); got != "1\t2\t10\n1\t3\t5\n" {
		t.Errorf("-d output = %q", got)
	}
}

func TestLegacyModeErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no mode", []string{"-i", "a", "-o", "b"}, "unknown mode"},
		{"no flags", nil, "unknown mode"},
		{"both modes", []string{"-s", "-d", "-i", "a", "-o", "b"}, "choose one mode"},
		{"no input", []string{"-s", "-o", "b"}, "input filename expected"},
		{"no output", []string{"-d", "-i", "a"}, "output filename expected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCLI(t)
			_, err := execute(t, c, nil, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
			if apperr.GetCode(err) != apperr.ErrCodeInvalidInput {
				t.Errorf("code = %s, want %s", apperr.GetCode(err), apperr.ErrCodeInvalidInput)
			}
		})
	}
}

func TestFailedRunLeavesNoOutput(t *testing.T) {
	c := newTestCLI(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "bad.txt", []byte("1\t2\t10\n1\t2\n"))
	out := filepath.Join(dir, "bad.bin")

	_, err := execute(t, c, nil, "compress", "-i", in, "-o", out)
	if !apperr.Is(err, apperr.ErrCodeParse) {
		t.Fatalf("error = %v, want PARSE_ERROR", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("dir holds %v, want only the input", names)
	}
}

func TestCompressSkipPolicy(t *testing.T) {
	c := newTestCLI(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "edges.txt", []byte("1\t2\t10\nnot an edge\n3\t1\t5\n"))
	out := filepath.Join(dir, "edges.bin")

	stdout, err := execute(t, c, nil, "compress", "--policy", "skip", "-i", in, "-o", out)
	if err != nil {
		t.Fatalf("compress error = %v", err)
	}
	if !strings.Contains(stdout, "1 malformed lines skipped") {
		t.Errorf("stdout %q should report the skipped line", stdout)
	}
	if got := readFile(t, out); !bytes.Equal(got, scenarioBinary) {
		t.Errorf("output = %v", got)
	}
}

func TestDecompressTruncated(t *testing.T) {
	c := newTestCLI(t)
	_, err := execute(t, c, scenarioBinary[:len(scenarioBinary)-2], "decompress", "--no-cache")
	if !apperr.Is(err, apperr.ErrCodeTruncated) {
		t.Errorf("error = %v, want TRUNCATED_INPUT", err)
	}
}

func TestCompressCached(t *testing.T) {
	c := newTestCLI(t)
	dir := t.TempDir()
	in := writeFile(t, dir, "edges.txt", []byte(scenarioInput))
	out := filepath.Join(dir, "edges.bin")

	if _, err := execute(t, c, nil, "compress", "-i", in, "-o", out); err != nil {
		t.Fatal(err)
	}
	stdout, err := execute(t, c, nil, "compress", "-i", in, "-o", out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "cached") {
		t.Errorf("second run stdout %q should report a cache hit", stdout)
	}
	if got := readFile(t, out); !bytes.Equal(got, scenarioBinary) {
		t.Errorf("cached output = %v", got)
	}

	stdout, err = execute(t, c, nil, "compress", "--refresh", "-i", in, "-o", out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "fresh") {
		t.Errorf("--refresh stdout %q should report a fresh run", stdout)
	}
}

func TestConfigFile(t *testing.T) {
	c := newTestCLI(t)
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.toml", []byte("format = \"framed\"\n\n[cache]\nbackend = \"none\"\n"))

	stdout, err := execute(t, c, []byte(scenarioInput), "--config", cfg, "compress")
	if err != nil {
		t.Fatalf("compress error = %v", err)
	}
	if !strings.HasPrefix(stdout, "ADJB") {
		t.Errorf("config format not applied, output starts %q", stdout[:4])
	}

	stdout, err = execute(t, c, []byte(scenarioInput), "--config", cfg, "compress", "--format", "legacy")
	if err != nil {
		t.Fatalf("compress error = %v", err)
	}
	if !bytes.Equal([]byte(stdout), scenarioBinary) {
		t.Errorf("--format should override the config, got %v", []byte(stdout))
	}
}

func TestConfigFileInvalid(t *testing.T) {
	c := newTestCLI(t)
	cfg := writeFile(t, t.TempDir(), "config.toml", []byte("fromat = \"framed\"\n"))

	_, err := execute(t, c, []byte(scenarioInput), "--config", cfg, "compress")
	if err == nil || !strings.Contains(err.Error(), "fromat") {
		t.Errorf("error = %v, want unknown key report", err)
	}

	_, err = execute(t, c, nil, "--config", filepath.Join(t.TempDir(), "missing.toml"), "cache", "path")
	if !apperr.Is(err, apperr.ErrCodeInvalidPath) {
		t.Errorf("missing explicit config error = %v, want INVALID_PATH", err)
	}
}

func TestInspect(t *testing.T) {
	c := newTestCLI(t)
	bin := writeFile(t, t.TempDir(), "edges.bin", scenarioBinary)

	stdout, err := execute(t, c, nil, "inspect", bin)
	if err != nil {
		t.Fatalf("inspect error = %v", err)
	}
	for _, want := range []string{"legacy", "Keys", "Edges", "1..1", "2 (key 1)", "2.00"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("summary %q missing %q", stdout, want)
		}
	}

	stdout, err = execute(t, c, nil, "inspect", "--dump", bin)
	if err != nil {
		t.Fatalf("inspect --dump error = %v", err)
	}
	if want := "[1] { <2, 10> <3, 5> }\n"; stdout != want {
		t.Errorf("dump = %q, want %q", stdout, want)
	}
}

func TestInspectTruncated(t *testing.T) {
	c := newTestCLI(t)
	_, err := execute(t, c, scenarioBinary[:6], "inspect", "-")
	if !apperr.Is(err, apperr.ErrCodeTruncated) {
		t.Errorf("error = %v, want TRUNCATED_INPUT", err)
	}
}

func TestDot(t *testing.T) {
	c := newTestCLI(t)
	stdout, err := execute(t, c, scenarioBinary, "dot", "-")
	if err != nil {
		t.Fatalf("dot error = %v", err)
	}
	for _, want := range []string{"graph G {", `1 -- 2 [label="10"];`, `1 -- 3 [label="5"];`} {
		if !strings.Contains(stdout, want) {
			t.Errorf("dot output missing %q:\n%s", want, stdout)
		}
	}
}

func TestDotBadLayout(t *testing.T) {
	c := newTestCLI(t)
	stdout, err := execute(t, c, scenarioBinary, "dot", "-", "--layout", "neato; 9 -- 9")
	if apperr.GetCode(err) != apperr.ErrCodeInvalidInput {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want nothing", stdout)
	}
}

func TestDotSVGLimit(t *testing.T) {
	c := newTestCLI(t)
	_, err := execute(t, c, scenarioBinary, "dot", "-", "--svg", "--max-edges", "1")
	if apperr.GetCode(err) != apperr.ErrCodeInvalidInput {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestCacheCommands(t *testing.T) {
	c := newTestCLI(t)
	stdout, err := execute(t, c, nil, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if dir := strings.TrimSpace(stdout); filepath.Base(dir) != appName {
		t.Errorf("cache path = %q", dir)
	}

	if _, err := execute(t, c, []byte(scenarioInput), "compress"); err != nil {
		t.Fatal(err)
	}
	stdout, err = execute(t, c, nil, "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "Cleared 1 cached entries") {
		t.Errorf("cache clear stdout = %q", stdout)
	}

	stdout, err = execute(t, c, nil, "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "Cache is empty") {
		t.Errorf("second cache clear stdout = %q", stdout)
	}
}

func TestCompletion(t *testing.T) {
	c := newTestCLI(t)
	stdout, err := execute(t, c, nil, "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, appName) {
		t.Error("bash completion should mention the command name")
	}

	if _, err := execute(t, c, nil, "completion", "tcsh"); err == nil {
		t.Error("unknown shell should fail")
	}
}

func TestServeRejectsBadAddr(t *testing.T) {
	c := newTestCLI(t)
	_, err := execute(t, c, nil, "serve", "--addr", "no-port")
	if apperr.GetCode(err) != apperr.ErrCodeInvalidInput {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}
