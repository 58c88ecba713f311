package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperr "github.com/matzehuels/adjpack/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Format != "legacy" || cfg.Policy != "strict" {
		t.Errorf("defaults = %q/%q, want legacy/strict", cfg.Format, cfg.Policy)
	}
	if cfg.Cache.TTL.Duration != 24*time.Hour {
		t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
	}
	if cfg.Server.MaxBodyBytes != 67108864 {
		t.Errorf("Server.MaxBodyBytes = %d", cfg.Server.MaxBodyBytes)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
format = "framed"
policy = "skip"

[cache]
backend = "redis"
ttl = "90m"

[cache.redis]
addr = "cache:6379"
db = 2

[server]
addr = "127.0.0.1:9000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Format != "framed" || cfg.Policy != "skip" {
		t.Errorf("format/policy = %q/%q", cfg.Format, cfg.Policy)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.TTL.Duration != 90*time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Cache.Redis.Addr != "cache:6379" || cfg.Cache.Redis.DB != 2 {
		t.Errorf("redis = %+v", cfg.Cache.Redis)
	}
	// Unset keys keep their defaults.
	if cfg.Cache.Redis.Prefix != "adjpack:" {
		t.Errorf("redis prefix = %q, want default", cfg.Cache.Redis.Prefix)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.MaxBodyBytes != 64<<20 {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    apperr.Code
		substr  string
	}{
		{"unknown key", "formt = \"legacy\"\n", apperr.ErrCodeInvalidInput, "formt"},
		{"unknown nested key", "[cache]\nbackend = \"file\"\nsize = 3\n", apperr.ErrCodeInvalidInput, "cache.size"},
		{"bad format", "format = \"zip\"\n", apperr.ErrCodeInvalidFormat, "zip"},
		{"auto format", "format = \"auto\"\n", apperr.ErrCodeInvalidFormat, "decoding"},
		{"bad policy", "policy = \"lenient\"\n", apperr.ErrCodeInvalidPolicy, "lenient"},
		{"bad backend", "[cache]\nbackend = \"memcached\"\n", apperr.ErrCodeInvalidInput, "memcached"},
		{"bad ttl", "[cache]\nttl = \"soon\"\n", apperr.ErrCodeInvalidInput, "soon"},
		{"bad listen addr", "[server]\naddr = \"8080\"\n", apperr.ErrCodeInvalidInput, "8080"},
		{"zero body limit", "[server]\nmax_body_bytes = 0\n", apperr.ErrCodeInvalidInput, "max_body_bytes"},
		{"syntax", "format = \n", apperr.ErrCodeInvalidInput, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !apperr.Is(err, tt.code) {
				t.Errorf("Load() code = %v, want %v (%v)", apperr.GetCode(err), tt.code, err)
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("Load() error %q does not mention %q", err, tt.substr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvPath, "")
	t.Setenv("XDG_CONFIG_HOME", dir)

	// Missing file at the default location yields defaults.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Format != Default().Format {
		t.Errorf("Load(\"\") should return defaults")
	}

	// An explicit path must exist.
	_, err = Load(filepath.Join(dir, "nope.toml"))
	if !apperr.Is(err, apperr.ErrCodeInvalidPath) {
		t.Errorf("Load(missing) error = %v, want INVALID_PATH", err)
	}

	// So must a path from the environment.
	t.Setenv(EnvPath, filepath.Join(dir, "nope.toml"))
	if _, err := Load(""); !apperr.Is(err, apperr.ErrCodeInvalidPath) {
		t.Errorf("Load via %s error = %v, want INVALID_PATH", EnvPath, err)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvPath, "/etc/adjpack.toml")
	if p, _ := DefaultPath(); p != "/etc/adjpack.toml" {
		t.Errorf("DefaultPath() = %q, want env override", p)
	}

	t.Setenv(EnvPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if p, _ := DefaultPath(); p != filepath.Join("/xdg", "adjpack", "config.toml") {
		t.Errorf("DefaultPath() = %q, want XDG location", p)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1h30m")); err != nil {
		t.Fatal(err)
	}
	if d.Duration != 90*time.Minute {
		t.Errorf("Duration = %v", d.Duration)
	}
	b, _ := d.MarshalText()
	if string(b) != "1h30m0s" {
		t.Errorf("MarshalText() = %q", b)
	}
}
