// Package config loads adjpack settings from a TOML file.
//
// A missing file at the default location yields [Default]. Unknown keys are
// rejected so that typos do not silently fall back to defaults.
//
//	format = "framed"
//	policy = "skip"
//
//	[cache]
//	backend = "redis"
//	ttl = "6h"
//
//	[cache.redis]
//	addr = "cache.internal:6379"
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/adjpack/pkg/codec"
	"github.com/matzehuels/adjpack/pkg/edgelist"
	apperr "github.com/matzehuels/adjpack/pkg/errors"
)

// EnvPath names the environment variable that overrides the config location.
const EnvPath = "ADJPACK_CONFIG"

const appName = "adjpack"

// Cache backends.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config is the full configuration file.
type Config struct {
	Format string       `toml:"format"`
	Policy string       `toml:"policy"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and tunes the result cache.
type CacheConfig struct {
	Backend string      `toml:"backend"`
	Dir     string      `toml:"dir"`
	TTL     Duration    `toml:"ttl"`
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig holds the redis backend settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// ServerConfig holds the HTTP service settings.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// Duration is a time.Duration written as a Go duration string ("24h").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Format: string(codec.FormatLegacy),
		Policy: string(edgelist.DefaultPolicy),
		Cache: CacheConfig{
			Backend: BackendFile,
			TTL:     Duration{24 * time.Hour},
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: appName + ":",
			},
		},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 64 << 20,
		},
	}
}

// DefaultPath returns $ADJPACK_CONFIG, else the XDG config location
// (~/.config/adjpack/config.toml).
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the config at path over the defaults. An empty path means
// [DefaultPath], where a missing file is not an error. A path given
// explicitly must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
		explicit = os.Getenv(EnvPath) != ""
	}

	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidPath, err, "config file %s not found", path)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "config %s", path)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, apperr.New(apperr.ErrCodeInvalidInput, "config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.GetCode(err), err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks every field that has a closed set of values.
func (c *Config) Validate() error {
	f, err := codec.ParseFormat(c.Format, codec.FormatLegacy)
	if err != nil {
		return err
	}
	if f == codec.FormatAuto {
		return apperr.New(apperr.ErrCodeInvalidFormat, "format %q is only valid for decoding", c.Format)
	}
	if _, err := edgelist.ParsePolicy(c.Policy); err != nil {
		return err
	}

	switch c.Cache.Backend {
	case BackendNone, BackendFile, BackendRedis:
	default:
		return apperr.New(apperr.ErrCodeInvalidInput, "unknown cache backend %q (want none, file or redis)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return apperr.New(apperr.ErrCodeInvalidInput, "cache ttl must not be negative")
	}
	if c.Cache.Backend == BackendRedis && c.Cache.Redis.Addr == "" {
		return apperr.New(apperr.ErrCodeInvalidInput, "cache.redis.addr is required for the redis backend")
	}

	if err := apperr.ValidateListenAddr(c.Server.Addr); err != nil {
		return err
	}
	if c.Server.MaxBodyBytes <= 0 {
		return apperr.New(apperr.ErrCodeInvalidInput, "server.max_body_bytes must be positive")
	}
	return nil
}
