// ABOUTME: Healthstore configuration with layered defaults, YAML file, and env overrides.
// ABOUTME: Also provides the storage backend factory and logger construction.

package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/harperreed/healthstore/internal/storage"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Supported storage backends.
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendCharm    = "charm"
)

// Backends lists every backend name accepted in config.
var Backends = []string{BackendMemory, BackendBadger, BackendSQLite, BackendPostgres, BackendRedis, BackendCharm}

// EnvPrefix prefixes environment overrides; HEALTHSTORE_POSTGRES__DSN sets postgres.dsn.
const EnvPrefix = "HEALTHSTORE_"

// Config stores healthstore configuration.
type Config struct {
	// Backend selects the document store. Defaults to badger.
	Backend string `koanf:"backend"`

	// DataDir is the root directory for embedded backends.
	// Supports ~ expansion. Defaults to ~/.local/share/healthstore.
	DataDir string `koanf:"data_dir"`

	// UserID scopes every read and write.
	UserID string `koanf:"user_id"`

	Postgres PostgresConfig `koanf:"postgres"`
	Redis    RedisConfig    `koanf:"redis"`
	Charm    CharmConfig    `koanf:"charm"`
	Log      LogConfig      `koanf:"log"`
}

type PostgresConfig struct {
	DSN string `koanf:"dsn"`
}

type RedisConfig struct {
	URL string `koanf:"url"`
}

type CharmConfig struct {
	Name string `koanf:"name"`
	Host string `koanf:"host"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text or json
}

func defaults() map[string]any {
	return map[string]any{
		"backend":    BackendBadger,
		"data_dir":   "",
		"user_id":    "local",
		"charm.name": "healthstore",
		"charm.host": storage.DefaultCharmHost,
		"log.level":  "warn",
		"log.format": "text",
	}
}

// Load layers defaults, the YAML config file, and HEALTHSTORE_ env vars.
// An empty path means the default location, which may be absent; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	explicit := path != ""
	if !explicit {
		path = GetConfigPath()
	}
	if _, err := os.Stat(path); err == nil || explicit {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects unknown backends and backends missing their connection settings.
func (c *Config) Validate() error {
	if !storage.ValidSegment(c.UserID) {
		return fmt.Errorf("invalid user_id: %q", c.UserID)
	}
	switch c.GetBackend() {
	case BackendMemory, BackendBadger, BackendSQLite:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres backend requires postgres.dsn")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return errors.New("redis backend requires redis.url")
		}
	case BackendCharm:
		if c.Charm.Name == "" {
			return errors.New("charm backend requires charm.name")
		}
	default:
		return fmt.Errorf("unknown backend: %q (use one of %s)", c.Backend, strings.Join(Backends, ", "))
	}
	return nil
}

// GetBackend returns the configured backend, defaulting to badger.
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendBadger
	}
	return strings.ToLower(c.Backend)
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStore creates the DocumentStore for the configured backend.
func (c *Config) OpenStore(ctx context.Context) (storage.DocumentStore, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	dataDir := c.GetDataDir()

	var (
		store storage.DocumentStore
		err   error
	)
	switch c.GetBackend() {
	case BackendMemory:
		store = storage.NewMemoryStore()
	case BackendBadger:
		store, err = storage.OpenBadger(storage.BadgerConfig{Path: filepath.Join(dataDir, "badger")})
	case BackendSQLite:
		store, err = storage.Open(filepath.Join(dataDir, "healthstore.db"))
	case BackendPostgres:
		store, err = storage.OpenPostgres(ctx, c.Postgres.DSN)
	case BackendRedis:
		store, err = storage.OpenRedis(ctx, c.Redis.URL)
	case BackendCharm:
		store, err = storage.OpenCharm(c.Charm.Name, c.Charm.Host)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", c.GetBackend(), err)
	}
	return store, nil
}

// NewLogger builds a slog logger writing to w at the configured level and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "healthstore", "config.yaml")
}
