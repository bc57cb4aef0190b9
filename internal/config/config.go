// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no -config flag is given. It may be absent.
const DefaultPath = "config.yaml"

// maxCount mirrors model.MaxBatchCount; config stays free of domain imports.
const maxCount = 1_000_000

const DefaultUsageHint = "mysql -h 127.0.0.1 -u many_ceshi -p many_ceshi < scripts/insert-codes.sql"

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type CodegenConfig struct {
	Count  int `yaml:"count"`  // target number of unique codes
	Length int `yaml:"length"` // letters per code
}

type OutputConfig struct {
	UsageHint string `yaml:"usage_hint"`
}

type DatabaseConfig struct {
	URL      string        `yaml:"url"`
	MaxConns int32         `yaml:"max_conns"`
	Timeout  time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node-exporter textfile path; empty disables
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Codegen  CodegenConfig  `yaml:"codegen"`
	Output   OutputConfig   `yaml:"output"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	Runtime RuntimeConfig `yaml:"-"`
}

// Default returns the configuration used by a bare invocation.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info", Format: "json"},
		Codegen: CodegenConfig{Count: 200, Length: 6},
		Output:  OutputConfig{UsageHint: DefaultUsageHint},
		Database: DatabaseConfig{
			MaxConns: 4,
			Timeout:  10 * time.Second,
		},
		Redis: RedisConfig{LockTTL: time.Minute},
	}
}

// LoadConfig reads path over the defaults. A missing file at DefaultPath, or an
// empty path, yields the defaults so the tool runs with no arguments.
// DATABASE_URL and REDIS_URL override the file.
func LoadConfig(path string, dev bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
			// no config file; defaults apply
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.Database.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.Redis.URL = v
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if strings.TrimSpace(cfg.Output.UsageHint) == "" {
		cfg.Output.UsageHint = DefaultUsageHint
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 4
	}
	cfg.Database.Timeout = normalizeDuration(cfg.Database.Timeout, 10*time.Second)
	cfg.Redis.LockTTL = normalizeDuration(cfg.Redis.LockTTL, time.Minute)

	// Minimal validation
	if cfg.Codegen.Count < 0 || cfg.Codegen.Count > maxCount {
		return nil, fmt.Errorf("codegen.count must be between 0 and %d", maxCount)
	}
	if cfg.Codegen.Length <= 0 || cfg.Codegen.Length > 64 {
		return nil, errors.New("codegen.length must be between 1 and 64")
	}

	cfg.Runtime.Dev = dev
	return cfg, nil
}

// RequireDatabase reports an error when a database-backed command has no DSN.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return errors.New("database.url (or DATABASE_URL) is required")
	}
	return nil
}

func normalizeDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
