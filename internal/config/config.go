// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

// Package config loads Postpen configuration from defaults, a YAML file,
// command-line flags and the environment, in that order of precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/postpen/postpen/internal/auth"
	"github.com/postpen/postpen/internal/logging"
	"github.com/postpen/postpen/internal/xdg"
)

// Session store backends.
const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

// Config is the effective Postpen configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http" yaml:"http"`
	Metrics  MetricsConfig  `koanf:"metrics" yaml:"metrics"`
	Log      LogConfig      `koanf:"log" yaml:"log"`
	Database DatabaseConfig `koanf:"database" yaml:"database"`
	Session  SessionConfig  `koanf:"session" yaml:"session"`
	Hasher   HasherConfig   `koanf:"hasher" yaml:"hasher"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `koanf:"addr" yaml:"addr" env:"POSTPEN_HTTP_ADDR"`
}

// MetricsConfig configures the observability listener. An empty address disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" yaml:"addr" env:"POSTPEN_METRICS_ADDR"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format" yaml:"format" env:"POSTPEN_LOG_FORMAT"`
	Level  string `koanf:"level" yaml:"level" env:"POSTPEN_LOG_LEVEL"`
}

// DatabaseConfig configures PostgreSQL.
type DatabaseConfig struct {
	URL         string `koanf:"url" yaml:"url" env:"DATABASE_URL"`
	AutoMigrate bool   `koanf:"auto_migrate" yaml:"auto_migrate" env:"POSTPEN_DATABASE_AUTO_MIGRATE"`
}

// SessionConfig configures the session store and cookie.
type SessionConfig struct {
	Store      string        `koanf:"store" yaml:"store" env:"POSTPEN_SESSION_STORE"`
	RedisURL   string        `koanf:"redis_url" yaml:"redis_url" env:"REDIS_URL"`
	CookieName string        `koanf:"cookie_name" yaml:"cookie_name" env:"POSTPEN_SESSION_COOKIE_NAME"`
	Secret     string        `koanf:"secret" yaml:"secret" env:"SESSION_SECRET"`
	MaxAge     time.Duration `koanf:"max_age" yaml:"max_age" env:"POSTPEN_SESSION_MAX_AGE"`
	Secure     bool          `koanf:"secure" yaml:"secure" env:"POSTPEN_SESSION_SECURE"`
}

// HasherConfig holds argon2id cost parameters.
type HasherConfig struct {
	Time      uint32 `koanf:"time" yaml:"time" env:"POSTPEN_HASHER_TIME"`
	MemoryKiB uint32 `koanf:"memory_kib" yaml:"memory_kib" env:"POSTPEN_HASHER_MEMORY_KIB"`
	Threads   uint8  `koanf:"threads" yaml:"threads" env:"POSTPEN_HASHER_THREADS"`
}

// defaults are applied before any other source.
var defaults = map[string]any{
	"http.addr":             ":4321",
	"metrics.addr":          "127.0.0.1:9100",
	"log.format":            "json",
	"log.level":             "info",
	"database.url":          "",
	"database.auto_migrate": true,
	"session.store":         SessionStoreRedis,
	"session.redis_url":     "redis://localhost:6379/0",
	"session.cookie_name":   "qid",
	"session.secret":        "",
	"session.max_age":       "87600h",
	"session.secure":        false,
	"hasher.time":           1,
	"hasher.memory_kib":     64 * 1024,
	"hasher.threads":        4,
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"http-addr":      "http.addr",
	"metrics-addr":   "metrics.addr",
	"log-format":     "log.format",
	"log-level":      "log.level",
	"database-url":   "database.url",
	"auto-migrate":   "database.auto_migrate",
	"session-store":  "session.store",
	"redis-url":      "session.redis_url",
	"cookie-name":    "session.cookie_name",
	"cookie-secure":  "session.secure",
	"session-maxage": "session.max_age",
}

// RegisterFlags adds the configuration flags to fs. Flag defaults are only
// used for help text; unset flags never override the file or defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", defaults["http.addr"].(string), "API listen address")
	fs.String("metrics-addr", defaults["metrics.addr"].(string), "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", defaults["log.format"].(string), "log format (json or text)")
	fs.String("log-level", defaults["log.level"].(string), "log level (debug, info, warn, error)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.Bool("auto-migrate", true, "apply pending migrations on startup")
	fs.String("session-store", defaults["session.store"].(string), "session store (redis or memory)")
	fs.String("redis-url", defaults["session.redis_url"].(string), "Redis URL for the session store")
	fs.String("cookie-name", defaults["session.cookie_name"].(string), "session cookie name")
	fs.Bool("cookie-secure", false, "mark the session cookie Secure")
	fs.Duration("session-maxage", 10*365*24*time.Hour, "session cookie lifetime")
}

// Load builds the effective configuration without validating it.
// path names a YAML file; when empty, the XDG config file is used if it exists.
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("key", key).Wrap(err)
		}
	}

	if path == "" {
		path = defaultFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "unmarshal").Wrap(err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("source", "environment").Wrap(err)
	}
	return cfg, nil
}

// defaultFile returns the XDG config file when it exists, else "".
func defaultFile() string {
	p, err := xdg.ConfigFile()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// ValidateDatabase checks only the settings needed to reach PostgreSQL.
func (c *Config) ValidateDatabase() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			With("problems", []string{"database.url is required (or DATABASE_URL)"}).
			Errorf("invalid configuration: database.url is required (or DATABASE_URL)")
	}
	return nil
}

// Validate reports every invalid setting in one CONFIG_INVALID error.
func (c *Config) Validate() error {
	var problems []string

	if c.HTTP.Addr == "" {
		problems = append(problems, "http.addr is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		problems = append(problems, "log.format must be 'json' or 'text'")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, "log.level must be one of debug, info, warn, error")
	}
	if c.Database.URL == "" {
		problems = append(problems, "database.url is required (or DATABASE_URL)")
	}
	switch c.Session.Store {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.Session.RedisURL == "" {
			problems = append(problems, "session.redis_url is required for the redis store")
		}
	default:
		problems = append(problems, "session.store must be 'redis' or 'memory'")
	}
	if c.Session.Secret == "" {
		problems = append(problems, "session.secret is required (or SESSION_SECRET)")
	}
	if c.Session.CookieName == "" {
		problems = append(problems, "session.cookie_name is required")
	}
	if c.Session.MaxAge <= 0 {
		problems = append(problems, "session.max_age must be positive")
	}
	if c.Hasher.Time == 0 || c.Hasher.MemoryKiB == 0 || c.Hasher.Threads == 0 {
		problems = append(problems, "hasher.time, hasher.memory_kib and hasher.threads must be positive")
	}
	if c.Hasher.Time > auth.MaxArgon2Time || c.Hasher.MemoryKiB > auth.MaxArgon2Memory {
		problems = append(problems, fmt.Sprintf("hasher.time must be at most %d and hasher.memory_kib at most %d",
			auth.MaxArgon2Time, auth.MaxArgon2Memory))
	}

	if len(problems) == 0 {
		return nil
	}
	return oops.Code("CONFIG_INVALID").
		With("problems", problems).
		Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// Redacted returns a copy of c safe to print.
func (c Config) Redacted() Config {
	if c.Session.Secret != "" {
		c.Session.Secret = logging.Redacted
	}
	c.Database.URL = redactURL(c.Database.URL)
	c.Session.RedisURL = redactURL(c.Session.RedisURL)
	return c
}

func redactURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return logging.Redacted
	}
	return u.Redacted()
}
