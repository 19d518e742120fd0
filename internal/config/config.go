// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package config loads Agora server configuration from an optional YAML
// file, command-line flags, and environment secrets.
//
// Precedence, lowest first: flag defaults, the config file, flags set on the
// command line. Secrets are never read from the file or flags.
package config

import (
	"net"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/agora-social/agora/internal/auth"
	"github.com/agora-social/agora/internal/logging"
)

// Environment variables holding secrets.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvJWTSecret   = "AGORA_JWT_SECRET"
)

// Default values for server flags.
const (
	DefaultHTTPAddr          = ":5000"
	DefaultMetricsAddr       = "127.0.0.1:9100"
	DefaultLogFormat         = "json"
	DefaultLogLevel          = "info"
	DefaultTokenHeader       = "x-auth-token"
	DefaultRequestTimeout    = 10 * time.Second
	DefaultDBConnectAttempts = 5
	DefaultConflictRetries   = 5
)

// Config is the server configuration.
type Config struct {
	HTTPAddr          string        `koanf:"http-addr"`
	MetricsAddr       string        `koanf:"metrics-addr"`
	LogFormat         string        `koanf:"log-format"`
	LogLevel          string        `koanf:"log-level"`
	TokenTTL          time.Duration `koanf:"token-ttl"`
	TokenHeader       string        `koanf:"token-header"`
	RequestTimeout    time.Duration `koanf:"request-timeout"`
	AutoMigrate       bool          `koanf:"auto-migrate"`
	DBConnectAttempts uint64        `koanf:"db-connect-attempts"`
	ConflictRetries   uint64        `koanf:"conflict-retries"`
	CORSOrigins       []string      `koanf:"cors-origins"`
	Argon2Memory      uint32        `koanf:"argon2-memory"`
	Argon2Time        uint32        `koanf:"argon2-time"`
	Argon2Threads     uint8         `koanf:"argon2-threads"`

	DatabaseURL string      `koanf:"-"`
	JWTSecret   auth.Secret `koanf:"-"`
}

// RegisterFlags declares every configuration flag with its default on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", DefaultHTTPAddr, "API listen address")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.Duration("token-ttl", auth.DefaultTokenTTL, "identity token lifetime")
	fs.String("token-header", DefaultTokenHeader, "request header carrying the identity token")
	fs.Duration("request-timeout", DefaultRequestTimeout, "per-request deadline")
	fs.Bool("auto-migrate", true, "apply pending migrations on startup")
	fs.Uint64("db-connect-attempts", DefaultDBConnectAttempts, "database connection attempts at startup")
	fs.Uint64("conflict-retries", DefaultConflictRetries, "attempts for a conflicting collection write")
	fs.StringSlice("cors-origins", nil, "allowed CORS origin glob patterns")
	fs.Uint32("argon2-memory", auth.DefaultHasherParams.Memory, "argon2id memory in KiB")
	fs.Uint32("argon2-time", auth.DefaultHasherParams.Time, "argon2id iterations")
	fs.Uint8("argon2-threads", auth.DefaultHasherParams.Threads, "argon2id parallelism")
}

// Load builds a Config from the optional YAML file at path, the flags in
// fs, and the environment read through getenv (os.Getenv when nil).
func Load(path string, fs *pflag.FlagSet, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_INVALID").With("path", path).Wrap(err)
		}
	}
	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	cfg.DatabaseURL = strings.TrimSpace(getenv(EnvDatabaseURL))
	cfg.JWTSecret = auth.Secret(getenv(EnvJWTSecret))
	return cfg, nil
}

// Validate checks the server configuration. Secrets are checked only when
// requireSecrets is set so tooling commands can run without them.
func (c *Config) Validate(requireSecrets bool) error {
	if c.HTTPAddr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("http-addr is required")
	}
	if err := checkAddr("http-addr", c.HTTPAddr); err != nil {
		return err
	}
	if c.MetricsAddr != "" {
		if err := checkAddr("metrics-addr", c.MetricsAddr); err != nil {
			return err
		}
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log-format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return oops.Code("CONFIG_INVALID").Errorf("log-level: %v", err)
	}
	if c.TokenTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("token-ttl must be positive, got %s", c.TokenTTL)
	}
	if strings.TrimSpace(c.TokenHeader) == "" {
		return oops.Code("CONFIG_INVALID").Errorf("token-header is required")
	}
	if c.RequestTimeout <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("request-timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.DBConnectAttempts == 0 {
		return oops.Code("CONFIG_INVALID").Errorf("db-connect-attempts must be at least 1")
	}
	if c.ConflictRetries == 0 {
		return oops.Code("CONFIG_INVALID").Errorf("conflict-retries must be at least 1")
	}
	if err := c.HasherParams().Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").Errorf("argon2: %v", err)
	}

	if !requireSecrets {
		return nil
	}
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("%s environment variable is required", EnvDatabaseURL)
	}
	if len(c.JWTSecret) < auth.MinSecretLength {
		return oops.Code("CONFIG_INVALID").
			Errorf("%s must be at least %d bytes", EnvJWTSecret, auth.MinSecretLength)
	}
	return nil
}

// HasherParams returns the configured argon2id parameters.
func (c *Config) HasherParams() auth.HasherParams {
	return auth.HasherParams{Memory: c.Argon2Memory, Time: c.Argon2Time, Threads: c.Argon2Threads}
}

// LogOptions returns the logging options. Validate must have passed.
func (c *Config) LogOptions() logging.Options {
	level, _ := logging.ParseLevel(c.LogLevel) //nolint:errcheck // checked by Validate
	return logging.Options{Format: c.LogFormat, Level: level}
}

func checkAddr(name, addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return oops.Code("CONFIG_INVALID").With("addr", addr).Errorf("%s must be host:port: %v", name, err)
	}
	return nil
}
