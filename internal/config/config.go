// Copyright 2026 Skillflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads skillflow configuration from a YAML file with
// environment variable overrides. Environment variables take precedence
// over file values; file values take precedence over defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	skillflowerrors "github.com/skillflow/skillflow/pkg/errors"
)

// Config represents the complete skillflow configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Skills  SkillsConfig  `yaml:"skills"`
	Store   StoreConfig   `yaml:"store"`
	LLM     LLMConfig     `yaml:"llm"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Addr is the listen address (e.g., ":8080").
	// Environment: SKILLFLOW_ADDR
	// Default: :8080
	Addr string `yaml:"addr,omitempty"`

	// ReadTimeout bounds how long reading a request may take.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout,omitempty"`

	// WriteTimeout bounds how long writing a response may take.
	// Default: 120s (prompt steps can be slow)
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the log level (trace, debug, info, warn, error).
	// Environment: SKILLFLOW_LOG_LEVEL, LOG_LEVEL
	Level string `yaml:"level,omitempty"`

	// Format is the log format (json, text).
	// Environment: LOG_FORMAT
	Format string `yaml:"format,omitempty"`
}

// SkillsConfig configures where skill documents are loaded from.
type SkillsConfig struct {
	// Dir is the directory scanned for **/*.md skill documents.
	// Environment: SKILLFLOW_SKILLS_DIR
	// Default: ./skills
	Dir string `yaml:"dir,omitempty"`

	// Watch reloads the catalogue when files change.
	// Default: true
	Watch *bool `yaml:"watch,omitempty"`
}

// StoreConfig configures the snapshot store backend.
type StoreConfig struct {
	// Type is the backend type: "memory", "sqlite", or "redis".
	// Environment: SKILLFLOW_STORE
	// Default: memory
	Type string `yaml:"type,omitempty"`

	// TTL is how long suspended executions stay resumable.
	// Default: 24h
	TTL time.Duration `yaml:"ttl,omitempty"`

	// SQLite contains sqlite-specific settings.
	SQLite SQLiteConfig `yaml:"sqlite,omitempty"`

	// Redis contains redis-specific settings.
	Redis RedisConfig `yaml:"redis,omitempty"`
}

// SQLiteConfig contains sqlite connection settings.
type SQLiteConfig struct {
	// Path is the database file path.
	// Environment: SKILLFLOW_SQLITE_PATH
	// Default: skillflow.db
	Path string `yaml:"path,omitempty"`

	// WAL enables write-ahead logging.
	// Default: true
	WAL *bool `yaml:"wal,omitempty"`
}

// RedisConfig contains redis connection settings.
type RedisConfig struct {
	// Addr is the redis address.
	// Environment: SKILLFLOW_REDIS_ADDR
	// Default: localhost:6379
	Addr string `yaml:"addr,omitempty"`

	// Password is the redis password, if any.
	// Environment: SKILLFLOW_REDIS_PASSWORD
	Password string `yaml:"password,omitempty"`

	// DB is the redis database number.
	DB int `yaml:"db,omitempty"`
}

// LLMConfig configures language model adapters.
type LLMConfig struct {
	// DefaultAdapter names the adapter used when a skill does not pick one.
	// Environment: SKILLFLOW_LLM_ADAPTER
	DefaultAdapter string `yaml:"default_adapter,omitempty"`

	// RequestsPerSecond rate-limits adapter calls. Zero disables limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`

	// Burst is the rate limiter burst size.
	// Default: 1 when rate limiting is enabled
	Burst int `yaml:"burst,omitempty"`
}

// TracingConfig configures tracing and metrics.
type TracingConfig struct {
	// ServiceName identifies the service in exported telemetry.
	// Default: skillflow
	ServiceName string `yaml:"service_name,omitempty"`

	// SampleRate is the fraction of traces to sample, 0..1.
	// Default: 1
	SampleRate float64 `yaml:"sample_rate,omitempty"`

	// StdoutTrace writes spans to stdout, for local debugging.
	StdoutTrace bool `yaml:"stdout_trace,omitempty"`
}

// Default returns the default configuration.
func Default() *Config {
	watch := true
	wal := true
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Skills: SkillsConfig{
			Dir:   "./skills",
			Watch: &watch,
		},
		Store: StoreConfig{
			Type: "memory",
			TTL:  24 * time.Hour,
			SQLite: SQLiteConfig{
				Path: "skillflow.db",
				WAL:  &wal,
			},
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		LLM: LLMConfig{
			Burst: 1,
		},
		Tracing: TracingConfig{
			ServiceName: "skillflow",
			SampleRate:  1,
		},
	}
}

// Load loads configuration from an optional YAML file and the
// environment. Environment variables take precedence over file values.
// When no path is given, the default config file is used if it exists.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		if p, err := ConfigPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				configPath = p
			}
		}
	}

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &skillflowerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// applyDefaults fills in zero values so minimal config files work
// without specifying every field.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaults.Server.WriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}

	if c.Skills.Dir == "" {
		c.Skills.Dir = defaults.Skills.Dir
	}
	if c.Skills.Watch == nil {
		c.Skills.Watch = defaults.Skills.Watch
	}

	if c.Store.Type == "" {
		c.Store.Type = defaults.Store.Type
	}
	if c.Store.TTL == 0 {
		c.Store.TTL = defaults.Store.TTL
	}
	if c.Store.SQLite.Path == "" {
		c.Store.SQLite.Path = defaults.Store.SQLite.Path
	}
	if c.Store.SQLite.WAL == nil {
		c.Store.SQLite.WAL = defaults.Store.SQLite.WAL
	}
	if c.Store.Redis.Addr == "" {
		c.Store.Redis.Addr = defaults.Store.Redis.Addr
	}

	if c.LLM.Burst == 0 {
		c.LLM.Burst = defaults.LLM.Burst
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = defaults.Tracing.ServiceName
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = defaults.Tracing.SampleRate
	}
}

// loadFromEnv overrides configuration with environment variables.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("SKILLFLOW_ADDR"); val != "" {
		c.Server.Addr = val
	}
	if val := os.Getenv("SKILLFLOW_LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	} else if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := os.Getenv("SKILLFLOW_SKILLS_DIR"); val != "" {
		c.Skills.Dir = val
	}
	if val := os.Getenv("SKILLFLOW_STORE"); val != "" {
		c.Store.Type = strings.ToLower(val)
	}
	if val := os.Getenv("SKILLFLOW_SNAPSHOT_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Store.TTL = d
		}
	}
	if val := os.Getenv("SKILLFLOW_SQLITE_PATH"); val != "" {
		c.Store.SQLite.Path = val
	}
	if val := os.Getenv("SKILLFLOW_REDIS_ADDR"); val != "" {
		c.Store.Redis.Addr = val
	}
	if val := os.Getenv("SKILLFLOW_REDIS_PASSWORD"); val != "" {
		c.Store.Redis.Password = val
	}
	if val := os.Getenv("SKILLFLOW_REDIS_DB"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Store.Redis.DB = n
		}
	}
	if val := os.Getenv("SKILLFLOW_LLM_ADAPTER"); val != "" {
		c.LLM.DefaultAdapter = val
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.Store.Type {
	case "memory", "sqlite", "redis":
	default:
		return &skillflowerrors.ConfigError{
			Key:    "store.type",
			Reason: fmt.Sprintf("unknown store type %q (expected memory, sqlite, or redis)", c.Store.Type),
		}
	}
	if c.Store.TTL < 0 {
		return &skillflowerrors.ConfigError{
			Key:    "store.ttl",
			Reason: "snapshot TTL cannot be negative",
		}
	}
	if c.Store.Type == "sqlite" && c.Store.SQLite.Path == "" {
		return &skillflowerrors.ConfigError{
			Key:    "store.sqlite.path",
			Reason: "sqlite store requires a database path",
		}
	}
	if c.Store.Type == "redis" && c.Store.Redis.Addr == "" {
		return &skillflowerrors.ConfigError{
			Key:    "store.redis.addr",
			Reason: "redis store requires an address",
		}
	}
	if c.LLM.RequestsPerSecond < 0 {
		return &skillflowerrors.ConfigError{
			Key:    "llm.requests_per_second",
			Reason: "rate limit cannot be negative",
		}
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return &skillflowerrors.ConfigError{
			Key:    "tracing.sample_rate",
			Reason: "sample rate must be between 0 and 1",
		}
	}
	return nil
}
