// Package config loads service configuration from a YAML file and
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the travelmail service and CLI.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	NATS       NATSConfig       `yaml:"nats"`
	Redis      RedisConfig      `yaml:"redis"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	API        APIConfig        `yaml:"api"`
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// PipelineConfig tunes the extraction pipeline.
type PipelineConfig struct {
	Workers             int      `yaml:"workers"`
	ContextReweighting  bool     `yaml:"context_reweighting"`
	MergePolicy         string   `yaml:"merge_policy"` // "once_per_trip" or "per_merge"
	RoundTripWindowDays int      `yaml:"roundtrip_window_days"`
	TrustedDomains      []string `yaml:"trusted_domains"` // Replaces the built-in list when set.
}

// NATSConfig configures the email ingest subscription.
type NATSConfig struct {
	URL           string        `yaml:"url"`
	SubjectIn     string        `yaml:"subject_in"`
	SubjectOut    string        `yaml:"subject_out"`
	Queue         string        `yaml:"queue"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// RedisConfig configures the processed-email filter. An empty URL disables it.
type RedisConfig struct {
	URL       string        `yaml:"url"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// SQLiteConfig locates the candidate review database.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig holds PostgreSQL connection settings for confirmed periods.
type PostgresConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ClickHouseConfig holds ClickHouse connection settings for audit events.
type ClickHouseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// APIConfig configures the review HTTP server.
type APIConfig struct {
	Addr    string   `yaml:"addr"`
	APIKeys []string `yaml:"api_keys"` // Empty disables authentication.
}

// Default returns a configuration with local development settings.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "json"},
		Pipeline: PipelineConfig{
			Workers:             4,
			ContextReweighting:  true,
			MergePolicy:         "once_per_trip",
			RoundTripWindowDays: 30,
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			SubjectIn:     "travelmail.emails",
			SubjectOut:    "travelmail.records",
			Queue:         "travelmail",
			BatchSize:     50,
			FlushInterval: 2 * time.Second,
		},
		Redis: RedisConfig{
			KeyPrefix: "travelmail:seen:",
			TTL:       24 * time.Hour,
		},
		SQLite: SQLiteConfig{Path: "travelmail.db"},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "travelmail",
			User:     "travelmail",
			Password: "travelmail",
		},
		ClickHouse: ClickHouseConfig{
			Host:     "localhost",
			Port:     9000,
			Database: "travelmail",
			User:     "default",
		},
		API: APIConfig{Addr: ":8080"},
	}
}

// Load reads path (with ${VAR} expansion) over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := Parse([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping values the document does not set.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config YAML: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Log.Level = envOrDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOrDefault("LOG_FORMAT", cfg.Log.Format)
	cfg.Pipeline.Workers = envOrDefaultInt("PIPELINE_WORKERS", cfg.Pipeline.Workers)
	cfg.NATS.URL = envOrDefault("NATS_URL", cfg.NATS.URL)
	cfg.NATS.FlushInterval = envOrDefaultDuration("NATS_FLUSH_INTERVAL", cfg.NATS.FlushInterval)
	cfg.Redis.URL = envOrDefault("REDIS_URL", cfg.Redis.URL)
	cfg.SQLite.Path = envOrDefault("SQLITE_PATH", cfg.SQLite.Path)
	cfg.Postgres.Host = envOrDefault("POSTGRES_HOST", cfg.Postgres.Host)
	cfg.Postgres.User = envOrDefault("POSTGRES_USER", cfg.Postgres.User)
	cfg.Postgres.Password = envOrDefault("POSTGRES_PASSWORD", cfg.Postgres.Password)
	cfg.Postgres.Database = envOrDefault("POSTGRES_DB", cfg.Postgres.Database)
	cfg.ClickHouse.Host = envOrDefault("CLICKHOUSE_HOST", cfg.ClickHouse.Host)
	cfg.ClickHouse.Password = envOrDefault("CLICKHOUSE_PASSWORD", cfg.ClickHouse.Password)
	cfg.API.Addr = envOrDefault("API_ADDR", cfg.API.Addr)
	if keys := os.Getenv("API_KEYS"); keys != "" {
		cfg.API.APIKeys = strings.Split(keys, ",")
	}
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	var problems []string
	if c.Pipeline.Workers <= 0 {
		problems = append(problems, "pipeline.workers must be positive")
	}
	if c.Pipeline.RoundTripWindowDays <= 0 {
		problems = append(problems, "pipeline.roundtrip_window_days must be positive")
	}
	switch c.Pipeline.MergePolicy {
	case "", "once_per_trip", "per_merge":
	default:
		problems = append(problems, fmt.Sprintf("pipeline.merge_policy %q is not once_per_trip or per_merge", c.Pipeline.MergePolicy))
	}
	if c.NATS.BatchSize <= 0 {
		problems = append(problems, "nats.batch_size must be positive")
	}
	if c.NATS.FlushInterval <= 0 {
		problems = append(problems, "nats.flush_interval must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RoundTripWindow returns the pairing window as a duration.
func (c PipelineConfig) RoundTripWindow() time.Duration {
	return time.Duration(c.RoundTripWindowDays) * 24 * time.Hour
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
