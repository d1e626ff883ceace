// Package config provides unified configuration loading for the Query Engine.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the Query Engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Store         StoreConfig         `yaml:"store"`
	LLM           LLMConfig           `yaml:"llm"`
	Cache         CacheConfig         `yaml:"cache"`
	Audit         AuditConfig         `yaml:"audit"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// StoreConfig holds document store connection settings.
type StoreConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
}

// LLMConfig holds language model provider settings.
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	MaxRetries  int           `yaml:"max_retries"`
	Timeout     time.Duration `yaml:"timeout"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// AuditConfig holds query audit trail settings.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver"` // sqlite3 or postgres
	DSN     string `yaml:"dsn"`
}

// PipelineConfig holds pipeline behavior settings.
type PipelineConfig struct {
	DefaultLimit        int64  `yaml:"default_limit"`
	DefaultJoinStrategy string `yaml:"default_join_strategy"`
	CacheResults        bool   `yaml:"cache_results"`
	SchemaPath          string `yaml:"schema_path"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8086,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     120 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Store: StoreConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "ee-productivities",
			ConnectTimeout: 10 * time.Second,
			QueryTimeout:   30 * time.Second,
		},
		LLM: LLMConfig{
			BaseURL:     "https://openrouter.ai/api/v1/chat/completions",
			Model:       "x-ai/grok-4.1-fast:free",
			Temperature: 0.1,
			MaxTokens:   2000,
			MaxRetries:  3,
			Timeout:     120 * time.Second,
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Audit: AuditConfig{
			Enabled: false,
			Driver:  "sqlite3",
			DSN:     "/tmp/query-engine-audit.db",
		},
		Pipeline: PipelineConfig{
			DefaultLimit:        100,
			DefaultJoinStrategy: "lookup",
			CacheResults:        false,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "debug",
			LogFormat:   "json",
			ServiceName: "query-engine",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Store.URI == "" {
		return fmt.Errorf("store uri is required")
	}

	if c.Store.Database == "" {
		return fmt.Errorf("store database is required")
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Audit.Enabled && c.Audit.Driver != "sqlite3" && c.Audit.Driver != "postgres" {
		return fmt.Errorf("invalid audit driver: %s", c.Audit.Driver)
	}

	if c.Pipeline.DefaultLimit < 1 {
		return fmt.Errorf("default_limit must be positive")
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("METRICS_MONGODB_URI"); v != "" {
		cfg.Store.URI = v
	}

	if v := os.Getenv("METRICS_MONGODB_DATABASE"); v != "" {
		cfg.Store.Database = v
	}

	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}

	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = trimScheme(v, "redis://")
	}

	if v := os.Getenv("AUDIT_DSN"); v != "" {
		cfg.Audit.Enabled = true
		cfg.Audit.DSN = v
	}

	if v := os.Getenv("AUDIT_DRIVER"); v != "" {
		cfg.Audit.Driver = v
	}

	if v := os.Getenv("SCHEMA_PATH"); v != "" {
		cfg.Pipeline.SchemaPath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

func trimScheme(v, scheme string) string {
	if len(v) >= len(scheme) && v[:len(scheme)] == scheme {
		return v[len(scheme):]
	}
	return v
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}
