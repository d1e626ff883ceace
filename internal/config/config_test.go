package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 8086, cfg.Server.Port)
	assert.Equal(t, "ee-productivities", cfg.Store.Database)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, int64(100), cfg.Pipeline.DefaultLimit)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Port, cfg.Server.Port)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
store:
  uri: mongodb://db.internal:27017
  database: productivity
llm:
  model: test-model
  timeout: 60s
cache:
  driver: redis
  ttl: 10m
pipeline:
  default_limit: 250
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mongodb://db.internal:27017", cfg.Store.URI)
	assert.Equal(t, "productivity", cfg.Store.Database)
	assert.Equal(t, "test-model", cfg.LLM.Model)
	assert.Equal(t, time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, int64(250), cfg.Pipeline.DefaultLimit)

	// Unset fields keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 2000, cfg.LLM.MaxTokens)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("METRICS_MONGODB_URI", "mongodb://override:27017")
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "mongodb://override:27017", cfg.Store.URI)
	assert.Equal(t, "env-model", cfg.LLM.Model)
	assert.Equal(t, "sk-or-test", cfg.LLM.APIKey)
}

func TestLoad_ExplicitAPIKeyWinsOverOpenRouter(t *testing.T) {
	t.Setenv("LLM_API_KEY", "explicit")
	t.Setenv("OPENROUTER_API_KEY", "fallback")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.LLM.APIKey)
}

func TestLoad_RedisURLSwitchesDriver(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://cache.internal:6379")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache.internal:6379", cfg.Cache.Redis.Addr)
}

func TestLoad_AuditDSNEnablesAudit(t *testing.T) {
	t.Setenv("AUDIT_DSN", "/var/lib/qe/audit.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, "/var/lib/qe/audit.db", cfg.Audit.DSN)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"empty store uri", func(c *Config) { c.Store.URI = "" }},
		{"empty database", func(c *Config) { c.Store.Database = "" }},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"bad audit driver", func(c *Config) { c.Audit.Enabled = true; c.Audit.Driver = "oracle" }},
		{"zero default limit", func(c *Config) { c.Pipeline.DefaultLimit = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestResolveRelativePath(t *testing.T) {
	assert.Equal(t, "/abs/path", ResolveRelativePath("/etc/qe/config.yaml", "/abs/path"))
	assert.Equal(t, filepath.Join("/etc/qe", "schema.txt"), ResolveRelativePath("/etc/qe/config.yaml", "schema.txt"))
}
