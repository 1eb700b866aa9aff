package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"ENV", "PORT", "STORE_BACKEND", "ALLOWED_ORIGINS", "FRONTEND_URL", "TIMEZONE", "RATE_LIMIT_PER_MINUTE", "SHUTDOWN_TIMEOUT", "ENCRYPTION_KEY"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.CloudinaryEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENV", "Production")
	t.Setenv("STORE_BACKEND", "MEMORY")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,https://a.example")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("TRUST_PROXY", "true")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.TrustProxy)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.StoreBackend = "sqlite" }, wantErr: "STORE_BACKEND"},
		{name: "memory in production", mutate: func(c *Config) {
			c.Environment = "production"
			c.StoreBackend = BackendMemory
			c.EncryptionKey = "k"
		}, wantErr: "not allowed in production"},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Nowhere/Land" }, wantErr: "TIMEZONE"},
		{name: "missing key in production", mutate: func(c *Config) { c.Environment = "production" }, wantErr: "ENCRYPTION_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				StoreBackend:       BackendMongo,
				MongoURI:           "mongodb://x",
				RedisURI:           "redis://x",
				PostgresURI:        "postgres://x",
				Timezone:           "UTC",
				RateLimitPerMinute: 10,
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
