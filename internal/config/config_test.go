package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.WAHAURL)
	assert.Equal(t, 10*time.Second, cfg.WAHATimeout)
	assert.Equal(t, "default", cfg.DefaultSession)
	assert.True(t, cfg.AutoResponseEnabled)
	assert.Equal(t, 100, cfg.DefaultLimit)
	assert.Equal(t, 1000, cfg.MaxLimit)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("WAHA_API_URL", "http://waha.internal:3000/")
	t.Setenv("WAHA_TIMEOUT", "30")
	t.Setenv("AUTO_RESPONSE_ENABLED", "false")
	t.Setenv("MAX_LIMIT", "50")
	t.Setenv("DEFAULT_LIMIT", "20")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("API_SECRET_KEY", "s3cret")
	t.Setenv("HEALTH_CHECK_INTERVAL", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://waha.internal:3000", cfg.WAHAURL)
	assert.Equal(t, 30*time.Second, cfg.WAHATimeout)
	assert.False(t, cfg.AutoResponseEnabled)
	assert.Equal(t, 50, cfg.MaxLimit)
	assert.Equal(t, 20, cfg.DefaultLimit)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.HealthCheckInterval)
	assert.True(t, cfg.AuthEnabled())
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_session: sales\nport: \"9090\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sales", cfg.DefaultSession)
	assert.Equal(t, "7070", cfg.Port, "environment beats file")
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("DEFAULT_LIMIT", "500")
	t.Setenv("MAX_LIMIT", "100")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "DEFAULT_LIMIT")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port:                   "8000",
			WAHAURL:                "http://localhost:3000",
			WAHATimeout:            time.Second,
			DefaultSession:         "default",
			DefaultLimit:           10,
			MaxLimit:               100,
			RateLimitEnabled:       true,
			RateLimitRPS:           1,
			RateLimitBurst:         1,
			HealthCheckInterval:    time.Second,
			HealthCheckMaxInterval: time.Minute,
			DBDriver:               "none",
			LogLevel:               "info",
			LogFormat:              "json",
		}
	}

	base := valid()
	require.NoError(t, base.Validate())

	base.AllowedOrigins = []string{"*", "https://dashboard.example", "http://localhost:5173"}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"zero timeout", func(c *Config) { c.WAHATimeout = 0 }},
		{"empty session", func(c *Config) { c.DefaultSession = "" }},
		{"zero max limit", func(c *Config) { c.MaxLimit = 0 }},
		{"bad rate", func(c *Config) { c.RateLimitRPS = 0 }},
		{"max below interval", func(c *Config) { c.HealthCheckMaxInterval = time.Millisecond }},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.DBDriver = "postgres" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
		{"bare origin", func(c *Config) { c.AllowedOrigins = []string{"dashboard.example"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
