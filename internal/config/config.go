package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`

	WAHAURL        string        `mapstructure:"waha_api_url"`
	WAHAAPIKey     string        `mapstructure:"waha_api_key"`
	WAHAUsername   string        `mapstructure:"waha_username"`
	WAHAPassword   string        `mapstructure:"waha_password"`
	WAHAToken      string        `mapstructure:"waha_token"`
	WAHATimeout    time.Duration `mapstructure:"waha_timeout"`
	DefaultSession string        `mapstructure:"default_session"`

	AutoResponseEnabled bool   `mapstructure:"auto_response_enabled"`
	RulesFile           string `mapstructure:"rules_file"`
	DefaultLimit        int    `mapstructure:"default_limit"`
	MaxLimit            int    `mapstructure:"max_limit"`

	WebhookSecret      string   `mapstructure:"webhook_secret"`
	WebhookVerifyToken string   `mapstructure:"webhook_verify_token"`
	APISecretKey       string   `mapstructure:"api_secret_key"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`

	RateLimitEnabled bool    `mapstructure:"rate_limit_enabled"`
	RateLimitRPS     float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst   int     `mapstructure:"rate_limit_burst"`

	HealthCheckInterval    time.Duration `mapstructure:"health_check_interval"`
	HealthCheckMaxInterval time.Duration `mapstructure:"health_check_max_interval"`

	DBDriver string `mapstructure:"db_driver"`
	DBPath   string `mapstructure:"db_path"`
	DBDSN    string `mapstructure:"db_dsn"`

	NATSURL     string `mapstructure:"nats_url"`
	NATSSubject string `mapstructure:"nats_subject"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

var defaults = map[string]any{
	"port":     "8000",
	"gin_mode": "release",

	"waha_api_url":    "http://localhost:3000",
	"waha_api_key":    "",
	"waha_username":   "",
	"waha_password":   "",
	"waha_token":      "",
	"waha_timeout":    "10s",
	"default_session": "default",

	"auto_response_enabled": true,
	"rules_file":            "",
	"default_limit":         100,
	"max_limit":             1000,

	"webhook_secret":       "",
	"webhook_verify_token": "",
	"api_secret_key":       "",
	"allowed_origins":      []string{"*"},

	"rate_limit_enabled": true,
	"rate_limit_rps":     10.0,
	"rate_limit_burst":   20,

	"health_check_interval":     "30s",
	"health_check_max_interval": "5m",

	"db_driver": "sqlite",
	"db_path":   "./waha_gateway.db",
	"db_dsn":    "",

	"nats_url":     "",
	"nats_subject": "waha.automation",

	"log_level":  "info",
	"log_format": "json",
}

// durations also accept a bare number of seconds, e.g. WAHA_TIMEOUT=30.
var durationKeys = []string{"waha_timeout", "health_check_interval", "health_check_max_interval"}

// LoadConfig reads .env (if present), the optional file named by
// CONFIG_FILE, and the process environment, in increasing precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file loaded, using process environment")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetDefault("config_file", "")
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
		}
	}

	for _, key := range durationKeys {
		raw := strings.TrimSpace(v.GetString(key))
		if n, err := strconv.Atoi(raw); err == nil {
			v.Set(key, fmt.Sprintf("%ds", n))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.WAHAURL = strings.TrimRight(strings.TrimSpace(cfg.WAHAURL), "/")
	cfg.AllowedOrigins = splitOrigins(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values for consistency.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.WAHAURL == "" {
		return errors.New("WAHA_API_URL must not be empty")
	}
	if c.WAHATimeout <= 0 {
		return fmt.Errorf("WAHA_TIMEOUT must be positive, got %s", c.WAHATimeout)
	}
	if c.DefaultSession == "" {
		return errors.New("DEFAULT_SESSION must not be empty")
	}
	if c.MaxLimit < 1 {
		return fmt.Errorf("MAX_LIMIT must be at least 1, got %d", c.MaxLimit)
	}
	if c.DefaultLimit < 1 || c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("DEFAULT_LIMIT must be between 1 and MAX_LIMIT (%d), got %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.RateLimitEnabled && (c.RateLimitRPS <= 0 || c.RateLimitBurst < 1) {
		return fmt.Errorf("rate limit needs positive RATE_LIMIT_RPS and RATE_LIMIT_BURST, got %v/%d", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.HealthCheckInterval <= 0 || c.HealthCheckMaxInterval < c.HealthCheckInterval {
		return fmt.Errorf("invalid health check intervals %s..%s", c.HealthCheckInterval, c.HealthCheckMaxInterval)
	}
	for _, o := range c.AllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("ALLOWED_ORIGINS entry %q must be * or start with http:// or https://", o)
		}
	}
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required for the postgres driver")
		}
	case "none":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q (want sqlite, postgres or none)", c.DBDriver)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// AuthEnabled reports whether the management API requires a key.
func (c *Config) AuthEnabled() bool {
	return c.APISecretKey != ""
}

func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, origin := range strings.Split(item, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				out = append(out, origin)
			}
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
