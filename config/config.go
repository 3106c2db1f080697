// Package config loads and validates service configuration. Configuration
// errors are fatal at boot: the service refuses to start with a missing or
// weak signing secret rather than failing at first request.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Events    EventsConfig    `mapstructure:"events"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig contains the shared store connection. An empty URL means no
// primary tier: the challenge store runs on its in-process fallback and the
// rate limiter allows everything.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// AuthConfig contains the protocol parameters.
type AuthConfig struct {
	// SessionSecret signs session tokens. Required, minimum 32 bytes, and
	// must not be shared with any other application secret.
	SessionSecret string        `mapstructure:"session_secret"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime"`
	ChallengeTTL  time.Duration `mapstructure:"challenge_ttl"`
	Domain        string        `mapstructure:"domain"`
	Statement     string        `mapstructure:"statement"`
	URI           string        `mapstructure:"uri"`
	ChainID       int64         `mapstructure:"chain_id"`
}

// RateLimitConfig contains the fixed-window limiter settings, applied
// independently to challenge issuance and verification.
type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EventsConfig toggles the login event publisher.
type EventsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MetricsConfig toggles the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 9000)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Registered empty so env-only overrides reach Unmarshal.
	v.SetDefault("redis.url", "")
	v.SetDefault("auth.session_secret", "")
	v.SetDefault("auth.uri", "")

	v.SetDefault("auth.token_lifetime", 2*time.Hour)
	v.SetDefault("auth.challenge_ttl", 10*time.Minute)
	v.SetDefault("auth.domain", "localhost")
	v.SetDefault("auth.statement", "Sign in with your wallet to continue.")
	v.SetDefault("auth.chain_id", 1)

	v.SetDefault("ratelimit.max_requests", 5)
	v.SetDefault("ratelimit.window", 60*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("events.enabled", true)
	v.SetDefault("metrics.enabled", true)
}

// Load reads configuration from an optional YAML file and WALLETAUTH_* env
// variables, validates it, and returns it. configPath may be empty.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WALLETAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Auth.Domain = strings.ToLower(cfg.Auth.Domain)
	if cfg.Auth.URI == "" {
		cfg.Auth.URI = "https://" + cfg.Auth.Domain
	}

	return &cfg, nil
}

// Validate enforces the fail-fast rules.
func (c *Config) Validate() error {
	if c.Auth.SessionSecret == "" {
		return fmt.Errorf("auth.session_secret is required")
	}
	if len(c.Auth.SessionSecret) < 32 {
		return fmt.Errorf("auth.session_secret must be at least 32 bytes")
	}
	if c.Auth.ChallengeTTL <= 0 {
		return fmt.Errorf("auth.challenge_ttl must be positive")
	}
	if c.Auth.TokenLifetime <= 0 {
		return fmt.Errorf("auth.token_lifetime must be positive")
	}
	if c.Auth.Domain == "" {
		return fmt.Errorf("auth.domain is required")
	}
	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("ratelimit.max_requests must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("ratelimit.window must be positive")
	}
	return nil
}
