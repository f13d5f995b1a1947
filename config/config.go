package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Stripe   StripeConfig
	Sessions SessionConfig
	Proxy    ProxyConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	PublicOrigin   string   `mapstructure:"public_origin"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AssetsDir      string   `mapstructure:"assets_dir"`
	PromptsDir     string   `mapstructure:"prompts_dir"`
}

// DatabaseConfig holds the catalog database configuration
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	Table          string        `mapstructure:"table"`
	ConnectRetries int           `mapstructure:"connect_retries"`
	ConnectDelay   time.Duration `mapstructure:"connect_delay"`
	MaxConns       int32         `mapstructure:"max_conns"`
}

// StripeConfig holds the payment provider configuration
type StripeConfig struct {
	SecretKey      string `mapstructure:"secret_key"`
	PublishableKey string `mapstructure:"publishable_key"`
	Currency       string `mapstructure:"currency"`
}

// SessionConfig holds checkout session storage configuration
type SessionConfig struct {
	TTL            time.Duration `mapstructure:"ttl"`
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

// ProxyConfig holds image proxy configuration
type ProxyConfig struct {
	AllowedDomains []string      `mapstructure:"allowed_domains"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	RateBurst      int           `mapstructure:"rate_burst"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// A local .env is optional; ignore the error when it's absent
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/xeelshop/")

	// Environment variable settings
	v.SetEnvPrefix("XEELSHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.public_origin", "")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.assets_dir", "./assets")
	v.SetDefault("server.prompts_dir", "./prompts")

	// Database defaults
	// Register env-only keys so viper's Unmarshal sees their env values
	v.SetDefault("database.url", "")
	v.SetDefault("database.table", "prodotti_xeel_shop")
	v.SetDefault("database.connect_retries", 5)
	v.SetDefault("database.connect_delay", "500ms")
	v.SetDefault("database.max_conns", 4)

	// Stripe defaults
	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.publishable_key", "")
	v.SetDefault("stripe.currency", "eur")

	// Session defaults
	v.SetDefault("sessions.ttl", "24h")
	v.SetDefault("sessions.idempotency_ttl", "24h")

	// Image proxy defaults
	v.SetDefault("proxy.allowed_domains", []string{})
	v.SetDefault("proxy.timeout", "10s")
	v.SetDefault("proxy.rate_per_second", 20.0)
	v.SetDefault("proxy.rate_burst", 40)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Database.URL == "" {
		return fmt.Errorf("catalog database URL is required (set XEELSHOP_DATABASE_URL)")
	}

	if config.Database.ConnectRetries < 1 {
		return fmt.Errorf("database connect_retries must be at least 1, got: %d", config.Database.ConnectRetries)
	}

	if config.Sessions.TTL <= 0 {
		return fmt.Errorf("sessions ttl must be positive, got: %s", config.Sessions.TTL)
	}

	if config.Proxy.Timeout <= 0 {
		return fmt.Errorf("proxy timeout must be positive, got: %s", config.Proxy.Timeout)
	}

	return nil
}
