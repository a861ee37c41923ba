// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AuthRPS        float64       `yaml:"auth_rps"`   // per-IP limit on unauthenticated auth routes
	AuthBurst      int           `yaml:"auth_burst"` // burst for the above
	UserRateLimit  int           `yaml:"user_rate_limit"`
	UserRateWindow time.Duration `yaml:"user_rate_window"`
	TrustedProxies []string      `yaml:"trusted_proxies"` // CIDRs allowed to set X-Forwarded-For
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL           string `yaml:"url"`
	MaxConns      int32  `yaml:"max_conns"`
	MigrateOnBoot bool   `yaml:"migrate_on_boot"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

type PaymentConfig struct {
	Provider string `yaml:"provider"` // paystack|noop
	Paystack struct {
		SecretKey string        `yaml:"secret_key"`
		BaseURL   string        `yaml:"base_url"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"paystack"`
	Currency            string        `yaml:"currency"`
	WebhookLockTTL      time.Duration `yaml:"webhook_lock_ttl"`
	ReconcileInterval   time.Duration `yaml:"reconcile_interval"` // 0 disables the stale-payment sweeper
	ReconcileStaleAfter time.Duration `yaml:"reconcile_stale_after"`
	ReconcileMaxAge     time.Duration `yaml:"reconcile_max_age"` // payments older than this are no longer swept
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Payment  PaymentConfig  `yaml:"payment"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, then lets environment variables
// (optionally from a .env file next to the binary) override secrets and DSNs.
func LoadConfig(path string, dev bool) (*Config, error) {
	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only deployment
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Database.URL, "DATABASE_URL")
	set(&cfg.Redis.URL, "REDIS_URL")
	set(&cfg.Redis.Password, "REDIS_PASSWORD")
	set(&cfg.Auth.JWTSecret, "JWT_SECRET")
	set(&cfg.Payment.Paystack.SecretKey, "PAYSTACK_SECRET_KEY")
	set(&cfg.Payment.Paystack.BaseURL, "PAYSTACK_BASE_URL")
	set(&cfg.Payment.Provider, "PAYMENT_PROVIDER")
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 15 * time.Second
	}
	if cfg.HTTP.AuthRPS <= 0 {
		cfg.HTTP.AuthRPS = 5
	}
	if cfg.HTTP.AuthBurst <= 0 {
		cfg.HTTP.AuthBurst = 10
	}
	if cfg.HTTP.UserRateLimit <= 0 {
		cfg.HTTP.UserRateLimit = 30
	}
	if cfg.HTTP.UserRateWindow <= 0 {
		cfg.HTTP.UserRateWindow = time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Auth.AccessTTL <= 0 {
		cfg.Auth.AccessTTL = 15 * time.Minute
	}
	if cfg.Auth.RefreshTTL <= 0 {
		cfg.Auth.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.Payment.Provider == "" {
		cfg.Payment.Provider = "paystack"
	}
	if cfg.Payment.Paystack.BaseURL == "" {
		cfg.Payment.Paystack.BaseURL = "https://api.paystack.co"
	}
	if cfg.Payment.Paystack.Timeout <= 0 {
		cfg.Payment.Paystack.Timeout = 10 * time.Second
	}
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "NGN"
	}
	if cfg.Payment.WebhookLockTTL <= 0 {
		cfg.Payment.WebhookLockTTL = 30 * time.Second
	}
	if cfg.Payment.ReconcileStaleAfter <= 0 {
		cfg.Payment.ReconcileStaleAfter = 15 * time.Minute
	}
	if cfg.Payment.ReconcileMaxAge <= 0 {
		cfg.Payment.ReconcileMaxAge = 48 * time.Hour
	}
}

// Validate performs minimal checks on required settings.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	// the secret key also signs webhooks, so the noop provider needs it too
	if c.Payment.Paystack.SecretKey == "" {
		return errors.New("payment.paystack.secret_key is required")
	}
	switch c.Payment.Provider {
	case "paystack", "noop":
	default:
		return fmt.Errorf("payment.provider %q not supported", c.Payment.Provider)
	}
	switch c.Payment.Currency {
	case "NGN", "USD":
	default:
		return fmt.Errorf("payment.currency %q not supported", c.Payment.Currency)
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
