package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Checkout  CheckoutConfig  `mapstructure:"checkout"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Database, c.SSLMode,
	)
	if c.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.Password)
	}
	return dsn
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// StatusTTL is how long a non-terminal payment status is cached.
	StatusTTL time.Duration `mapstructure:"status_ttl"`
	// TerminalStatusTTL is how long a terminal payment status is cached.
	TerminalStatusTTL time.Duration `mapstructure:"terminal_status_ttl"`
	// IdempotencyTTL is how long replayable responses are kept.
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

// RateLimitConfig limits mutating payment and cancellation requests per client.
// Status polling is limited separately so a polling client is never starved.
type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Window      time.Duration `mapstructure:"window"`
	MutateLimit int           `mapstructure:"mutate_limit"`
	StatusLimit int           `mapstructure:"status_limit"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StripeConfig holds Stripe payment configuration.
type StripeConfig struct {
	SecretKey      string `mapstructure:"secret_key"`
	WebhookSecret  string `mapstructure:"webhook_secret"`
	PublishableKey string `mapstructure:"publishable_key"`
	// PaymentMethod is used by the CLI confirmer, e.g. "pm_card_visa" in test mode.
	PaymentMethod string `mapstructure:"payment_method"`
	ReturnURL     string `mapstructure:"return_url"`
}

// PricingConfig holds the flat settlement fee.
type PricingConfig struct {
	// Price in major units, e.g. "3000" NOK.
	Price    string `mapstructure:"price"`
	Currency string `mapstructure:"currency"`
}

// AmountMinor returns the price in minor currency units.
func (c *PricingConfig) AmountMinor() (int64, error) {
	d, err := decimal.NewFromString(c.Price)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", c.Price, err)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("price must be positive, got %s", c.Price)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// BackendConfig holds the client's view of the backend API.
type BackendConfig struct {
	BaseURL        string               `mapstructure:"base_url"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	MaxIdleConns   int                  `mapstructure:"max_idle_conns"`
	IdleTimeout    time.Duration        `mapstructure:"idle_timeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// CircuitBreakerConfig holds circuit breaker settings for the backend client.
type CircuitBreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// CheckoutConfig holds payment status polling settings.
type CheckoutConfig struct {
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from an explicit file, or from the default
// search paths when path is empty.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Set config file name and paths
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/estateflow")
	}

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults and env
	}

	// Read from environment variables
	v.SetEnvPrefix("ESTATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Override with environment variables for sensitive values
	if password := os.Getenv("ESTATE_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv("ESTATE_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	// Stripe credentials from environment
	if secretKey := os.Getenv("ESTATE_STRIPE_SECRET_KEY"); secretKey != "" {
		cfg.Stripe.SecretKey = secretKey
	}
	if webhookSecret := os.Getenv("ESTATE_STRIPE_WEBHOOK_SECRET"); webhookSecret != "" {
		cfg.Stripe.WebhookSecret = webhookSecret
	}
	if s := os.Getenv("ESTATE_CORS_ORIGINS"); s != "" {
		cfg.Server.CORSOrigins = parseCommaSeparatedList(s)
	}

	return &cfg, nil
}

func parseCommaSeparatedList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "estateflow")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	// Redis defaults
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.status_ttl", time.Second)
	v.SetDefault("redis.terminal_status_ttl", 24*time.Hour)
	v.SetDefault("redis.idempotency_ttl", 24*time.Hour)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("rate_limit.mutate_limit", 20)
	v.SetDefault("rate_limit.status_limit", 120)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Stripe defaults
	v.SetDefault("stripe.payment_method", "pm_card_visa")

	// Pricing defaults
	v.SetDefault("pricing.price", "3000")
	v.SetDefault("pricing.currency", "nok")

	// Backend client defaults
	v.SetDefault("backend.base_url", "http://localhost:8080")
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("backend.max_idle_conns", 4)
	v.SetDefault("backend.idle_timeout", 90*time.Second)
	v.SetDefault("backend.circuit_breaker.max_requests", 1)
	v.SetDefault("backend.circuit_breaker.interval", time.Minute)
	v.SetDefault("backend.circuit_breaker.timeout", 10*time.Second)
	v.SetDefault("backend.circuit_breaker.failure_threshold", 5)

	// Checkout defaults
	v.SetDefault("checkout.poll_interval", 2*time.Second)
	v.SetDefault("checkout.max_backoff", 30*time.Second)
	v.SetDefault("checkout.poll_timeout", time.Duration(0))
	v.SetDefault("checkout.request_timeout", 30*time.Second)
}
