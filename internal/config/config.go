package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

// EnvPrefix is stripped from environment variables; "__" separates nested keys,
// so STOREFRONT_DATABASE__HOST sets database.host.
const EnvPrefix = "STOREFRONT_"

type Config struct {
	Primary   Primary         `koanf:"primary"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Gateway   GatewayConfig   `koanf:"gateway"`
	Token     TokenConfig     `koanf:"token"`
	Retry     RetryConfig     `koanf:"retry"`
	Order     OrderConfig     `koanf:"order"`
	Auth      AuthConfig      `koanf:"auth"`
	Alert     AlertConfig     `koanf:"alert"`
	Worker    WorkerConfig    `koanf:"worker"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Logger    LoggerConfig    `koanf:"logger"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port           string        `koanf:"port" validate:"required"`
	ReadTimeout    time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout   time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout    time.Duration `koanf:"idle_timeout" validate:"required"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// GatewayConfig points at the payment gateway. ServerKey authenticates outbound calls
// and signs notifications; PreviousServerKey is still accepted on notifications while
// a key rotation is in progress.
type GatewayConfig struct {
	Provider          string        `koanf:"provider" validate:"required"`
	SnapBaseURL       string        `koanf:"snap_base_url" validate:"required,url"`
	APIBaseURL        string        `koanf:"api_base_url" validate:"required,url"`
	ServerKey         string        `koanf:"server_key" validate:"required"`
	PreviousServerKey string        `koanf:"previous_server_key"`
	Timeout           time.Duration `koanf:"timeout" validate:"required"`
}

// SignatureKeys lists the keys accepted on notifications, current first.
func (c GatewayConfig) SignatureKeys() []string {
	keys := []string{c.ServerKey}
	if c.PreviousServerKey != "" {
		keys = append(keys, c.PreviousServerKey)
	}
	return keys
}

type TokenConfig struct {
	Secret         string `koanf:"secret" validate:"required,min=16"`
	PreviousSecret string `koanf:"previous_secret"`
}

// RetryConfig bounds the webhook processing retry loop. The wait before attempt n+1
// is BaseDelay * n.
type RetryConfig struct {
	MaxAttempts int           `koanf:"max_attempts" validate:"required,min=1"`
	BaseDelay   time.Duration `koanf:"base_delay"`
}

// OrderConfig tunes checkout. A PENDING order older than PendingTTL is checked with
// the gateway; one older than ExpireAfter that the gateway has never seen is expired.
type OrderConfig struct {
	DefaultShippingCost int64         `koanf:"default_shipping_cost" validate:"min=0"`
	CreateTimeout       time.Duration `koanf:"create_timeout" validate:"required"`
	PendingTTL          time.Duration `koanf:"pending_ttl" validate:"required"`
	ExpireAfter         time.Duration `koanf:"expire_after" validate:"required,gtefield=PendingTTL"`
}

type AuthConfig struct {
	StaffJWTSecret string `koanf:"staff_jwt_secret" validate:"required,min=16"`
	Issuer         string `koanf:"issuer" validate:"required"`
}

type AlertConfig struct {
	WebhookURL string        `koanf:"webhook_url" validate:"omitempty,url"`
	Timeout    time.Duration `koanf:"timeout"`
}

type WorkerConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Interval    time.Duration `koanf:"interval" validate:"required"`
	BatchSize   int           `koanf:"batch_size" validate:"required"`
	Concurrency int           `koanf:"concurrency" validate:"min=1"`
}

// RateLimitConfig limits public requests per client IP. Forwarding headers are only
// read from peers in TrustedProxies (IPs or CIDRs); otherwise the TCP peer is the client.
type RateLimitConfig struct {
	Max            int           `koanf:"max" validate:"required,min=1"`
	Window         time.Duration `koanf:"window" validate:"required"`
	TrustedProxies []string      `koanf:"trusted_proxies" validate:"dive,ip|cidr"`
}

type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json text"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"primary.env":                 "development",
		"server.port":                 "8080",
		"server.read_timeout":         "15s",
		"server.write_timeout":        "30s",
		"server.idle_timeout":         "60s",
		"server.request_timeout":      "25s",
		"database.port":               5432,
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     10,
		"database.max_idle_conns":     2,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"gateway.provider":            "midtrans",
		"gateway.snap_base_url":       "https://app.sandbox.midtrans.com",
		"gateway.api_base_url":        "https://api.sandbox.midtrans.com",
		"gateway.timeout":             "10s",
		"retry.max_attempts":          3,
		"retry.base_delay":            "500ms",
		"order.default_shipping_cost": 15000,
		"order.create_timeout":        "15s",
		"order.pending_ttl":           "30m",
		"order.expire_after":          "24h",
		"auth.issuer":                 "storefront",
		"alert.timeout":               "5s",
		"worker.enabled":              true,
		"worker.interval":             "1m",
		"worker.batch_size":           50,
		"worker.concurrency":          4,
		"rate_limit.max":              30,
		"rate_limit.window":           "1m",
		"logger.level":                "info",
		"logger.format":               "json",
	}
}

// LoadConfig reads defaults, then the optional YAML file at path, then STOREFRONT_
// environment variables, and validates the result.
func LoadConfig(path string) (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		logger.Error("failed to load config defaults", "error", err)
		return nil, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			logger.Error("failed to load config file", "path", path, "error", err)
			return nil, err
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, EnvPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
