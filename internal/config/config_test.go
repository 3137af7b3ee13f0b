package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STOREFRONT_DATABASE__HOST", "localhost")
	t.Setenv("STOREFRONT_DATABASE__USER", "store")
	t.Setenv("STOREFRONT_DATABASE__PASSWORD", "secret")
	t.Setenv("STOREFRONT_DATABASE__NAME", "storefront")
	t.Setenv("STOREFRONT_GATEWAY__SERVER_KEY", "SB-Mid-server-abc")
	t.Setenv("STOREFRONT_TOKEN__SECRET", "0123456789abcdef0123")
	t.Setenv("STOREFRONT_AUTH__STAFF_JWT_SECRET", "fedcba9876543210fedc")
}

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STOREFRONT_RETRY__MAX_ATTEMPTS", "5")
	t.Setenv("STOREFRONT_RETRY__BASE_DELAY", "2s")
	t.Setenv("STOREFRONT_GATEWAY__PREVIOUS_SERVER_KEY", "SB-Mid-server-old")
	t.Setenv("STOREFRONT_WORKER__ENABLED", "false")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Primary.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, int64(15000), cfg.Order.DefaultShippingCost)
	assert.Equal(t, 30*time.Minute, cfg.Order.PendingTTL)
	assert.Equal(t, 24*time.Hour, cfg.Order.ExpireAfter)
	assert.False(t, cfg.Worker.Enabled)
	assert.Equal(t, []string{"SB-Mid-server-abc", "SB-Mid-server-old"}, cfg.Gateway.SignatureKeys())
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STOREFRONT_SERVER__PORT", "9090")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := []byte("server:\n  port: \"7070\"\norder:\n  default_shipping_cost: 20000\nlogger:\n  format: text\n" +
		"rate_limit:\n  trusted_proxies:\n    - 10.0.0.0/8\n    - 192.0.2.1\n")
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, int64(20000), cfg.Order.DefaultShippingCost)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.RateLimit.TrustedProxies)
}

func TestLoadConfig_InvalidValuesFailValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "expiry shorter than pending ttl", key: "STOREFRONT_ORDER__EXPIRE_AFTER", val: "10m"},
		{name: "trusted proxy not an address", key: "STOREFRONT_RATE_LIMIT__TRUSTED_PROXIES", val: "proxy.internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingSecretsFailValidation(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STOREFRONT_TOKEN__SECRET", "")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	setRequiredEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGatewayConfig_SignatureKeysWithoutPrevious(t *testing.T) {
	cfg := GatewayConfig{ServerKey: "current"}
	assert.Equal(t, []string{"current"}, cfg.SignatureKeys())
}

func TestDatabaseConfig_PgxConfig(t *testing.T) {
	cfg := DatabaseConfig{
		Host:            "db.internal",
		Port:            5433,
		User:            "store",
		Password:        "p@ss word",
		Name:            "storefront",
		SSLMode:         "disable",
		MaxOpenConns:    8,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute,
	}

	pgxCfg, err := cfg.PgxConfig(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "db.internal", pgxCfg.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pgxCfg.ConnConfig.Port)
	assert.Equal(t, "p@ss word", pgxCfg.ConnConfig.Password)
	assert.Equal(t, int32(8), pgxCfg.MaxConns)
	assert.Equal(t, int32(2), pgxCfg.MinConns)
	assert.NotNil(t, pgxCfg.AfterConnect)
}

func TestLoggerConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer

	LoggerConfig{Level: "warn", Format: "json"}.newLogger(&buf).Info("hidden")
	assert.Empty(t, buf.String())

	LoggerConfig{Level: "debug", Format: "json"}.newLogger(&buf).Debug("shown", "order_id", "o-1")
	assert.Contains(t, buf.String(), `"order_id":"o-1"`)

	buf.Reset()
	LoggerConfig{Format: "text"}.newLogger(&buf).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}
