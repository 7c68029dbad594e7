package config_test

import (
	"testing"
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setDatabaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STOREFRONT_DATABASE__HOST", "localhost")
	t.Setenv("STOREFRONT_DATABASE__USER", "creski")
	t.Setenv("STOREFRONT_DATABASE__PASSWORD", "secret")
	t.Setenv("STOREFRONT_DATABASE__NAME", "storefront")
}

func TestLoadConfig(t *testing.T) {
	t.Run("applies defaults and environment", func(t *testing.T) {
		setDatabaseEnv(t)
		t.Setenv("STOREFRONT_SERVER__PORT", "9090")
		t.Setenv("STOREFRONT_CHECKOUT__ORDER_TIMEOUT", "15s")
		t.Setenv("STOREFRONT_KAFKA__BROKERS", "k1:9092,k2:9092")
		t.Setenv("STOREFRONT_TELEGRAM__CHAT_ID", "-100123")

		cfg, err := config.LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.Server.Port)
		assert.Equal(t, 15*time.Second, cfg.Checkout.OrderTimeout)
		assert.Equal(t, 20*time.Second, cfg.Checkout.VerifyTimeout)
		assert.Equal(t, "INR", cfg.Gateway.Currency)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, int64(-100123), cfg.Telegram.ChatID)
		assert.Equal(t, 24*time.Hour, cfg.Redis.SessionTTL)
	})

	t.Run("missing feature credentials do not fail startup", func(t *testing.T) {
		setDatabaseEnv(t)

		cfg, err := config.LoadConfig()

		require.NoError(t, err)
		assert.Error(t, cfg.Gateway.Validate())
		assert.Error(t, cfg.SMTP.Validate())
	})

	t.Run("missing core group fails with every key listed", func(t *testing.T) {
		t.Setenv("STOREFRONT_DATABASE__HOST", "localhost")

		_, err := config.LoadConfig()

		cfgErr, ok := config.IsMissingConfig(err)
		require.True(t, ok)
		assert.Equal(t, "database", cfgErr.Group)
		assert.ElementsMatch(t, []string{"database.user", "database.password", "database.name"}, cfgErr.Missing)
	})
}

func TestGatewayConfig(t *testing.T) {
	t.Run("enumerates missing credentials", func(t *testing.T) {
		cfg := config.GatewayConfig{BaseURL: "https://api.razorpay.com", Currency: "INR", Timeout: time.Second}

		err := cfg.Validate()

		cfgErr, ok := config.IsMissingConfig(err)
		require.True(t, ok)
		assert.Equal(t, []string{"gateway.key_id", "gateway.key_secret"}, cfgErr.Missing)
		assert.Equal(t, "gateway is not configured: missing gateway.key_id, gateway.key_secret", err.Error())
	})

	t.Run("reports malformed values separately", func(t *testing.T) {
		cfg := config.GatewayConfig{KeyID: "id", KeySecret: "s", BaseURL: "not a url", Currency: "RUPEE", Timeout: time.Second}

		cfgErr, ok := config.IsMissingConfig(cfg.Validate())

		require.True(t, ok)
		assert.Empty(t, cfgErr.Missing)
		assert.ElementsMatch(t, []string{"gateway.base_url", "gateway.currency"}, cfgErr.Invalid)
	})

	t.Run("secret only needs the key secret", func(t *testing.T) {
		secret, err := config.GatewayConfig{KeySecret: "s3cr3t"}.Secret()
		require.NoError(t, err)
		assert.Equal(t, "s3cr3t", secret)

		_, err = config.GatewayConfig{KeyID: "id"}.Secret()
		_, ok := config.IsMissingConfig(err)
		assert.True(t, ok)
	})
}

func TestSMTPConfig_ValidateOwner(t *testing.T) {
	cfg := config.SMTPConfig{
		Host: "smtp-relay.brevo.com", Port: 587, User: "u", Password: "p",
		Sender: "orders@creski.in", Timeout: time.Second,
	}
	require.NoError(t, cfg.Validate())

	cfgErr, ok := config.IsMissingConfig(cfg.ValidateOwner())
	require.True(t, ok)
	assert.Equal(t, []string{"smtp.owner_email"}, cfgErr.Missing)

	cfg.OwnerEmail = "owner@creski.in"
	assert.NoError(t, cfg.ValidateOwner())
}

func TestDatabaseConfig_ConnString(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5432, User: "creski", Password: "p@ss", Name: "storefront", SSLMode: "disable"}

	assert.Equal(t, "postgres://creski:p%40ss@db:5432/storefront?sslmode=disable", cfg.ConnString())
}
