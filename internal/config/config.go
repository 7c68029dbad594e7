package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

const envPrefix = "STOREFRONT_"

type Config struct {
	Primary  Primary        `koanf:"primary"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Logger   LoggerConfig   `koanf:"logger"`
	Checkout CheckoutConfig `koanf:"checkout"`
	Worker   WorkerConfig   `koanf:"worker"`

	// Feature groups. These are validated when first used, so one missing
	// credential only disables the feature that needs it.
	Gateway  GatewayConfig  `koanf:"gateway"`
	Retry    RetryConfig    `koanf:"retry"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	Telegram TelegramConfig `koanf:"telegram"`
	Kafka    KafkaConfig    `koanf:"kafka"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type RedisConfig struct {
	Addr       string        `koanf:"addr" validate:"required"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	SessionTTL time.Duration `koanf:"session_ttl" validate:"required"`
}

// CheckoutConfig bounds every blocking step of the checkout flow.
type CheckoutConfig struct {
	OrderTimeout  time.Duration `koanf:"order_timeout" validate:"required"`
	VerifyTimeout time.Duration `koanf:"verify_timeout" validate:"required"`
	NotifyTimeout time.Duration `koanf:"notify_timeout" validate:"required"`
	NodeID        int64         `koanf:"node_id" validate:"min=0,max=1023"`
}

type WorkerConfig struct {
	Interval  time.Duration `koanf:"interval" validate:"required"`
	BatchSize int           `koanf:"batch_size" validate:"required"`
}

type RetryConfig struct {
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxRetries int           `koanf:"max_retries"`
}

func defaults() map[string]any {
	return map[string]any{
		"primary.env":                 "development",
		"server.port":                 "8080",
		"server.read_timeout":         "30s",
		"server.write_timeout":        "30s",
		"server.idle_timeout":         "60s",
		"database.port":               5432,
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     10,
		"database.max_idle_conns":     2,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"redis.addr":                  "localhost:6379",
		"redis.session_ttl":           "24h",
		"logger.level":                "info",
		"logger.format":               "text",
		"checkout.order_timeout":      "20s",
		"checkout.verify_timeout":     "20s",
		"checkout.notify_timeout":     "30s",
		"checkout.node_id":            1,
		"worker.interval":             "30s",
		"worker.batch_size":           100,
		"gateway.base_url":            "https://api.razorpay.com",
		"gateway.currency":            "INR",
		"gateway.timeout":             "10s",
		"retry.base_delay":            "500ms",
		"retry.max_retries":           3,
		"smtp.port":                   587,
		"smtp.sender_name":            "CRESKI Orders",
		"smtp.timeout":                "15s",
		"telegram.base_url":           "https://api.telegram.org",
		"telegram.timeout":            "10s",
		"kafka.topic":                 "storefront.orders",
	}
}

// LoadConfig reads STOREFRONT_* environment variables (and .env) on top of
// the defaults and validates the groups every request depends on.
func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		logger.Error("failed to load defaults", "error", err)
		return nil, err
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
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

	if err := mainConfig.Validate(); err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// Validate checks the core groups. Feature groups are checked lazily by
// the components that use them.
func (c *Config) Validate() error {
	groups := []struct {
		name  string
		value any
	}{
		{"primary", c.Primary},
		{"server", c.Server},
		{"database", c.Database},
		{"redis", c.Redis},
		{"logger", c.Logger},
		{"checkout", c.Checkout},
		{"worker", c.Worker},
	}

	for _, g := range groups {
		if err := validateGroup(g.name, g.value); err != nil {
			return err
		}
	}
	return nil
}
