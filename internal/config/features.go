package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator"
)

// MissingConfigError lists every field of a group that is absent or
// malformed, keyed by its koanf path.
type MissingConfigError struct {
	Group   string
	Missing []string
	Invalid []string
}

func (e *MissingConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("%s is not configured: %s", e.Group, strings.Join(parts, "; "))
}

// IsMissingConfig reports whether err is (or wraps) a MissingConfigError.
func IsMissingConfig(err error) (*MissingConfigError, bool) {
	var cfgErr *MissingConfigError
	ok := errors.As(err, &cfgErr)
	return cfgErr, ok
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

func validateGroup(group string, value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %s: %w", group, err)
	}

	cfgErr := &MissingConfigError{Group: group}
	for _, fe := range fieldErrs {
		key := group + "." + fe.Field()
		if fe.Tag() == "required" {
			cfgErr.Missing = append(cfgErr.Missing, key)
		} else {
			cfgErr.Invalid = append(cfgErr.Invalid, key)
		}
	}
	return cfgErr
}

// GatewayConfig holds the payment provider credentials.
type GatewayConfig struct {
	KeyID     string        `koanf:"key_id" validate:"required"`
	KeySecret string        `koanf:"key_secret" validate:"required"`
	BaseURL   string        `koanf:"base_url" validate:"required,url"`
	Currency  string        `koanf:"currency" validate:"required,len=3"`
	Timeout   time.Duration `koanf:"timeout" validate:"required"`
}

func (c GatewayConfig) Validate() error {
	return validateGroup("gateway", c)
}

// Secret returns the signing secret alone. Verification needs nothing else
// from the group, so it keeps working when only the order API is misconfigured.
func (c GatewayConfig) Secret() (string, error) {
	if strings.TrimSpace(c.KeySecret) == "" {
		return "", &MissingConfigError{Group: "gateway", Missing: []string{"gateway.key_secret"}}
	}
	return c.KeySecret, nil
}

type SMTPConfig struct {
	Host       string        `koanf:"host" validate:"required"`
	Port       int           `koanf:"port" validate:"required"`
	User       string        `koanf:"user" validate:"required"`
	Password   string        `koanf:"password" validate:"required"`
	Sender     string        `koanf:"sender" validate:"required,email"`
	SenderName string        `koanf:"sender_name"`
	OwnerEmail string        `koanf:"owner_email" validate:"omitempty,email"`
	Timeout    time.Duration `koanf:"timeout" validate:"required"`
}

func (c SMTPConfig) Validate() error {
	return validateGroup("smtp", c)
}

// ValidateOwner additionally requires the shop owner's address.
func (c SMTPConfig) ValidateOwner() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.OwnerEmail) == "" {
		return &MissingConfigError{Group: "smtp", Missing: []string{"smtp.owner_email"}}
	}
	return nil
}

type TelegramConfig struct {
	BotToken string        `koanf:"bot_token" validate:"required"`
	ChatID   int64         `koanf:"chat_id" validate:"required"`
	BaseURL  string        `koanf:"base_url" validate:"required,url"`
	Timeout  time.Duration `koanf:"timeout" validate:"required"`
	// WebhookSecret is compared with X-Telegram-Bot-Api-Secret-Token when set.
	WebhookSecret string `koanf:"webhook_secret"`
}

func (c TelegramConfig) Validate() error {
	return validateGroup("telegram", c)
}

type KafkaConfig struct {
	Brokers []string `koanf:"brokers" validate:"required,min=1"`
	Topic   string   `koanf:"topic" validate:"required"`
}

func (c KafkaConfig) Validate() error {
	return validateGroup("kafka", c)
}
