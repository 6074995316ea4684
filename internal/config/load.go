package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings. Values come from the environment
// (optionally populated from a local .env file).
type Config struct {
	Port string `mapstructure:"PORT"`

	GatewayURL       string        `mapstructure:"MP_API_URL"`
	GatewayPublicKey string        `mapstructure:"MP_PUBLIC_KEY"`
	GatewaySecretKey string        `mapstructure:"MP_SECRET_KEY"`
	GatewayTimeout   time.Duration `mapstructure:"GATEWAY_TIMEOUT"`
	StatusTimeout    time.Duration `mapstructure:"STATUS_TIMEOUT"`

	ChargeAmount       float64 `mapstructure:"PIX_VALOR"`
	ChargeValidityDays int     `mapstructure:"PIX_EXPIRACAO_DIAS"`
	ProductName        string  `mapstructure:"PIX_PRODUTO_NOME"`

	MaxConcurrent int           `mapstructure:"MAX_CONCURRENT"`
	AdmitTimeout  time.Duration `mapstructure:"ADMIT_TIMEOUT"`

	RetryMaxAttempts int           `mapstructure:"RETRY_MAX_ATTEMPTS"`
	RetryBaseDelay   time.Duration `mapstructure:"RETRY_BASE_DELAY"`

	MonitorInterval    time.Duration `mapstructure:"MONITOR_INTERVAL"`
	MonitorMaxAttempts int           `mapstructure:"MONITOR_MAX_ATTEMPTS"`
	MonitorConcurrency int           `mapstructure:"MONITOR_CONCURRENCY"`

	CRMWebhookURL             string        `mapstructure:"CRM_WEBHOOK_URL"`
	CRMConfirmationWebhookURL string        `mapstructure:"CRM_CONFIRMATION_WEBHOOK_URL"`
	NotifyTimeout             time.Duration `mapstructure:"NOTIFY_TIMEOUT"`
	NotifyWorkers             int           `mapstructure:"NOTIFY_WORKERS"`
	NotifyQueue               string        `mapstructure:"NOTIFY_QUEUE"`
	RedisAddr                 string        `mapstructure:"REDIS_ADDR"`
	RabbitMQURL               string        `mapstructure:"RABBITMQ_URL"`
	RabbitMQExchange          string        `mapstructure:"RABBITMQ_EXCHANGE"`

	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogFormat    string `mapstructure:"LOG_FORMAT"`
}

var keys = []string{
	"PORT",
	"MP_API_URL", "MP_PUBLIC_KEY", "MP_SECRET_KEY", "GATEWAY_TIMEOUT", "STATUS_TIMEOUT",
	"PIX_VALOR", "PIX_EXPIRACAO_DIAS", "PIX_PRODUTO_NOME",
	"MAX_CONCURRENT", "ADMIT_TIMEOUT",
	"RETRY_MAX_ATTEMPTS", "RETRY_BASE_DELAY",
	"MONITOR_INTERVAL", "MONITOR_MAX_ATTEMPTS", "MONITOR_CONCURRENCY",
	"CRM_WEBHOOK_URL", "CRM_CONFIRMATION_WEBHOOK_URL", "NOTIFY_TIMEOUT", "NOTIFY_WORKERS",
	"NOTIFY_QUEUE", "REDIS_ADDR", "RABBITMQ_URL", "RABBITMQ_EXCHANGE",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "LOG_FORMAT",
}

// Load reads the configuration from environment variables and applies defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "3000")
	v.SetDefault("MP_API_URL", DefaultAPIURL)
	v.SetDefault("GATEWAY_TIMEOUT", "30s")
	v.SetDefault("STATUS_TIMEOUT", "15s")
	v.SetDefault("PIX_VALOR", DefaultAmount)
	v.SetDefault("PIX_EXPIRACAO_DIAS", 1)
	v.SetDefault("PIX_PRODUTO_NOME", DefaultProductName)
	v.SetDefault("MAX_CONCURRENT", 10)
	v.SetDefault("ADMIT_TIMEOUT", "10s")
	v.SetDefault("RETRY_MAX_ATTEMPTS", 3)
	v.SetDefault("RETRY_BASE_DELAY", "2s")
	v.SetDefault("MONITOR_INTERVAL", "15s")
	v.SetDefault("MONITOR_MAX_ATTEMPTS", 0)
	v.SetDefault("MONITOR_CONCURRENCY", 4)
	v.SetDefault("NOTIFY_TIMEOUT", "15s")
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_QUEUE", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("RABBITMQ_EXCHANGE", "pix_events")
	v.SetDefault("LOG_FORMAT", "text")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.GatewayURL = strings.TrimSuffix(strings.TrimSpace(cfg.GatewayURL), "/")
	if cfg.MonitorMaxAttempts <= 0 && cfg.MonitorInterval > 0 {
		cfg.MonitorMaxAttempts = int(MonitorHorizon / cfg.MonitorInterval)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with. Missing gateway
// credentials are not rejected here: they surface per request as a
// configuration error.
func (c *Config) Validate() error {
	var errs []error

	if c.MaxConcurrent <= 0 {
		errs = append(errs, errors.New("MAX_CONCURRENT must be positive"))
	}
	if c.AdmitTimeout <= 0 {
		errs = append(errs, errors.New("ADMIT_TIMEOUT must be positive"))
	}
	if c.RetryMaxAttempts <= 0 {
		errs = append(errs, errors.New("RETRY_MAX_ATTEMPTS must be positive"))
	}
	if c.MonitorInterval < time.Second {
		errs = append(errs, errors.New("MONITOR_INTERVAL must be at least 1s"))
	}
	if c.MonitorConcurrency <= 0 {
		errs = append(errs, errors.New("MONITOR_CONCURRENCY must be positive"))
	}
	if c.NotifyWorkers <= 0 {
		errs = append(errs, errors.New("NOTIFY_WORKERS must be positive"))
	}
	if c.ChargeValidityDays <= 0 {
		errs = append(errs, errors.New("PIX_EXPIRACAO_DIAS must be positive"))
	}
	if c.NotifyQueue != "memory" && c.NotifyQueue != "redis" {
		errs = append(errs, fmt.Errorf("NOTIFY_QUEUE must be memory or redis, got %q", c.NotifyQueue))
	}

	return errors.Join(errs...)
}

// GatewayConfigured reports whether both gateway keys are present.
func (c *Config) GatewayConfigured() bool {
	return c.GatewayPublicKey != "" && c.GatewaySecretKey != ""
}
