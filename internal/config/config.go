package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
)

// Env представляет окружение приложения
type Env string

const (
	// EnvLocal - локальное окружение (для разработки на хосте)
	EnvLocal Env = "local"
	// EnvDocker - Docker окружение (для запуска в контейнерах)
	EnvDocker Env = "docker"
)

// Config содержит конфигурацию Fulfillment Service
type Config struct {
	AppEnv          Env           `env:"APP_ENV" envDefault:"local"`
	HTTPAddr        string        `env:"HTTP_ADDR"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL"`
	LogFormat       string        `env:"LOG_FORMAT"`

	// Mercado Pago
	MPAccessToken      string `env:"MP_ACCESS_TOKEN"`
	MPBaseURL          string `env:"MP_BASE_URL" envDefault:"https://api.mercadopago.com"`
	WebhookSecret      string `env:"MP_WEBHOOK_SECRET"`
	AllowUnsignedPings bool   `env:"WEBHOOK_ALLOW_UNSIGNED_PINGS" envDefault:"true"`

	// Checkout preference
	NotificationURL  string  `env:"CHECKOUT_NOTIFICATION_URL"`
	BackURLBase      string  `env:"CHECKOUT_BACK_URL_BASE"`
	ProductTitle     string  `env:"PRODUCT_TITLE" envDefault:"Digital Product"`
	ProductUnitPrice float64 `env:"PRODUCT_UNIT_PRICE" envDefault:"0.01"`

	// Продукт
	PDFFilePath       string `env:"PDF_FILE_PATH" envDefault:"./product.pdf"`
	PDFAttachmentName string `env:"PDF_ATTACHMENT_NAME" envDefault:"product.pdf"`

	// Email
	EmailEnabled bool   `env:"EMAIL_ENABLED" envDefault:"false"`
	EmailHost    string `env:"EMAIL_HOST"`
	EmailPort    int    `env:"EMAIL_PORT" envDefault:"587"`
	EmailUser    string `env:"EMAIL_USER"`
	EmailPass    string `env:"EMAIL_PASS"`
	EmailFrom    string `env:"EMAIL_FROM"`
	EmailSubject string `env:"EMAIL_SUBJECT" envDefault:"Your digital product"`

	// Templates
	TemplatesDir string `env:"TEMPLATES_DIR" envDefault:"./templates"`

	// Хранилища (in-memory, TTL против неограниченного роста)
	LedgerTTL time.Duration `env:"LEDGER_TTL" envDefault:"24h"`
	DedupTTL  time.Duration `env:"DEDUP_TTL" envDefault:"24h"`

	// Observability
	OTELEnabled       bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint      string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELSamplingRatio float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"1.0"`
}

// Load загружает конфигурацию из переменных окружения.
// Дефолты, зависящие от окружения, проставляются после парсинга.
func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.AppEnv != EnvLocal && cfg.AppEnv != EnvDocker {
		return Config{}, fmt.Errorf("invalid APP_ENV: %s (must be 'local' or 'docker')", cfg.AppEnv)
	}

	// HTTP_ADDR
	if cfg.HTTPAddr == "" {
		if cfg.AppEnv == EnvLocal {
			cfg.HTTPAddr = "127.0.0.1:8080"
		} else {
			cfg.HTTPAddr = "0.0.0.0:8080"
		}
	}

	// OTEL_EXPORTER_OTLP_ENDPOINT
	if cfg.OTELEndpoint == "" {
		if cfg.AppEnv == EnvLocal {
			cfg.OTELEndpoint = "127.0.0.1:4317"
		} else {
			cfg.OTELEndpoint = "otel-collector:4317"
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate проверяет корректность конфигурации
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.MPAccessToken == "" {
		return fmt.Errorf("MP_ACCESS_TOKEN is required")
	}
	if c.ProductUnitPrice <= 0 {
		return fmt.Errorf("PRODUCT_UNIT_PRICE must be positive")
	}
	if c.PDFFilePath == "" {
		return fmt.Errorf("PDF_FILE_PATH is required")
	}
	if c.TemplatesDir == "" {
		return fmt.Errorf("TEMPLATES_DIR is required")
	}
	if c.LedgerTTL <= 0 {
		return fmt.Errorf("LEDGER_TTL must be positive")
	}
	if c.DedupTTL <= 0 {
		return fmt.Errorf("DEDUP_TTL must be positive")
	}
	if c.OTELSamplingRatio < 0 || c.OTELSamplingRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATIO must be in [0, 1]")
	}
	// Валидация email: если enabled, то SMTP реквизиты обязательны
	if c.EmailEnabled {
		if c.EmailHost == "" {
			return fmt.Errorf("EMAIL_HOST is required when EMAIL_ENABLED=true")
		}
		if c.EmailPort <= 0 {
			return fmt.Errorf("EMAIL_PORT must be positive when EMAIL_ENABLED=true")
		}
		if c.EmailUser == "" {
			return fmt.Errorf("EMAIL_USER is required when EMAIL_ENABLED=true")
		}
		if c.EmailPass == "" {
			return fmt.Errorf("EMAIL_PASS is required when EMAIL_ENABLED=true")
		}
		if c.EmailFrom == "" {
			return fmt.Errorf("EMAIL_FROM is required when EMAIL_ENABLED=true")
		}
	}
	return nil
}

// Log выводит конфигурацию в лог (с маскировкой секретов)
func (c Config) Log() {
	log.Printf("Config loaded:")
	log.Printf("  APP_ENV: %s", c.AppEnv)
	log.Printf("  HTTP_ADDR: %s", c.HTTPAddr)
	log.Printf("  SHUTDOWN_TIMEOUT: %s", c.ShutdownTimeout)
	log.Printf("  MP_ACCESS_TOKEN: %s", maskToken(c.MPAccessToken))
	log.Printf("  MP_BASE_URL: %s", c.MPBaseURL)
	log.Printf("  MP_WEBHOOK_SECRET: %s", maskToken(c.WebhookSecret))
	log.Printf("  WEBHOOK_ALLOW_UNSIGNED_PINGS: %v", c.AllowUnsignedPings)
	log.Printf("  CHECKOUT_NOTIFICATION_URL: %s", c.NotificationURL)
	log.Printf("  CHECKOUT_BACK_URL_BASE: %s", c.BackURLBase)
	log.Printf("  PRODUCT_TITLE: %s", c.ProductTitle)
	log.Printf("  PRODUCT_UNIT_PRICE: %.2f", c.ProductUnitPrice)
	log.Printf("  PDF_FILE_PATH: %s", c.PDFFilePath)
	log.Printf("  PDF_ATTACHMENT_NAME: %s", c.PDFAttachmentName)
	log.Printf("  EMAIL_ENABLED: %v", c.EmailEnabled)
	if c.EmailEnabled {
		log.Printf("  EMAIL_HOST: %s", c.EmailHost)
		log.Printf("  EMAIL_PORT: %d", c.EmailPort)
		log.Printf("  EMAIL_USER: %s", c.EmailUser)
		log.Printf("  EMAIL_PASS: %s", maskToken(c.EmailPass))
		log.Printf("  EMAIL_FROM: %s", c.EmailFrom)
	}
	log.Printf("  TEMPLATES_DIR: %s", c.TemplatesDir)
	log.Printf("  LEDGER_TTL: %s", c.LedgerTTL)
	log.Printf("  DEDUP_TTL: %s", c.DedupTTL)
	log.Printf("  OTEL_ENABLED: %v", c.OTELEnabled)
	if c.OTELEnabled {
		log.Printf("  OTEL_EXPORTER_OTLP_ENDPOINT: %s", c.OTELEndpoint)
		log.Printf("  OTEL_SAMPLING_RATIO: %.2f", c.OTELSamplingRatio)
	}
}

// maskToken маскирует токен для безопасного логирования
func maskToken(token string) string {
	if len(token) == 0 {
		return ""
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "***" + token[len(token)-4:]
}
