package config

import (
	"os"
	"testing"
)

func TestLoad_LocalDefaults(t *testing.T) {
	// Очищаем env
	os.Clearenv()
	os.Setenv("APP_ENV", "local")
	os.Setenv("MP_ACCESS_TOKEN", "test-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AppEnv != EnvLocal {
		t.Errorf("Expected AppEnv=local, got %s", cfg.AppEnv)
	}
	if cfg.HTTPAddr != "127.0.0.1:8080" {
		t.Errorf("Expected HTTPAddr=127.0.0.1:8080, got %s", cfg.HTTPAddr)
	}
	if cfg.OTELEndpoint != "127.0.0.1:4317" {
		t.Errorf("Expected OTELEndpoint=127.0.0.1:4317, got %s", cfg.OTELEndpoint)
	}
	if cfg.MPBaseURL != "https://api.mercadopago.com" {
		t.Errorf("Expected default MPBaseURL, got %s", cfg.MPBaseURL)
	}
	if !cfg.AllowUnsignedPings {
		t.Errorf("Expected AllowUnsignedPings=true by default")
	}
	if cfg.EmailEnabled {
		t.Errorf("Expected EmailEnabled=false by default")
	}
	if cfg.EmailPort != 587 {
		t.Errorf("Expected EmailPort=587, got %d", cfg.EmailPort)
	}
	if cfg.LedgerTTL.Hours() != 24 {
		t.Errorf("Expected LedgerTTL=24h, got %s", cfg.LedgerTTL)
	}
	if cfg.DedupTTL.Hours() != 24 {
		t.Errorf("Expected DedupTTL=24h, got %s", cfg.DedupTTL)
	}
}

func TestLoad_DockerDefaults(t *testing.T) {
	// Очищаем env
	os.Clearenv()
	os.Setenv("APP_ENV", "docker")
	os.Setenv("MP_ACCESS_TOKEN", "test-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AppEnv != EnvDocker {
		t.Errorf("Expected AppEnv=docker, got %s", cfg.AppEnv)
	}
	if cfg.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Expected HTTPAddr=0.0.0.0:8080, got %s", cfg.HTTPAddr)
	}
	if cfg.OTELEndpoint != "otel-collector:4317" {
		t.Errorf("Expected OTELEndpoint=otel-collector:4317, got %s", cfg.OTELEndpoint)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "staging")
	os.Setenv("MP_ACCESS_TOKEN", "test-token")

	if _, err := Load(); err == nil {
		t.Errorf("Expected error for APP_ENV=staging")
	}
}

func TestLoad_MissingAccessToken(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "local")

	if _, err := Load(); err == nil {
		t.Errorf("Expected error when MP_ACCESS_TOKEN is missing")
	}
}

func TestLoad_EmailEnabledRequiresSMTP(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "local")
	os.Setenv("MP_ACCESS_TOKEN", "test-token")
	os.Setenv("EMAIL_ENABLED", "true")

	if _, err := Load(); err == nil {
		t.Errorf("Expected error when EMAIL_ENABLED=true without SMTP settings")
	}

	os.Setenv("EMAIL_HOST", "smtp.example.com")
	os.Setenv("EMAIL_USER", "shop")
	os.Setenv("EMAIL_PASS", "secret")
	os.Setenv("EMAIL_FROM", "shop@example.com")

	if _, err := Load(); err != nil {
		t.Errorf("Load() failed with full SMTP settings: %v", err)
	}
}
