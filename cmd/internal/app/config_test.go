package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.HTTPAddr != "0.0.0.0:8080" {
		t.Fatalf("unexpected http addr: %q", cfg.HTTPAddr)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("expected empty database url by default")
	}
	if cfg.GrantDefaultDuration != 24*time.Hour {
		t.Fatalf("unexpected grant duration: %v", cfg.GrantDefaultDuration)
	}
	if cfg.GrantMaxConcurrent != 3 {
		t.Fatalf("unexpected concurrent cap: %d", cfg.GrantMaxConcurrent)
	}
	if cfg.GrantMaxExtensionHours != 72 {
		t.Fatalf("unexpected extension ceiling: %d", cfg.GrantMaxExtensionHours)
	}
	if cfg.SecretFirstIssueWindow != 3*24*time.Hour {
		t.Fatalf("unexpected bootstrap window: %v", cfg.SecretFirstIssueWindow)
	}
	if cfg.SecretRotationWindow != 7*24*time.Hour {
		t.Fatalf("unexpected rotation window: %v", cfg.SecretRotationWindow)
	}
	if err := cfg.GrantConfig().Validate(); err != nil {
		t.Fatalf("default grant config should validate: %v", err)
	}
	if err := cfg.CredentialConfig().Validate(); err != nil {
		t.Fatalf("default credential config should validate: %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DATAGATE_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("DATAGATE_LOG_LEVEL", "debug")
	t.Setenv("DATAGATE_GRANT_MAX_CONCURRENT", "5")
	t.Setenv("DATAGATE_GRANT_SWEEP_INTERVAL", "10m")
	t.Setenv("DATAGATE_SECRET_ROTATION_WINDOW", "168h")
	t.Setenv("DATAGATE_API_TRUST_PROXY", "true")
	t.Setenv("DATAGATE_DEV_CONTRIBUTOR_ID", "dev-user")

	cfg := LoadConfig()

	if cfg.HTTPAddr != "127.0.0.1:9999" {
		t.Fatalf("unexpected http addr: %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel)
	}
	if cfg.GrantMaxConcurrent != 5 {
		t.Fatalf("unexpected concurrent cap: %d", cfg.GrantMaxConcurrent)
	}
	if cfg.GrantSweepInterval != 10*time.Minute {
		t.Fatalf("unexpected sweep interval: %v", cfg.GrantSweepInterval)
	}
	if cfg.SecretRotationWindow != 168*time.Hour {
		t.Fatalf("unexpected rotation window: %v", cfg.SecretRotationWindow)
	}
	if !cfg.APITrustProxy {
		t.Fatalf("expected trust proxy enabled")
	}
	if cfg.DevContributorID != "dev-user" {
		t.Fatalf("unexpected dev contributor: %q", cfg.DevContributorID)
	}
}
