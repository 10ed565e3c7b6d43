package config

import (
	"strings"
	"testing"
)

func baseProdConfig() *Config {
	return &Config{
		IsProduction: true,
		Server: ServerConfig{
			BindAddress:  "127.0.0.1",
			Port:         "8080",
			AllowOrigins: "https://sitenotice.example.com",
		},
		Auth: AuthConfig{
			JWTSecret:    strings.Repeat("x", 32),
			SessionHours: 24,
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: false,
		},
	}
}

func TestValidate_ProductionRequiresJWTSecret(t *testing.T) {
	cfg := baseProdConfig()
	cfg.Auth.JWTSecret = ""

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET validation error, got: %v", err)
	}
}

func TestValidate_ProductionRejectsShortJWTSecret(t *testing.T) {
	cfg := baseProdConfig()
	cfg.Auth.JWTSecret = "short"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "32 characters") {
		t.Fatalf("expected secret length validation error, got: %v", err)
	}
}

func TestValidate_ProductionRejectsLocalhostOrigins(t *testing.T) {
	cfg := baseProdConfig()
	cfg.Server.AllowOrigins = "http://localhost:5173"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "ALLOW_ORIGINS") {
		t.Fatalf("expected ALLOW_ORIGINS validation error, got: %v", err)
	}
}

func TestValidate_ProductionRejectsWildcardOrigins(t *testing.T) {
	cfg := baseProdConfig()
	cfg.Server.AllowOrigins = "*"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "wildcard") {
		t.Fatalf("expected wildcard origin validation error, got: %v", err)
	}
}

func TestValidate_ProductionMetricsRequireTokenWhenEnabled(t *testing.T) {
	cfg := baseProdConfig()
	cfg.Observability.MetricsEnabled = true
	cfg.Observability.MetricsToken = ""

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "METRICS_TOKEN") {
		t.Fatalf("expected METRICS_TOKEN validation error, got: %v", err)
	}
}

func TestValidate_ProductionMetricsEnabledWithTokenPasses(t *testing.T) {
	cfg := baseProdConfig()
	cfg.Observability.MetricsEnabled = true
	cfg.Observability.MetricsToken = "metrics-secret"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected config to validate, got: %v", err)
	}
}

func TestValidate_RejectsBadPort(t *testing.T) {
	cfg := baseProdConfig()
	cfg.IsProduction = false
	cfg.Server.Port = "notaport"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Fatalf("expected SERVER_PORT validation error, got: %v", err)
	}
}

func TestValidate_RejectsEmptyBindAddress(t *testing.T) {
	cfg := baseProdConfig()
	cfg.IsProduction = false
	cfg.Server.BindAddress = "  "

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SERVER_BIND_ADDRESS") {
		t.Fatalf("expected SERVER_BIND_ADDRESS validation error, got: %v", err)
	}
}

func TestValidate_RejectsZeroSessionHours(t *testing.T) {
	cfg := baseProdConfig()
	cfg.IsProduction = false
	cfg.Auth.SessionHours = 0

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SESSION_DURATION_HOURS") {
		t.Fatalf("expected SESSION_DURATION_HOURS validation error, got: %v", err)
	}
}

func TestLoad_DevelopmentDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg := Load()
	if cfg.IsProduction {
		t.Fatal("expected development config")
	}
	if cfg.Auth.JWTSecret == "" {
		t.Error("development config should carry a default secret")
	}
	if cfg.Auth.SessionHours != 24 {
		t.Errorf("expected default session hours 24, got %d", cfg.Auth.SessionHours)
	}
	if !cfg.Observability.MetricsEnabled {
		t.Error("metrics should default to enabled in development")
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" 127.0.0.1, ::1 ,, ")
	if len(got) != 2 || got[0] != "127.0.0.1" || got[1] != "::1" {
		t.Errorf("splitCSV returned %v", got)
	}
	if splitCSV("  ") != nil {
		t.Error("blank input should return nil")
	}
}
