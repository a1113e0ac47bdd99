package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Upstream.BaseURL != "http://127.0.0.1:5000" {
		t.Errorf("base url = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.UpstreamTimeout() != 10*time.Second {
		t.Errorf("timeout = %v", cfg.UpstreamTimeout())
	}
	if cfg.Refresh.Schedule != "" {
		t.Errorf("refresh schedule should default to disabled, got %q", cfg.Refresh.Schedule)
	}
}

func TestNestedKeysReachableFromEnv(t *testing.T) {
	t.Setenv("POWERFLOW_EMAIL_ENABLED", "true")
	t.Setenv("POWERFLOW_EMAIL_HOST", "smtp.example.com")
	t.Setenv("POWERFLOW_EMAIL_TO", "billing@example.com")
	t.Setenv("POWERFLOW_UPSTREAM_TIMEOUT_SECONDS", "30")
	t.Setenv("POWERFLOW_ALERTING_WEBHOOK_URL", "https://hooks.slack.com/services/x")

	cfg := Load()
	if !cfg.Email.Enabled {
		t.Error("email.enabled not picked up from env")
	}
	if cfg.Email.Host != "smtp.example.com" {
		t.Errorf("email.host = %q", cfg.Email.Host)
	}
	if cfg.Email.To != "billing@example.com" {
		t.Errorf("email.to = %q", cfg.Email.To)
	}
	if cfg.UpstreamTimeout() != 30*time.Second {
		t.Errorf("timeout = %v", cfg.UpstreamTimeout())
	}
	if cfg.Alerting.WebhookURL != "https://hooks.slack.com/services/x" {
		t.Errorf("webhook url = %q", cfg.Alerting.WebhookURL)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("POWERFLOW_UPSTREAM_BASE_URL", "http://billing.internal:5000")
	t.Setenv("POWERFLOW_PORT", "9090")
	t.Setenv("POWERFLOW_REFRESH_SCHEDULE", "300")

	cfg := Load()
	if cfg.Upstream.BaseURL != "http://billing.internal:5000" {
		t.Errorf("base url = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Refresh.Schedule != "300" {
		t.Errorf("schedule = %q", cfg.Refresh.Schedule)
	}
}
