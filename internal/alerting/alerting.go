// Package alerting delivers operational alerts (bootstrap fallback,
// repeated re-sync failures) to a configured webhook.
package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds webhook alerting configuration.
type Config struct {
	// WebhookURL is a Slack, Discord, or custom webhook endpoint; empty
	// disables alerting.
	WebhookURL string
	// WebhookType selects the payload format: "slack", "discord", or
	// "generic". Auto-detected from the URL when empty.
	WebhookType string
	// Timeout for webhook requests.
	Timeout time.Duration
}

// Alerter sends alerts to the configured webhook.
type Alerter struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New creates an Alerter. The webhook type is auto-detected from the URL
// when not set explicitly.
func New(cfg Config, logger *zap.Logger) *Alerter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.WebhookType == "" {
		switch {
		case strings.Contains(cfg.WebhookURL, "slack.com"):
			cfg.WebhookType = "slack"
		case strings.Contains(cfg.WebhookURL, "discord.com"):
			cfg.WebhookType = "discord"
		default:
			cfg.WebhookType = "generic"
		}
	}
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Enabled reports whether a webhook is configured.
func (a *Alerter) Enabled() bool { return a.cfg.WebhookURL != "" }

// Alert delivers one alert, best-effort: failures are logged, never
// propagated into the operation that raised the alert.
func (a *Alerter) Alert(ctx context.Context, title, message string) {
	if !a.Enabled() {
		return
	}

	var payload []byte
	var err error
	switch a.cfg.WebhookType {
	case "slack":
		payload, err = a.buildSlackPayload(title, message)
	case "discord":
		payload, err = a.buildDiscordPayload(title, message)
	default:
		payload, err = a.buildGenericPayload(title, message)
	}
	if err != nil {
		a.logger.Warn("alerting: build payload failed", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		a.logger.Warn("alerting: create request failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn("alerting: webhook request failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		a.logger.Warn("alerting: webhook returned non-success", zap.Int("status", resp.StatusCode))
		return
	}
	a.logger.Info("alerting: alert sent", zap.String("title", title))
}

func (a *Alerter) buildSlackPayload(title, message string) ([]byte, error) {
	payload := map[string]any{
		"blocks": []map[string]any{
			{
				"type": "header",
				"text": map[string]string{"type": "plain_text", "text": ":warning: " + title},
			},
			{
				"type": "section",
				"text": map[string]string{"type": "mrkdwn", "text": message},
			},
		},
	}
	return json.Marshal(payload)
}

func (a *Alerter) buildDiscordPayload(title, message string) ([]byte, error) {
	payload := map[string]any{
		"embeds": []map[string]any{
			{
				"title":       title,
				"description": message,
				"color":       16776960,
				"timestamp":   time.Now().Format(time.RFC3339),
			},
		},
	}
	return json.Marshal(payload)
}

func (a *Alerter) buildGenericPayload(title, message string) ([]byte, error) {
	payload := map[string]any{
		"title":     title,
		"message":   message,
		"source":    "powerflow",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	return json.Marshal(payload)
}
