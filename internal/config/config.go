package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Upstream struct {
		BaseURL        string `mapstructure:"base_url"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	} `mapstructure:"upstream"`

	Server struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	} `mapstructure:"server"`

	Refresh struct {
		// Schedule is either integer seconds or a standard cron expression.
		// Empty disables the periodic re-sync.
		Schedule string `mapstructure:"schedule"`
	} `mapstructure:"refresh"`

	Alerting struct {
		WebhookURL  string `mapstructure:"webhook_url"`
		WebhookType string `mapstructure:"webhook_type"`
	} `mapstructure:"alerting"`

	Email struct {
		Enabled     bool   `mapstructure:"enabled"`
		Provider    string `mapstructure:"provider"` // "smtp" or "sendgrid"
		Host        string `mapstructure:"host"`
		Port        int    `mapstructure:"port"`
		Username    string `mapstructure:"username"`
		Password    string `mapstructure:"password"`
		APIKey      string `mapstructure:"api_key"`
		FromAddress string `mapstructure:"from_address"`
		FromName    string `mapstructure:"from_name"`
		To          string `mapstructure:"to"`
	} `mapstructure:"email"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// UpstreamTimeout returns the configured timeout as a duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutSeconds) * time.Second
}

// Load reads configs/config.yaml if present and applies POWERFLOW_*
// environment variables on top. A .env file is honored when it exists.
func Load() *Config {
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")

	v.SetEnvPrefix("POWERFLOW")
	// Maps POWERFLOW_EMAIL_ENABLED onto email.enabled and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Binary works without a config file. Every key gets a default so the
	// env replacer can reach all of them, not just the ones in a file.
	v.SetDefault("upstream.base_url", "http://127.0.0.1:5000")
	v.SetDefault("upstream.timeout_seconds", 10)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_allowed_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	v.SetDefault("refresh.schedule", "")
	v.SetDefault("alerting.webhook_url", "")
	v.SetDefault("alerting.webhook_type", "")
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.provider", "smtp")
	v.SetDefault("email.host", "")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.api_key", "")
	v.SetDefault("email.from_address", "")
	v.SetDefault("email.from_name", "PowerFlow")
	v.SetDefault("email.to", "")
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		log.Printf("config: no config file found, using defaults")
	}

	// Short aliases kept alongside the canonical POWERFLOW_SECTION_KEY names.
	if err := v.BindEnv("server.port", "POWERFLOW_PORT", "POWERFLOW_SERVER_PORT"); err != nil {
		log.Printf("config: bind server.port: %v", err)
	}
	if err := v.BindEnv("log.level", "POWERFLOW_LOG_LEVEL"); err != nil {
		log.Printf("config: bind log.level: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}
	return &cfg
}
