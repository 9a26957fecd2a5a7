package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken     string `envconfig:"BOT_TOKEN" required:"true"`
	DataDir      string `envconfig:"DATA_DIR" default:"./data"`
	RunMode      string `envconfig:"RUN_MODE" default:"polling"` // polling|webhook
	WebhookURL   string `envconfig:"WEBHOOK_URL"`                // public base URL, webhook mode only
	HTTPAddr     string `envconfig:"HTTP_ADDR" default:":8080"`  // healthz + webhook listener
	HeartbeatURL string `envconfig:"HEARTBEAT_URL"`              // optional uptime ping
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`   // debug|info|warn|error
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
