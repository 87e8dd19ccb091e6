package sendreceipt

import (
	"time"

	"shop-concierge/internal/common/config"
)

type Config struct {
	Enabled   bool
	FromEmail string
	BaseURL   string
	Timeout   time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Enabled:   cfg.Integrations.AWS.SES.Enabled,
		FromEmail: cfg.Integrations.AWS.SES.FromEmail,
		BaseURL:   cfg.Server.BaseURL,
		Timeout:   config.GetDuration(wc.Timeout),
	}
}
