package alertshortage

import (
	"time"

	"shop-concierge/internal/common/config"
)

type Config struct {
	Enabled  bool
	TopicARN string
	Timeout  time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Enabled:  cfg.Integrations.AWS.SNS.Enabled,
		TopicARN: cfg.Integrations.AWS.SNS.TopicARN,
		Timeout:  config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
	}
}
