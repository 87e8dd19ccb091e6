package fulfilment

import (
	"time"

	"shop-concierge/internal/common/config"
)

type Config struct {
	// Timeout bounds the purchase upsert and the notification, each.
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout: config.GetDuration(cfg.Datastore.Timeout),
	}
}
