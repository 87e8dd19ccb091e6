package checkout

import (
	"strings"

	"shop-concierge/internal/booking/preference"
	"shop-concierge/internal/common/config"
	"shop-concierge/internal/payment"
)

type Config struct {
	// BaseURL overrides the storefront origin derived from request headers.
	BaseURL string
	Prices  payment.Prices
	Parse   preference.Options
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		BaseURL: strings.TrimRight(strings.TrimSpace(cfg.Server.BaseURL), "/"),
		Prices: payment.Prices{
			Explorer:    cfg.Stripe.PriceExplorer,
			Connoisseur: cfg.Stripe.PriceConnoisseur,
		},
		Parse: preference.Options{RequireCompanion: cfg.Allocation.CompanionRequired()},
	}
}
