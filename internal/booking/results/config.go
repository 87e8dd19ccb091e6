package results

import (
	"time"

	"shop-concierge/internal/booking/allocator"
	"shop-concierge/internal/booking/preference"
	"shop-concierge/internal/common/config"
)

type Config struct {
	Policy       allocator.Policy
	Parse        preference.Options
	QueryTimeout time.Duration
}

func LoadConfig(cfg *config.Config) (*Config, error) {
	mode, err := allocator.ParseTargetMode(cfg.Allocation.ConnoisseurTarget)
	if err != nil {
		return nil, err
	}
	return &Config{
		Policy: allocator.Policy{
			ShopsPerArea:      cfg.Allocation.ShopsPerArea,
			FairnessCap:       cfg.Allocation.FairnessCap,
			ConnoisseurTarget: mode,
			StrictPerArea:     cfg.Allocation.StrictPerArea,
		},
		Parse:        preference.Options{RequireCompanion: cfg.Allocation.CompanionRequired()},
		QueryTimeout: config.GetDuration(cfg.Allocation.QueryTimeoutMs),
	}, nil
}
