package allocator

import (
	"fmt"
	"strings"

	"shop-concierge/internal/booking/preference"
)

// TargetMode selects how large a multi-area result is.
type TargetMode string

const (
	// TargetPerArea returns ShopsPerArea for every selected area.
	TargetPerArea TargetMode = "per_area"
	// TargetTotal returns ShopsPerArea in total, spread across the areas.
	TargetTotal TargetMode = "total"
)

// ParseTargetMode accepts the config spellings and falls back to per-area.
func ParseTargetMode(s string) (TargetMode, error) {
	switch TargetMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", TargetPerArea:
		return TargetPerArea, nil
	case TargetTotal:
		return TargetTotal, nil
	}
	return "", fmt.Errorf("unknown connoisseur target mode %q", s)
}

// Policy holds the business sizing rules.
type Policy struct {
	ShopsPerArea      int
	FairnessCap       int
	ConnoisseurTarget TargetMode
	// StrictPerArea makes the gate also check every area's own share.
	StrictPerArea bool
}

// DefaultPolicy is 7 shops per area with a fairness cap of 3.
func DefaultPolicy() Policy {
	return Policy{
		ShopsPerArea:      7,
		FairnessCap:       3,
		ConnoisseurTarget: TargetPerArea,
	}
}

// Requirement is the size contract for one allocation.
type Requirement struct {
	Total         int
	Share         int
	FairnessCap   int
	Areas         []string
	StrictPerArea bool
}

// Requirement derives the size contract for plan over the given pools.
func (p Policy) Requirement(plan preference.Plan, pools []AreaPool) Requirement {
	areas := make([]string, len(pools))
	for i, pool := range pools {
		areas[i] = pool.Area
	}

	req := Requirement{
		Total:         p.ShopsPerArea,
		Share:         p.ShopsPerArea,
		FairnessCap:   p.FairnessCap,
		Areas:         areas,
		StrictPerArea: p.StrictPerArea,
	}
	if plan != preference.PlanConnoisseur || len(areas) == 0 {
		return req
	}

	if p.ConnoisseurTarget == TargetTotal {
		req.Share = p.ShopsPerArea / len(areas)
		if req.Share < 1 {
			req.Share = 1
		}
		return req
	}
	req.Total = p.ShopsPerArea * len(areas)
	return req
}
