// Package allocator turns per-area shop pools into the fixed-size,
// deduplicated selection a purchase paid for.
package allocator

import (
	"shop-concierge/internal/booking/preference"
	"shop-concierge/internal/models"
)

// MatchTier records which relaxation level admitted a pick.
type MatchTier int

const (
	TierBoth MatchTier = iota
	TierCompanion
	TierVibe
	TierGeneric
)

func (t MatchTier) String() string {
	switch t {
	case TierBoth:
		return "companion+vibe"
	case TierCompanion:
		return "companion"
	case TierVibe:
		return "vibe"
	default:
		return "generic"
	}
}

// AreaPool is the candidate list fetched for one selected area.
type AreaPool struct {
	Area  string
	Shops []models.Shop
}

// Pick is one selected shop with the area it was allocated under.
type Pick struct {
	Shop   models.Shop
	Area   string
	Tier   MatchTier
	Reason string
}

// Allocate selects, gates and annotates picks for prefs. pools must be in
// the same order as prefs.AreaSelections.
func Allocate(pools []AreaPool, prefs preference.Preferences, policy Policy) ([]Pick, error) {
	req := policy.Requirement(prefs.Plan, pools)

	var picks []Pick
	switch prefs.Plan {
	case preference.PlanExplorer:
		if len(pools) != 1 {
			return nil, preference.ErrInvalidAreaGroupsExplorer
		}
		picks = Explorer(pools[0], prefs, req.Total)
	case preference.PlanConnoisseur:
		picks = Connoisseur(pools, prefs, req)
	default:
		return nil, preference.ErrInvalidPlan
	}

	if err := Gate(picks, req); err != nil {
		return nil, err
	}
	return Assemble(picks, prefs), nil
}

// pickSet tracks what a single allocation has taken so far.
type pickSet struct {
	picks   []Pick
	seen    map[string]struct{}
	perArea map[string]int
}

func newPickSet(capacity int) *pickSet {
	return &pickSet{
		picks:   make([]Pick, 0, capacity),
		seen:    make(map[string]struct{}, capacity),
		perArea: make(map[string]int),
	}
}

func (p *pickSet) has(shopID string) bool {
	_, ok := p.seen[shopID]
	return ok
}

func (p *pickSet) add(shop models.Shop, area string, tier MatchTier) {
	p.seen[shop.ShopID] = struct{}{}
	p.perArea[area]++
	p.picks = append(p.picks, Pick{Shop: shop, Area: area, Tier: tier})
}

func (p *pickSet) len() int { return len(p.picks) }
