package allocator

import (
	"shop-concierge/internal/booking/matcher"
	"shop-concierge/internal/booking/preference"
	"shop-concierge/internal/models"
)

// pass is one relaxation level: records accepted here are tagged with tier.
type pass struct {
	tier   MatchTier
	accept func(models.Shop) bool
}

func explorerPasses(prefs preference.Preferences) []pass {
	companion := func(s models.Shop) bool { return matcher.MatchesCompanion(s, prefs) }
	vibe := func(s models.Shop) bool { return matcher.MatchesVibe(s, prefs) }

	return []pass{
		{tier: TierBoth, accept: func(s models.Shop) bool { return companion(s) && vibe(s) }},
		{tier: TierCompanion, accept: companion},
		{tier: TierVibe, accept: vibe},
		{tier: TierGeneric, accept: func(models.Shop) bool { return true }},
	}
}

// Explorer fills up to target picks from a single area. Each pass walks the
// pool in order and only adds eligible records not already taken, so a
// stricter tier is always exhausted before a looser one contributes.
func Explorer(pool AreaPool, prefs preference.Preferences, target int) []Pick {
	set := newPickSet(target)
	for _, p := range explorerPasses(prefs) {
		for _, s := range pool.Shops {
			if set.len() >= target {
				return set.picks
			}
			if !matcher.Eligible(s) || set.has(s.ShopID) || !p.accept(s) {
				continue
			}
			set.add(s, pool.Area, p.tier)
		}
	}
	return set.picks
}
