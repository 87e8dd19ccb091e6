package allocator

import (
	"sort"

	"shop-concierge/internal/booking/matcher"
	"shop-concierge/internal/booking/preference"
	"shop-concierge/internal/models"
)

type candidate struct {
	shop  models.Shop
	area  string
	score int
}

// Connoisseur distributes req.Total picks over several areas in three
// stages, returning as soon as the total is reached:
//
//  1. each area, in selection order, contributes up to req.Share of its
//     best-scoring eligible records
//  2. the leftovers of all areas compete on score, skipping areas that
//     already hold req.FairnessCap picks
//  3. any leftover is taken regardless of the cap
func Connoisseur(pools []AreaPool, prefs preference.Preferences, req Requirement) []Pick {
	set := newPickSet(req.Total)

	for _, pool := range pools {
		taken := 0
		for _, c := range ranked(pool, prefs) {
			if set.len() >= req.Total {
				return set.picks
			}
			if taken >= req.Share {
				break
			}
			if set.has(c.shop.ShopID) {
				continue
			}
			set.add(c.shop, c.area, tierOf(c.shop, prefs))
			taken++
		}
	}

	var rest []candidate
	for _, pool := range pools {
		for _, c := range ranked(pool, prefs) {
			if !set.has(c.shop.ShopID) {
				rest = append(rest, c)
			}
		}
	}
	sortByScore(rest)

	for _, c := range rest {
		if set.len() >= req.Total {
			return set.picks
		}
		if set.has(c.shop.ShopID) || set.perArea[c.area] >= req.FairnessCap {
			continue
		}
		set.add(c.shop, c.area, tierOf(c.shop, prefs))
	}

	for _, c := range rest {
		if set.len() >= req.Total {
			break
		}
		if set.has(c.shop.ShopID) {
			continue
		}
		set.add(c.shop, c.area, tierOf(c.shop, prefs))
	}
	return set.picks
}

// ranked returns the eligible records of pool sorted by descending score,
// keeping pool order among equal scores.
func ranked(pool AreaPool, prefs preference.Preferences) []candidate {
	out := make([]candidate, 0, len(pool.Shops))
	for _, s := range pool.Shops {
		if !matcher.Eligible(s) {
			continue
		}
		out = append(out, candidate{shop: s, area: pool.Area, score: matcher.Score(s, prefs)})
	}
	sortByScore(out)
	return out
}

func sortByScore(c []candidate) {
	sort.SliceStable(c, func(i, j int) bool { return c[i].score > c[j].score })
}

func tierOf(s models.Shop, prefs preference.Preferences) MatchTier {
	companion := matcher.MatchesCompanion(s, prefs)
	vibe := matcher.MatchesVibe(s, prefs)
	switch {
	case companion && vibe:
		return TierBoth
	case companion:
		return TierCompanion
	case vibe:
		return TierVibe
	default:
		return TierGeneric
	}
}
