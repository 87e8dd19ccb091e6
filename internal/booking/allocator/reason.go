package allocator

import (
	"fmt"
	"strings"

	"shop-concierge/internal/booking/matcher"
	"shop-concierge/internal/booking/preference"
)

// Reason renders the one-sentence justification for a tier.
func Reason(tier MatchTier, companion, vibe, area string) string {
	switch tier {
	case TierBoth:
		return fmt.Sprintf("Best for %s + %s in %s.", companion, vibe, area)
	case TierCompanion:
		return fmt.Sprintf("Fits %s in %s.", companion, area)
	case TierVibe:
		return fmt.Sprintf("%s vibe pick in %s.", vibe, area)
	default:
		return fmt.Sprintf("Local daily staple in %s.", area)
	}
}

// Assemble attaches a reason to every pick. A vibe match that was only
// vacuous has no tag to name, so its tier drops one level for the text.
func Assemble(picks []Pick, prefs preference.Preferences) []Pick {
	out := make([]Pick, len(picks))
	for i, p := range picks {
		vibe := matcher.MatchedVibe(p.Shop, prefs)
		tier := p.Tier
		if vibe == "" {
			switch tier {
			case TierBoth:
				tier = TierCompanion
			case TierVibe:
				tier = TierGeneric
			}
		}
		area := p.Shop.DisplayArea()
		if area == "" {
			area = p.Area
		}
		p.Reason = Reason(tier, strings.TrimSpace(prefs.CompanionType), humanize(vibe), area)
		out[i] = p
	}
	return out
}

func humanize(tag string) string {
	return strings.NewReplacer("_", " ", "-", " ").Replace(tag)
}
