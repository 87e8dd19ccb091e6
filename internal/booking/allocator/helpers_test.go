package allocator

import (
	"fmt"
	"testing"

	"shop-concierge/internal/booking/matcher"
	"shop-concierge/internal/booking/preference"
	"shop-concierge/internal/models"

	"github.com/stretchr/testify/assert"
)

func activeShop(id, area string, with, vibe []string) models.Shop {
	return models.Shop{
		ShopID:       id,
		ShopName:     "Shop " + id,
		AreaGroup:    area,
		Status:       "active",
		CompanionFit: with,
		VibeFit:      vibe,
	}
}

// series builds n shops named prefix1..prefixN with the same fit tags.
func series(prefix, area string, n int, with, vibe []string) []models.Shop {
	out := make([]models.Shop, n)
	for i := range out {
		out[i] = activeShop(fmt.Sprintf("%s%d", prefix, i+1), area, with, vibe)
	}
	return out
}

func concat(parts ...[]models.Shop) []models.Shop {
	var out []models.Shop
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func ids(picks []Pick) []string {
	out := make([]string, len(picks))
	for i, p := range picks {
		out[i] = p.Shop.ShopID
	}
	return out
}

func perArea(picks []Pick) map[string]int {
	out := map[string]int{}
	for _, p := range picks {
		out[p.Area]++
	}
	return out
}

func assertSelectionInvariants(t *testing.T, picks []Pick) {
	t.Helper()
	seen := map[string]bool{}
	for _, p := range picks {
		assert.False(t, seen[p.Shop.ShopID], "duplicate shop %s", p.Shop.ShopID)
		seen[p.Shop.ShopID] = true
		assert.True(t, matcher.Eligible(p.Shop), "ineligible shop %s", p.Shop.ShopID)
	}
}

func soloQuiet() preference.Preferences {
	return preference.Preferences{
		Plan:           preference.PlanExplorer,
		AreaSelections: []string{"Tokyo Urban"},
		CompanionType:  "solo",
		VibeTags:       []string{"quiet_reflective"},
	}
}
