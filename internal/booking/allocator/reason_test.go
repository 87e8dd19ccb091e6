package allocator

import (
	"testing"

	"shop-concierge/internal/booking/preference"
	"shop-concierge/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestReason(t *testing.T) {
	tests := []struct {
		tier MatchTier
		want string
	}{
		{TierBoth, "Best for solo + quiet in Shibuya."},
		{TierCompanion, "Fits solo in Shibuya."},
		{TierVibe, "quiet vibe pick in Shibuya."},
		{TierGeneric, "Local daily staple in Shibuya."},
	}
	for _, tt := range tests {
		t.Run(tt.tier.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Reason(tt.tier, "solo", "quiet", "Shibuya"))
		})
	}
}

func TestAssemble(t *testing.T) {
	prefs := preference.Preferences{
		Plan:          preference.PlanExplorer,
		CompanionType: "partner",
		VibeTags:      []string{"late-night", "romantic"},
	}

	t.Run("uses area detail and the first matched vibe", func(t *testing.T) {
		shop := models.Shop{ShopID: "s1", AreaGroup: "Tokyo Urban", AreaDetail: "Shimokitazawa", VibeFit: models.TagList{"romantic", "late-night"}}
		picks := Assemble([]Pick{{Shop: shop, Area: "Tokyo Urban", Tier: TierBoth}}, prefs)
		assert.Equal(t, "Best for partner + late night in Shimokitazawa.", picks[0].Reason)
	})

	t.Run("falls back to the pool area", func(t *testing.T) {
		shop := models.Shop{ShopID: "s2"}
		picks := Assemble([]Pick{{Shop: shop, Area: "Kyoto", Tier: TierGeneric}}, prefs)
		assert.Equal(t, "Local daily staple in Kyoto.", picks[0].Reason)
	})

	t.Run("vibe pick names the tag", func(t *testing.T) {
		shop := models.Shop{ShopID: "s3", AreaGroup: "Kyoto", VibeFit: models.TagList{"romantic"}}
		picks := Assemble([]Pick{{Shop: shop, Area: "Kyoto", Tier: TierVibe}}, prefs)
		assert.Equal(t, "romantic vibe pick in Kyoto.", picks[0].Reason)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []Pick{{Shop: models.Shop{ShopID: "s4"}, Area: "Kyoto"}}
		Assemble(in, prefs)
		assert.Empty(t, in[0].Reason)
	})
}
