package allocator

import (
	"testing"

	"shop-concierge/internal/booking/preference"
	"shop-concierge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokyo = "Tokyo Urban"

func TestExplorer_CascadeScenario(t *testing.T) {
	solo := []string{"solo"}
	quiet := []string{"quiet_reflective"}
	lively := []string{"lively"}

	// 2 double matches, 3 companion-only, 5 generic, interleaved.
	pool := AreaPool{Area: tokyo, Shops: []models.Shop{
		activeShop("g1", tokyo, []string{"family"}, lively),
		activeShop("c1", tokyo, solo, lively),
		activeShop("b1", tokyo, solo, quiet),
		activeShop("g2", tokyo, nil, nil),
		activeShop("c2", tokyo, solo, nil),
		activeShop("g3", tokyo, []string{"friends"}, lively),
		activeShop("b2", tokyo, []string{"partner", "solo"}, []string{"romantic", "quiet_reflective"}),
		activeShop("c3", tokyo, solo, lively),
		activeShop("g4", tokyo, nil, lively),
		activeShop("g5", tokyo, nil, nil),
	}}

	picks := Explorer(pool, soloQuiet(), 7)

	require.Len(t, picks, 7)
	assert.Equal(t, []string{"b1", "b2", "c1", "c2", "c3", "g1", "g2"}, ids(picks))
	assert.Equal(t, TierBoth, picks[0].Tier)
	assert.Equal(t, TierBoth, picks[1].Tier)
	for _, p := range picks[2:5] {
		assert.Equal(t, TierCompanion, p.Tier)
	}
	for _, p := range picks[5:] {
		assert.Equal(t, TierGeneric, p.Tier)
	}
	assertSelectionInvariants(t, picks)

	assembled := Assemble(picks, soloQuiet())
	assert.Equal(t, "Best for solo + quiet reflective in Tokyo Urban.", assembled[0].Reason)
	assert.Equal(t, "Fits solo in Tokyo Urban.", assembled[2].Reason)
	assert.Equal(t, "Local daily staple in Tokyo Urban.", assembled[6].Reason)
}

func TestExplorer_CompanionPassPrecedesBroaderPasses(t *testing.T) {
	pool := AreaPool{Area: tokyo, Shops: concat(
		series("v", tokyo, 4, nil, []string{"quiet_reflective"}),
		series("g", tokyo, 4, nil, nil),
		series("c", tokyo, 7, []string{"solo"}, []string{"lively"}),
	)}

	picks := Explorer(pool, soloQuiet(), 7)

	require.Len(t, picks, 7)
	for _, p := range picks {
		assert.Equal(t, TierCompanion, p.Tier, p.Shop.ShopID)
	}
	assert.Equal(t, "c1", picks[0].Shop.ShopID)
}

func TestExplorer_VibePassBeforeGeneric(t *testing.T) {
	pool := AreaPool{Area: tokyo, Shops: concat(
		series("g", tokyo, 5, nil, nil),
		series("v", tokyo, 3, nil, []string{"quiet_reflective"}),
		series("c", tokyo, 1, []string{"solo"}, nil),
	)}

	picks := Explorer(pool, soloQuiet(), 7)

	assert.Equal(t, []string{"c1", "v1", "v2", "v3", "g1", "g2", "g3"}, ids(picks))
	assert.Equal(t, TierVibe, picks[1].Tier)
}

func TestExplorer_SkipsIneligibleAndDuplicates(t *testing.T) {
	pool := AreaPool{Area: tokyo, Shops: []models.Shop{
		{ShopID: "x1", ShopName: "Closed", Status: "inactive", CompanionFit: []string{"solo"}},
		{ShopID: "", ShopName: "No id", Status: "active"},
		{ShopID: "x2", ShopName: "", Status: "active"},
		activeShop("a", tokyo, []string{"solo"}, nil),
		activeShop("a", tokyo, []string{"solo"}, nil),
		activeShop("b", tokyo, nil, nil),
	}}

	picks := Explorer(pool, soloQuiet(), 7)

	assert.Equal(t, []string{"a", "b"}, ids(picks))
	assertSelectionInvariants(t, picks)
}

func TestExplorer_SizeIsMinOfTargetAndEligible(t *testing.T) {
	for _, n := range []int{0, 3, 7, 12} {
		pool := AreaPool{Area: tokyo, Shops: series("s", tokyo, n, nil, nil)}
		picks := Explorer(pool, soloQuiet(), 7)
		want := n
		if want > 7 {
			want = 7
		}
		assert.Len(t, picks, want)
	}
}

func TestExplorer_Deterministic(t *testing.T) {
	pool := AreaPool{Area: tokyo, Shops: concat(
		series("g", tokyo, 6, nil, nil),
		series("c", tokyo, 4, []string{"solo"}, nil),
	)}
	first := Explorer(pool, soloQuiet(), 7)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Explorer(pool, soloQuiet(), 7))
	}
}

func TestExplorer_NoPreferenceMakesFirstPassCompanionOnly(t *testing.T) {
	prefs := soloQuiet()
	prefs.NoPreference = true
	prefs.VibeTags = nil

	pool := AreaPool{Area: tokyo, Shops: concat(
		series("g", tokyo, 3, nil, []string{"lively"}),
		series("c", tokyo, 2, []string{"solo"}, []string{"romantic"}),
	)}
	picks := Assemble(Explorer(pool, prefs, 5), prefs)

	assert.Equal(t, []string{"c1", "c2", "g1", "g2", "g3"}, ids(picks))
	assert.Equal(t, TierBoth, picks[0].Tier)
	assert.Equal(t, "Fits solo in Tokyo Urban.", picks[0].Reason)
	assert.Equal(t, TierVibe, picks[2].Tier)
	assert.Equal(t, "Local daily staple in Tokyo Urban.", picks[2].Reason)
}

func TestAllocate_ExplorerInventoryGateTrips(t *testing.T) {
	pools := []AreaPool{{Area: tokyo, Shops: concat(
		series("s", tokyo, 3, []string{"solo"}, nil),
		[]models.Shop{{ShopID: "off", ShopName: "Off", Status: "inactive"}},
	)}}

	picks, err := Allocate(pools, soloQuiet(), DefaultPolicy())

	assert.Nil(t, picks)
	require.ErrorIs(t, err, ErrInsufficientInventory)
	var shortage *Shortage
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, 7, shortage.Required)
	assert.Equal(t, 3, shortage.Actual)
}

func TestAllocate_ExplorerSuccessAttachesReasons(t *testing.T) {
	pools := []AreaPool{{Area: tokyo, Shops: series("s", tokyo, 9, []string{"solo"}, []string{"quiet_reflective"})}}

	picks, err := Allocate(pools, soloQuiet(), DefaultPolicy())

	require.NoError(t, err)
	require.Len(t, picks, 7)
	for _, p := range picks {
		assert.Equal(t, "Best for solo + quiet reflective in Tokyo Urban.", p.Reason)
	}
}

func TestAllocate_RejectsPoolCountMismatch(t *testing.T) {
	_, err := Allocate([]AreaPool{{Area: "a"}, {Area: "b"}}, soloQuiet(), DefaultPolicy())
	assert.ErrorIs(t, err, preference.ErrInvalidAreaGroupsExplorer)

	_, err = Allocate(nil, preference.Preferences{Plan: "gold"}, DefaultPolicy())
	assert.ErrorIs(t, err, preference.ErrInvalidPlan)
}
