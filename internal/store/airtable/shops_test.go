package airtable

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/models"
)

func TestShopStore_ListByArea(t *testing.T) {
	base := &fakeBase{}
	base.add(map[string]interface{}{
		"shop_id": "s1", "shop_name": "Kissa One", "area_group": "Kyoto", "status": "active",
		"best_with": []string{"solo", "date"}, "best_vibe": "quiet|retro",
	})
	base.add(map[string]interface{}{"shop_id": "s2", "shop_name": "Kissa Two", "area_group": "Kyoto", "status": "active"})

	s := NewShopStore(newFakeClient(t, base), "shops", 200, logger.NewTestLogger(t))
	shops, err := s.ListByArea(context.Background(), "Kyoto")

	require.NoError(t, err)
	require.Len(t, shops, 2)
	assert.Equal(t, "rec1", shops[0].RecordID)
	assert.Equal(t, models.TagList{"solo", "date"}, shops[0].CompanionFit)
	assert.Equal(t, models.TagList{"quiet", "retro"}, shops[0].VibeFit)
	assert.Equal(t, []string{"AND({status}='active', {area_group}='Kyoto')"}, base.formula)
}

func TestShopStore_ListAreaDetails(t *testing.T) {
	base := &fakeBase{match: func(formula string, row map[string]interface{}) bool {
		return strings.Contains(row["area_group"].(string), "Tokyo")
	}}
	base.add(map[string]interface{}{"area_group": "Tokyo East", "area_detail": "Kuramae", "status": "active"})
	base.add(map[string]interface{}{"area_group": "Tokyo East", "area_detail": "Asakusa", "status": "active"})
	base.add(map[string]interface{}{"area_group": "Tokyo West", "area_detail": "Kuramae", "status": "active"})
	base.add(map[string]interface{}{"area_group": "Kyoto", "area_detail": "Gion", "status": "active"})

	s := NewShopStore(newFakeClient(t, base), "shops", 200, logger.NewTestLogger(t))
	areas, err := s.ListAreaDetails(context.Background(), "Tokyo")

	require.NoError(t, err)
	assert.Equal(t, []string{"Asakusa", "Kuramae"}, areas)
	assert.Equal(t, "AND(FIND('Tokyo', {area_group})>0, {status}='active')", base.formula[0])
}

func TestShopStore_SearchFormula(t *testing.T) {
	tests := []struct {
		name   string
		filter models.ShopFilter
		want   string
	}{
		{"defaults to active", models.ShopFilter{}, "{status}='active'"},
		{"all fields", models.ShopFilter{Status: "draft", AreaGroup: "Kyoto", AreaDetail: "Gion", Tier: "A", TimeSlot: "night"},
			"AND({status}='draft', {area_group}='Kyoto', {area_detail}='Gion', {tier}='A', {time_slot}='night')"},
		{"quotes escaped", models.ShopFilter{AreaGroup: "O'Hara"}, `AND({status}='active', {area_group}='O\'Hara')`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &fakeBase{}
			s := NewShopStore(newFakeClient(t, base), "shops", 200, logger.NewTestLogger(t))

			_, err := s.Search(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, base.formula)
		})
	}
}
