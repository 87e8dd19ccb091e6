package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-concierge/internal/booking/bookingtest"
	apperrors "shop-concierge/internal/common/errors"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/models"
)

func catalog() *bookingtest.ShopStore {
	shops := bookingtest.Shops("g", "Kyoto", 25, nil, nil)
	for i := range shops {
		if i%5 == 0 {
			shops[i].Tier = "connoisseur"
		}
	}
	shops = append(shops, models.Shop{ShopID: "x", ShopName: "closed", AreaGroup: "Kyoto", Status: "closed"})
	return &bookingtest.ShopStore{Shops: shops}
}

func TestService_Execute_DefaultsAndLimit(t *testing.T) {
	tests := []struct {
		name    string
		input   Input
		count   int
		matched int
	}{
		{"default limit", Input{AreaGroup: "Kyoto"}, 7, 25},
		{"explicit limit", Input{AreaGroup: "Kyoto", Limit: "3"}, 3, 25},
		{"capped", Input{Limit: "500"}, 20, 25},
		{"tier filter", Input{Tier: "connoisseur"}, 5, 5},
		{"explicit status", Input{Status: "closed"}, 1, 1},
		{"no match", Input{AreaGroup: "Osaka"}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewService(catalog(), logger.NewTestLogger(t)).Execute(context.Background(), &tt.input)

			require.NoError(t, err)
			assert.True(t, out.OK)
			assert.Equal(t, tt.count, out.Count)
			assert.Len(t, out.Shops, tt.count)
			assert.Equal(t, tt.matched, out.TotalMatched)
		})
	}
}

func TestService_Execute_PicksWithoutRepeats(t *testing.T) {
	svc := NewService(catalog(), logger.NewTestLogger(t))
	svc.shuffle = func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}

	out, err := svc.Execute(context.Background(), &Input{Limit: "3"})

	require.NoError(t, err)
	assert.Equal(t, []string{"g25", "g24", "g23"}, []string{out.Shops[0].ShopID, out.Shops[1].ShopID, out.Shops[2].ShopID})
}

func TestService_Execute_SearchFailure(t *testing.T) {
	_, err := NewService(&bookingtest.ShopStore{Err: errors.New("boom")}, logger.NewTestLogger(t)).
		Execute(context.Background(), &Input{})

	se, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeDatastoreQueryFailed, se.Code)
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 7, ParseLimit(""))
	assert.Equal(t, 7, ParseLimit("abc"))
	assert.Equal(t, 7, ParseLimit("0"))
	assert.Equal(t, 12, ParseLimit(" 12 "))
	assert.Equal(t, 20, ParseLimit("21"))
}
