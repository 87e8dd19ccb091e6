package allocator

import (
	"strings"
	"testing"

	"shop-concierge/internal/models"

	"github.com/stretchr/testify/assert"
)

func lettered(s string) []models.Shop {
	out := make([]models.Shop, 0, len(s))
	for _, r := range s {
		out = append(out, models.Shop{ShopID: string(r)})
	}
	return out
}

func order(shops []models.Shop) string {
	var b strings.Builder
	for _, s := range shops {
		b.WriteString(s.ShopID)
	}
	return b.String()
}

func TestSeededShuffle_KnownPermutations(t *testing.T) {
	tests := []struct {
		pool string
		seed string
		want string
	}{
		{"abcdefg", "cs_test_123:Tokyo Urban", "fabdgce"},
		{"abcdefg", "cs_test_123:Kyoto", "eabdcfg"},
		{"abcde", "seed", "cbdea"},
	}
	for _, tt := range tests {
		t.Run(tt.seed, func(t *testing.T) {
			assert.Equal(t, tt.want, order(SeededShuffle(lettered(tt.pool), tt.seed)))
		})
	}
}

func TestSeededShuffle_StableAndNonMutating(t *testing.T) {
	pool := lettered("abcdefghijklmnop")
	first := SeededShuffle(pool, "cs_live_1:Osaka")

	assert.Equal(t, "abcdefghijklmnop", order(pool))
	assert.Equal(t, order(first), order(SeededShuffle(pool, "cs_live_1:Osaka")))
	assert.ElementsMatch(t, pool, first)
	assert.NotEqual(t, order(first), order(SeededShuffle(pool, "cs_live_2:Osaka")))
}

func TestSeededShuffle_SmallPools(t *testing.T) {
	assert.Empty(t, SeededShuffle(nil, "x"))
	assert.Equal(t, "a", order(SeededShuffle(lettered("a"), "x")))
}
