package bookingtest

import (
	"fmt"

	"shop-concierge/internal/models"
)

// Shops builds n active shops in area with ids prefix1..prefixN and the
// given fit tags.
func Shops(prefix, area string, n int, with, vibe []string) []models.Shop {
	out := make([]models.Shop, n)
	for i := range out {
		id := fmt.Sprintf("%s%d", prefix, i+1)
		out[i] = models.Shop{
			RecordID:     "rec" + id,
			ShopID:       id,
			ShopName:     "Shop " + id,
			AreaGroup:    area,
			AreaDetail:   area + " Central",
			Status:       "active",
			CompanionFit: with,
			VibeFit:      vibe,
		}
	}
	return out
}
