package results

import "shop-concierge/internal/models"

type Input struct {
	SessionID string
}

// ShopResult is one recommended shop with its justification.
type ShopResult struct {
	models.Shop
	Match  string `json:"match"`
	Reason string `json:"reason"`
}

type Output struct {
	OK    bool         `json:"ok"`
	Plan  string       `json:"plan"`
	Who   string       `json:"who"`
	Shops []ShopResult `json:"shops"`
}
