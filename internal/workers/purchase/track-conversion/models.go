package trackconversion

import "shop-concierge/internal/models"

type Input struct {
	models.PurchaseEvent
}

type Output struct {
	ConversionStatus string `json:"conversionStatus"`
	SkipReason       string `json:"conversionSkipReason,omitempty"`
}

const (
	StatusTracked = "tracked"
	StatusSkipped = "skipped"
)
