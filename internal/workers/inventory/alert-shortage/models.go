package alertshortage

import "shop-concierge/internal/models"

type Input struct {
	models.ShortageEvent
}

type Output struct {
	AlertStatus string `json:"alertStatus"`
	MessageID   string `json:"alertMessageId,omitempty"`
}

const (
	StatusPublished = "published"
	StatusSkipped   = "skipped"
)
