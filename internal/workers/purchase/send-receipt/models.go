package sendreceipt

import "shop-concierge/internal/models"

type Input struct {
	models.PurchaseEvent
}

type Output struct {
	ReceiptStatus string `json:"receiptStatus"`
	MessageID     string `json:"receiptMessageId,omitempty"`
	SentAt        string `json:"receiptSentAt,omitempty"`
}

const (
	StatusSent    = "sent"
	StatusSkipped = "skipped"
)
