package models

// PurchaseEvent is the variable set a completed purchase publishes to the
// fulfilment process and its workers.
type PurchaseEvent struct {
	SessionID     string `json:"sessionId"`
	Plan          string `json:"plan"`
	PaymentStatus string `json:"paymentStatus"`
	AmountTotal   int64  `json:"amountTotal"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	AreaGroups    string `json:"areaGroups,omitempty"`
	Who           string `json:"who,omitempty"`
	Vibes         string `json:"vibes,omitempty"`
	GAClientID    string `json:"gaClientId,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

// NewPurchaseEvent copies the event fields off a stored purchase.
func NewPurchaseEvent(p Purchase) PurchaseEvent {
	ev := PurchaseEvent{
		SessionID:     p.SessionID,
		Plan:          p.Plan,
		PaymentStatus: p.PaymentStatus,
		Currency:      p.Currency,
		CustomerEmail: p.CustomerEmail,
		AreaGroups:    p.AreaGroups,
		Who:           p.Who,
		Vibes:         p.Vibes,
		GAClientID:    p.GAClientID,
		CreatedAt:     p.CreatedAt,
	}
	if p.AmountTotal != nil {
		ev.AmountTotal = *p.AmountTotal
	}
	return ev
}

// ShortageEvent describes an allocation the inventory gate rejected.
type ShortageEvent struct {
	SessionID string   `json:"sessionId"`
	Plan      string   `json:"plan"`
	Areas     []string `json:"areas"`
	Required  int      `json:"required"`
	Actual    int      `json:"actual"`
	// Area is set when a single area fell short of its share.
	Area       string `json:"area,omitempty"`
	DetectedAt string `json:"detectedAt"`
}
