// internal/models/purchase.go
package models

import "strings"

// Payment status values after normalization.
const (
	PaymentStatusPaid    = "paid"
	PaymentStatusUnpaid  = "unpaid"
	PaymentStatusUnknown = "unknown"
)

// Purchase is the single logical record kept per checkout session.
type Purchase struct {
	ID            string `json:"id,omitempty"`
	SessionID     string `json:"session_id"`
	PaymentStatus string `json:"payment_status"`
	AmountTotal   *int64 `json:"amount_total,omitempty"`
	Currency      string `json:"currency,omitempty"`
	Plan          string `json:"plan,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	AreaGroups    string `json:"area_groups,omitempty"`
	Who           string `json:"who,omitempty"`
	Vibes         string `json:"vibes,omitempty"`
	GAClientID    string `json:"ga_client_id,omitempty"`
	Hearing       string `json:"hearing,omitempty"`
}

// Metadata flattens the preference-bearing fields into the same bag shape a
// checkout session carries, so one parser serves both sources.
func (p Purchase) Metadata() map[string]string {
	md := map[string]string{}
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			md[k] = v
		}
	}
	set("plan", p.Plan)
	set("area_groups", p.AreaGroups)
	set("who", p.Who)
	set("vibes", p.Vibes)
	set("hearing", p.Hearing)
	return md
}

// NormalizePaymentStatus folds the many provider spellings into paid/unpaid.
func NormalizePaymentStatus(s string) string {
	x := strings.ToLower(strings.TrimSpace(s))
	switch x {
	case "paid", "succeeded", "success", "complete", "completed":
		return PaymentStatusPaid
	case "unpaid", "open", "pending", "failed", "canceled", "cancelled", "requires_payment_method":
		return PaymentStatusUnpaid
	case "":
		return PaymentStatusUnknown
	}
	return x
}
