package fulfilment

import (
	"strings"
	"time"

	"shop-concierge/internal/booking/preference"
	"shop-concierge/internal/models"
	"shop-concierge/internal/payment"
)

const defaultCurrency = "usd"

// PurchaseFromSession builds the purchase record a checkout session stands
// for. now is used when the session carries no creation time.
func PurchaseFromSession(s *payment.CheckoutSession, prices payment.Prices, now time.Time) *models.Purchase {
	md := s.Metadata
	if md == nil {
		md = map[string]string{}
	}

	p := &models.Purchase{
		SessionID:     s.ID,
		PaymentStatus: firstOf(s.PaymentStatus, models.PaymentStatusUnpaid),
		Currency:      firstOf(s.Currency, defaultCurrency),
		Plan:          NormalizePlan(prices.InferPlan(s)),
		CustomerEmail: strings.TrimSpace(s.CustomerEmail),
		AreaGroups:    firstOf(md["area_groups"], md["areaGroups"], md["areas"]),
		Who:           strings.TrimSpace(md["who"]),
		Vibes:         strings.TrimSpace(md["vibes"]),
		GAClientID:    firstOf(md["ga_client_id"], md["gaClientId"]),
		Hearing:       strings.TrimSpace(md[preference.HearingKey]),
	}

	amount := int64(0)
	if s.AmountTotal != nil {
		amount = *s.AmountTotal
	}
	p.AmountTotal = &amount

	created := now
	if s.Created > 0 {
		created = time.Unix(s.Created, 0)
	}
	p.CreatedAt = created.UTC().Format(time.RFC3339Nano)
	return p
}

// NormalizePlan title-cases the two known plans and keeps anything else
// as given.
func NormalizePlan(raw string) string {
	plan, err := preference.ParsePlan(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return plan.Title()
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
