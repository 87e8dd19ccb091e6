// Package payment wraps the hosted checkout provider behind a small
// gateway so the booking services never see provider types.
package payment

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrSessionNotFound  = errors.New("SESSION_NOT_FOUND")
	ErrInvalidSignature = errors.New("INVALID_SIGNATURE")
)

// EventCheckoutCompleted is the only event type the funnel acts on.
const EventCheckoutCompleted = "checkout.session.completed"

type CheckoutRequest struct {
	PriceID    string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// CheckoutSession is the provider session reduced to what the funnel reads.
type CheckoutSession struct {
	ID            string
	URL           string
	PaymentStatus string
	Status        string
	AmountTotal   *int64
	Currency      string
	Created       int64
	CustomerEmail string
	Metadata      map[string]string
	PriceIDs      []string
}

// Paid reports whether the session is settled: payment_status paid or
// succeeded, or status complete.
func (s *CheckoutSession) Paid() bool {
	if s == nil {
		return false
	}
	ps := strings.ToLower(s.PaymentStatus)
	return ps == "paid" || ps == "succeeded" || strings.ToLower(s.Status) == "complete"
}

// Event is a verified webhook delivery. Session is set for checkout
// session events.
type Event struct {
	ID      string
	Type    string
	Session *CheckoutSession
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// RetrieveSession returns ErrSessionNotFound for unknown ids.
	RetrieveSession(ctx context.Context, id string) (*CheckoutSession, error)
	// ConstructEvent verifies the signature header and decodes the payload.
	ConstructEvent(payload []byte, signature string) (*Event, error)
}

// Prices maps configured price ids back to plan names.
type Prices struct {
	Explorer    string
	Connoisseur string
}

// ForPlan returns the price id configured for plan, or "".
func (p Prices) ForPlan(plan string) string {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case "explorer":
		return p.Explorer
	case "connoisseur":
		return p.Connoisseur
	}
	return ""
}

// InferPlan prefers the plan recorded in metadata and otherwise matches the
// session's line-item prices. It returns "" when neither identifies a plan.
func (p Prices) InferPlan(s *CheckoutSession) string {
	if s == nil {
		return ""
	}
	if plan := strings.TrimSpace(s.Metadata["plan"]); plan != "" {
		return plan
	}
	for _, id := range s.PriceIDs {
		switch {
		case id == "":
		case id == p.Explorer:
			return "explorer"
		case id == p.Connoisseur:
			return "connoisseur"
		}
	}
	return ""
}
