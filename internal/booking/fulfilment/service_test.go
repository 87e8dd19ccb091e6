package fulfilment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-concierge/internal/booking/bookingtest"
	apperrors "shop-concierge/internal/common/errors"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/payment"
)

var testPrices = payment.Prices{Explorer: "price_exp", Connoisseur: "price_con"}

func amount(v int64) *int64 { return &v }

func completedEvent(s *payment.CheckoutSession) func([]byte, string) (*payment.Event, error) {
	return func([]byte, string) (*payment.Event, error) {
		return &payment.Event{ID: "evt_1", Type: payment.EventCheckoutCompleted, Session: s}, nil
	}
}

func newTestService(t *testing.T, gw *bookingtest.Gateway) (*Service, *bookingtest.PurchaseStore, *bookingtest.Notifier) {
	t.Helper()
	purchases := bookingtest.NewPurchaseStore()
	notifier := &bookingtest.Notifier{}
	svc := NewService(&Config{Timeout: time.Second}, gw, testPrices, purchases, notifier, logger.NewTestLogger(t))
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc, purchases, notifier
}

func TestService_Execute_RecordsPurchase(t *testing.T) {
	session := &payment.CheckoutSession{
		ID:            "cs_test_1",
		PaymentStatus: "paid",
		AmountTotal:   amount(4980),
		Currency:      "jpy",
		Created:       1767225600,
		CustomerEmail: "guest@example.com",
		Metadata: map[string]string{
			"plan":       "explorer",
			"areaGroups": "Kyoto Central",
			"who":        "couple",
			"vibes":      "cozy,retro",
			"gaClientId": "111.222",
			"hearing":    `{"plan":"explorer"}`,
		},
	}
	svc, purchases, notifier := newTestService(t, &bookingtest.Gateway{ConstructFunc: completedEvent(session)})

	out, err := svc.Execute(context.Background(), &Input{Payload: []byte("{}"), Signature: "t=1,v1=x"})

	require.NoError(t, err)
	assert.Equal(t, &Output{Received: true}, out)

	saved, ok := purchases.Get("cs_test_1")
	require.True(t, ok)
	assert.Equal(t, "Explorer", saved.Plan)
	assert.Equal(t, "paid", saved.PaymentStatus)
	assert.Equal(t, int64(4980), *saved.AmountTotal)
	assert.Equal(t, "Kyoto Central", saved.AreaGroups)
	assert.Equal(t, "111.222", saved.GAClientID)
	assert.Equal(t, "2026-01-01T00:00:00Z", saved.CreatedAt)
	assert.Equal(t, `{"plan":"explorer"}`, saved.Hearing)

	require.Len(t, notifier.Purchases, 1)
	assert.Equal(t, "cs_test_1", notifier.Purchases[0].SessionID)
	assert.Equal(t, "guest@example.com", notifier.Purchases[0].CustomerEmail)
}

func TestService_Execute_IgnoresOtherEvents(t *testing.T) {
	gw := &bookingtest.Gateway{ConstructFunc: func([]byte, string) (*payment.Event, error) {
		return &payment.Event{ID: "evt_2", Type: "payment_intent.created"}, nil
	}}
	svc, purchases, _ := newTestService(t, gw)

	out, err := svc.Execute(context.Background(), &Input{Signature: "sig"})

	require.NoError(t, err)
	assert.True(t, out.Received)
	assert.True(t, out.Ignored)
	assert.Zero(t, purchases.Upserts)
}

func TestService_Execute_MissingSessionIDIsAcknowledged(t *testing.T) {
	svc, purchases, notifier := newTestService(t, &bookingtest.Gateway{
		ConstructFunc: completedEvent(&payment.CheckoutSession{}),
	})

	out, err := svc.Execute(context.Background(), &Input{Signature: "sig"})

	require.NoError(t, err)
	assert.Equal(t, &Output{Received: true}, out)
	assert.Zero(t, purchases.Upserts)
	assert.Empty(t, notifier.Purchases)
}

func TestService_Execute_InvalidSignature(t *testing.T) {
	tests := []struct {
		name      string
		signature string
	}{
		{"missing header", ""},
		{"bad signature", "t=1,v1=bad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t, &bookingtest.Gateway{ConstructFunc: func([]byte, string) (*payment.Event, error) {
				return nil, payment.ErrInvalidSignature
			}})

			_, err := svc.Execute(context.Background(), &Input{Signature: tt.signature})

			se, ok := apperrors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeInvalidSignature, se.Code)
		})
	}
}

func TestService_Execute_UpsertFailureIsServerError(t *testing.T) {
	svc, purchases, notifier := newTestService(t, &bookingtest.Gateway{
		ConstructFunc: completedEvent(&payment.CheckoutSession{ID: "cs_1", PaymentStatus: "paid"}),
	})
	purchases.UpsertErr = errors.New("airtable 503")

	_, err := svc.Execute(context.Background(), &Input{Signature: "sig"})

	se, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodePurchaseUpsertFailed, se.Code)
	assert.Equal(t, 500, apperrors.HTTPStatus(se.Code))
	assert.Empty(t, notifier.Purchases)
}

func TestService_Execute_NotificationFailureIsNotReturned(t *testing.T) {
	svc, _, notifier := newTestService(t, &bookingtest.Gateway{
		ConstructFunc: completedEvent(&payment.CheckoutSession{ID: "cs_1", PaymentStatus: "paid"}),
	})
	notifier.Err = errors.New("zeebe unavailable")

	out, err := svc.Execute(context.Background(), &Input{Signature: "sig"})

	require.NoError(t, err)
	assert.True(t, out.Received)
}

func TestPurchaseFromSession_Defaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p := PurchaseFromSession(&payment.CheckoutSession{
		ID:       "cs_1",
		PriceIDs: []string{"price_con"},
		Metadata: map[string]string{"areas": "A,B,C,D"},
	}, testPrices, now)

	assert.Equal(t, "unpaid", p.PaymentStatus)
	assert.Equal(t, "usd", p.Currency)
	assert.Equal(t, int64(0), *p.AmountTotal)
	assert.Equal(t, "Connoisseur", p.Plan)
	assert.Equal(t, "A,B,C,D", p.AreaGroups)
	assert.Equal(t, "2026-03-01T09:00:00Z", p.CreatedAt)
}

func TestNormalizePlan(t *testing.T) {
	assert.Equal(t, "Explorer", NormalizePlan(" EXPLORER "))
	assert.Equal(t, "Connoisseur", NormalizePlan("connoisseur"))
	assert.Equal(t, "gift", NormalizePlan(" gift "))
	assert.Equal(t, "", NormalizePlan(""))
}
