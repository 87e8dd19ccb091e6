package trackconversion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-concierge/internal/analytics"
	apperrors "shop-concierge/internal/common/errors"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/models"
)

type MockTracker struct {
	TrackPurchaseFunc func(ctx context.Context, p analytics.Purchase) error
}

func (m *MockTracker) TrackPurchase(ctx context.Context, p analytics.Purchase) error {
	return m.TrackPurchaseFunc(ctx, p)
}

func createTestInput() *Input {
	return &Input{PurchaseEvent: models.PurchaseEvent{
		SessionID:   "cs_test_1",
		Plan:        "Explorer",
		AmountTotal: 4980,
		Currency:    "jpy",
		GAClientID:  "555.666",
	}}
}

func TestHandler_Execute_Tracks(t *testing.T) {
	var sent analytics.Purchase
	tracker := &MockTracker{TrackPurchaseFunc: func(ctx context.Context, p analytics.Purchase) error {
		sent = p
		return nil
	}}

	out, err := NewHandler(&Config{Timeout: time.Second}, tracker, logger.NewTestLogger(t)).
		Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, StatusTracked, out.ConversionStatus)
	assert.Equal(t, analytics.Purchase{
		ClientID: "555.666", TransactionID: "cs_test_1", AmountMinor: 4980, Currency: "jpy", Plan: "Explorer",
	}, sent)
}

func TestHandler_Execute_Skips(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"not configured", analytics.ErrNotConfigured, "not_configured"},
		{"no client id", analytics.ErrMissingClientID, "missing_client_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := &MockTracker{TrackPurchaseFunc: func(context.Context, analytics.Purchase) error { return tt.err }}

			out, err := NewHandler(&Config{Timeout: time.Second}, tracker, logger.NewTestLogger(t)).
				Execute(context.Background(), createTestInput())

			require.NoError(t, err)
			assert.Equal(t, StatusSkipped, out.ConversionStatus)
			assert.Equal(t, tt.reason, out.SkipReason)
		})
	}
}

func TestHandler_Execute_SendFailure(t *testing.T) {
	tracker := &MockTracker{TrackPurchaseFunc: func(context.Context, analytics.Purchase) error {
		return errors.New("ga4 status 500")
	}}

	_, err := NewHandler(&Config{Timeout: time.Second}, tracker, logger.NewTestLogger(t)).
		Execute(context.Background(), createTestInput())

	se, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeAnalyticsSendFailed, se.Code)
	assert.Equal(t, 2, apperrors.ConvertToBPMNError(se).Retries)
}

func TestHandler_Execute_AgainstGA4Endpoint(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := analytics.NewClient(srv.URL, "G-TEST", "secret", time.Second)
	out, err := NewHandler(&Config{Timeout: time.Second}, client, logger.NewTestLogger(t)).
		Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, StatusTracked, out.ConversionStatus)
	assert.Equal(t, "555.666", body["client_id"])
}
