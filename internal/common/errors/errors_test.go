package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusAndPublicCode(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		status int
		public ErrorCode
	}{
		{ErrCodeInvalidPlan, http.StatusBadRequest, ErrCodeInvalidPlan},
		{ErrCodeInvalidVibesCount, http.StatusBadRequest, ErrCodeInvalidVibesCount},
		{ErrCodeMissingSessionID, http.StatusBadRequest, ErrCodeMissingSessionID},
		{ErrCodeNotPaid, http.StatusPaymentRequired, ErrCodeNotPaid},
		{ErrCodeInsufficientInventory, http.StatusConflict, ErrCodeInsufficientInventory},
		{ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed},
		{ErrCodeDatastoreQueryFailed, http.StatusInternalServerError, ErrCodeServerError},
		{ErrCodePaymentProviderFailed, http.StatusInternalServerError, ErrCodeServerError},
		{ErrCodeConfigurationMissing, http.StatusInternalServerError, ErrCodeServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.code))
			assert.Equal(t, tt.public, PublicCode(tt.code))
		})
	}
}

func TestNormalize(t *testing.T) {
	cause := stderrors.New("connection reset")
	se := NewDatastoreQueryFailedError("list shops", cause)
	wrapped := fmt.Errorf("results: %w", se)

	got := Normalize(wrapped)
	assert.Same(t, se, got)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "connection reset", got.Details)
	assert.Equal(t, "list shops", got.Metadata["operation"])

	plain := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.False(t, plain.Retryable)
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("retryable keeps retry count", func(t *testing.T) {
		se := NewNotificationSendFailedError("email", stderrors.New("throttled"))
		b := ConvertToBPMNError(se)
		assert.Equal(t, "NOTIFICATION_SEND_FAILED", b.Code)
		assert.Equal(t, 3, b.Retries)
		assert.Equal(t, "email", b.ErrorVariables["channel"])

		vars := b.ToErrorVariables()
		assert.Equal(t, "NOTIFICATION_SEND_FAILED", vars["errorCode"])
		assert.Equal(t, "throttled", vars["errorDetails"])
	})

	t.Run("business errors never retry", func(t *testing.T) {
		b := ConvertToBPMNError(NewInsufficientInventoryError(stderrors.New("3 of 7")))
		assert.Equal(t, "INSUFFICIENT_INVENTORY", b.Code)
		assert.Zero(t, b.Retries)
		assert.False(t, b.Retryable)
	})
}

func TestNotPaidDetails(t *testing.T) {
	se := NewNotPaidError("cs_1", "unpaid")
	require.Equal(t, ErrCodeNotPaid, se.Code)
	assert.Contains(t, se.Details, "cs_1")
	assert.Contains(t, se.Error(), "NOT_PAID")
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "PAYMENT", GetErrorCategory(ErrCodeNotPaid))
	assert.Equal(t, "PAYMENT", GetErrorCategory(ErrCodeInvalidSignature))
	assert.Equal(t, "INVENTORY", GetErrorCategory(ErrCodeInsufficientInventory))
	assert.Equal(t, "DATASTORE", GetErrorCategory(ErrCodePurchaseUpsertFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeAnalyticsSendFailed))
	assert.Equal(t, "CONFIGURATION", GetErrorCategory(ErrCodeConfigurationMissing))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeDuplicateAreaGroups))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeTimeout))
	assert.True(t, IsRetryableErrorCode(ErrCodeTimeout))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidPlan))
}
