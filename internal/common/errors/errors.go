// Package errors provides the error codes shared by the HTTP API and the
// job workers, with their HTTP and BPMN mappings.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Preference validation. These reach the caller verbatim.
const (
	ErrCodeInvalidPlan                       ErrorCode = "INVALID_PLAN"
	ErrCodeInvalidAreaCount                  ErrorCode = "INVALID_AREA_COUNT"
	ErrCodeInvalidAreaGroupsExplorer         ErrorCode = "INVALID_AREA_GROUPS_EXPLORER"
	ErrCodeInvalidAreaGroupsCountConnoisseur ErrorCode = "INVALID_AREA_GROUPS_COUNT_CONNOISSEUR"
	ErrCodeDuplicateAreaGroups               ErrorCode = "DUPLICATE_AREA_GROUPS"
	ErrCodeMissingWho                        ErrorCode = "MISSING_WHO"
	ErrCodeInvalidVibesCount                 ErrorCode = "INVALID_VIBES_COUNT"
	ErrCodeInvalidHearing                    ErrorCode = "INVALID_HEARING"
)

// Request, payment and inventory outcomes.
const (
	ErrCodeMissingSessionID      ErrorCode = "MISSING_SESSION_ID"
	ErrCodeMissingPref           ErrorCode = "MISSING_PREF"
	ErrCodeInvalidSignature      ErrorCode = "INVALID_SIGNATURE"
	ErrCodeMethodNotAllowed      ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeNotPaid               ErrorCode = "NOT_PAID"
	ErrCodeInsufficientInventory ErrorCode = "INSUFFICIENT_INVENTORY"
	ErrCodeConfigurationMissing  ErrorCode = "CONFIGURATION_MISSING"
	ErrCodeServerError           ErrorCode = "SERVER_ERROR"
)

// Internal failures. Logged with their code, surfaced as SERVER_ERROR.
const (
	ErrCodeDatastoreQueryFailed   ErrorCode = "DATASTORE_QUERY_FAILED"
	ErrCodePaymentProviderFailed  ErrorCode = "PAYMENT_PROVIDER_FAILED"
	ErrCodePurchaseUpsertFailed   ErrorCode = "PURCHASE_UPSERT_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeAnalyticsSendFailed    ErrorCode = "ANALYTICS_SEND_FAILED"

	ErrCodeBusinessRule    ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeNotFound        ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeAuthentication  ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// WithMetadata attaches a key for logs and BPMN variables.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	se := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		se.Details = cause.Error()
	}
	return se
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationError wraps a preference validation failure under its own code.
func NewValidationError(code ErrorCode, cause error) *StandardError {
	return newError(code, "Invalid booking preferences", cause, false)
}

func NewMissingSessionIDError() *StandardError {
	return newError(ErrCodeMissingSessionID, "session_id is required", nil, false)
}

func NewMissingPrefError() *StandardError {
	return newError(ErrCodeMissingPref, "pref is required", nil, false)
}

func NewInvalidSignatureError(err error) *StandardError {
	return newError(ErrCodeInvalidSignature, "Webhook signature verification failed", err, false)
}

func NewMethodNotAllowedError(method string) *StandardError {
	return newError(ErrCodeMethodNotAllowed, fmt.Sprintf("Method %s not allowed", method), nil, false)
}

// NewNotPaidError reports a session that has not been paid. status is the
// normalized payment status, empty when the session does not exist.
func NewNotPaidError(sessionID, status string) *StandardError {
	se := newError(ErrCodeNotPaid, "Payment not completed", nil, false)
	se.Details = fmt.Sprintf("sessionId: %s, paymentStatus: %s", sessionID, status)
	return se
}

func NewInsufficientInventoryError(err error) *StandardError {
	return newError(ErrCodeInsufficientInventory, "Not enough eligible shops for this plan", err, false)
}

func NewConfigurationMissingError(key string) *StandardError {
	se := newError(ErrCodeConfigurationMissing, "Required configuration is missing", nil, false)
	se.Details = fmt.Sprintf("key: %s", key)
	return se
}

// NewDatastoreQueryFailedError creates a retryable datastore error.
func NewDatastoreQueryFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeDatastoreQueryFailed, fmt.Sprintf("Datastore %s failed", operation), err, true).
		WithMetadata("operation", operation)
}

// NewPaymentProviderFailedError creates a retryable payment provider error.
func NewPaymentProviderFailedError(operation string, err error) *StandardError {
	return newError(ErrCodePaymentProviderFailed, fmt.Sprintf("Payment provider %s failed", operation), err, true).
		WithMetadata("operation", operation)
}

// NewPurchaseUpsertFailedError creates a retryable purchase write error.
func NewPurchaseUpsertFailedError(sessionID string, err error) *StandardError {
	return newError(ErrCodePurchaseUpsertFailed, "Purchase record upsert failed", err, true).
		WithMetadata("sessionId", sessionID)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, fmt.Sprintf("Failed to send %s notification", channel), err, true).
		WithMetadata("channel", channel)
}

// NewAnalyticsSendFailedError creates a retryable analytics error.
func NewAnalyticsSendFailedError(err error) *StandardError {
	return newError(ErrCodeAnalyticsSendFailed, "Failed to send analytics event", err, true)
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	se := newError(ErrCodeBusinessRule, message, nil, false)
	se.Details = details
	return se
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err, true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err, true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	se := newError(ErrCodeNotFound, fmt.Sprintf("Resource not found in %s", service), nil, false)
	se.Details = details
	return se
}

func NewAuthenticationError(details string) *StandardError {
	se := newError(ErrCodeAuthentication, "Authentication failed", nil, false)
	se.Details = details
	return se
}

// ==========================
// 4. HTTP mapping
// ==========================

var httpStatus = map[ErrorCode]int{
	ErrCodeInvalidPlan:                       http.StatusBadRequest,
	ErrCodeInvalidAreaCount:                  http.StatusBadRequest,
	ErrCodeInvalidAreaGroupsExplorer:         http.StatusBadRequest,
	ErrCodeInvalidAreaGroupsCountConnoisseur: http.StatusBadRequest,
	ErrCodeDuplicateAreaGroups:               http.StatusBadRequest,
	ErrCodeMissingWho:                        http.StatusBadRequest,
	ErrCodeInvalidVibesCount:                 http.StatusBadRequest,
	ErrCodeInvalidHearing:                    http.StatusBadRequest,
	ErrCodeMissingSessionID:                  http.StatusBadRequest,
	ErrCodeMissingPref:                       http.StatusBadRequest,
	ErrCodeInvalidSignature:                  http.StatusBadRequest,
	ErrCodeMethodNotAllowed:                  http.StatusMethodNotAllowed,
	ErrCodeNotPaid:                           http.StatusPaymentRequired,
	ErrCodeInsufficientInventory:             http.StatusConflict,
}

// HTTPStatus returns the response status for code. Anything unlisted is a
// server error.
func HTTPStatus(code ErrorCode) int {
	if s, ok := httpStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// PublicCode is the code a HTTP caller sees. Internal codes collapse to
// SERVER_ERROR.
func PublicCode(code ErrorCode) ErrorCode {
	if _, ok := httpStatus[code]; ok {
		return code
	}
	return ErrCodeServerError
}

// AsStandard finds a *StandardError in err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Normalize always returns a *StandardError, wrapping unknown errors as
// INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if se, ok := AsStandard(err); ok {
		return se
	}
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the codes the fulfilment
// process catches. Unlisted codes pass through unchanged.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeAnalyticsSendFailed:    "ANALYTICS_SEND_FAILED",
	ErrCodeDatastoreQueryFailed:   "DATASTORE_QUERY_FAILED",
	ErrCodePurchaseUpsertFailed:   "PURCHASE_UPSERT_FAILED",
	ErrCodeExternalService:        "EXTERNAL_SERVICE_ERROR",
	ErrCodeTimeout:                "TIMEOUT_ERROR",
	ErrCodeInternal:               "INTERNAL_ERROR",
}

// GetRetryCount returns the recommended retry count for a failed job.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatastoreQueryFailed,
		ErrCodePaymentProviderFailed,
		ErrCodePurchaseUpsertFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeAnalyticsSendFailed,
		ErrCodeTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 6. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PAID") || strings.Contains(codeStr, "PAYMENT") || strings.Contains(codeStr, "SIGNATURE"):
		return "PAYMENT"
	case strings.Contains(codeStr, "INVENTORY"):
		return "INVENTORY"
	case strings.Contains(codeStr, "DATASTORE") || strings.Contains(codeStr, "PURCHASE"):
		return "DATASTORE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "ANALYTICS"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "DUPLICATE") || strings.Contains(codeStr, "MISSING"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
