package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shop-concierge/internal/booking/allocator"
	"shop-concierge/internal/booking/preference"
	apperrors "shop-concierge/internal/common/errors"
	"shop-concierge/internal/common/logger"
)

// ErrorEnvelope is the body of every failed API response.
type ErrorEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func respondOK(c *gin.Context, payload interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, payload)
}

// respondError writes the public code for err. Server-side failures are
// logged with their internal code and details; callers only see the code.
func respondError(c *gin.Context, log logger.Logger, err error) {
	se := toStandard(err)
	status := apperrors.HTTPStatus(se.Code)
	public := apperrors.PublicCode(se.Code)

	fields := map[string]interface{}{
		"requestId": requestID(c),
		"path":      c.FullPath(),
		"code":      se.Code,
		"status":    status,
	}
	if se.Details != "" {
		fields["details"] = se.Details
	}
	for k, v := range se.Metadata {
		fields[k] = v
	}
	if status >= http.StatusInternalServerError {
		log.Error(se.Message, fields)
	} else {
		log.Info(se.Message, fields)
	}

	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(status, ErrorEnvelope{OK: false, Error: string(public)})
}

// toStandard maps domain sentinels that reach the HTTP layer unwrapped.
func toStandard(err error) *apperrors.StandardError {
	if se, ok := apperrors.AsStandard(err); ok {
		return se
	}
	if code := preference.ErrorCode(err); code != "" {
		return apperrors.NewValidationError(apperrors.ErrorCode(code), err)
	}
	if errors.Is(err, allocator.ErrInsufficientInventory) {
		return apperrors.NewInsufficientInventoryError(err)
	}
	return apperrors.Normalize(err)
}
