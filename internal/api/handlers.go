package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shop-concierge/internal/booking/areas"
	"shop-concierge/internal/booking/checkout"
	"shop-concierge/internal/booking/fulfilment"
	"shop-concierge/internal/booking/recommend"
	"shop-concierge/internal/booking/results"
	apperrors "shop-concierge/internal/common/errors"
	"shop-concierge/internal/common/logger"
)

// maxBodyBytes bounds hearing and webhook bodies.
const maxBodyBytes = 1 << 20

type CheckoutService interface {
	Execute(ctx context.Context, input *checkout.Input) (*checkout.Output, error)
}

type WebhookService interface {
	Execute(ctx context.Context, input *fulfilment.Input) (*fulfilment.Output, error)
}

type ResultsService interface {
	Execute(ctx context.Context, input *results.Input) (*results.Output, error)
}

type AreasService interface {
	Execute(ctx context.Context, input *areas.Input) (*areas.Output, error)
}

type RecommendService interface {
	Execute(ctx context.Context, input *recommend.Input) (*recommend.Output, error)
}

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	checkout  CheckoutService
	webhook   WebhookService
	results   ResultsService
	areas     AreasService
	recommend RecommendService
	ready     map[string]ReadinessCheck
	logger    logger.Logger
}

func (h *Handler) Checkout(c *gin.Context) {
	input := &checkout.Input{
		Method:         c.Request.Method,
		Plan:           c.Query("plan"),
		ForwardedProto: c.GetHeader("X-Forwarded-Proto"),
		ForwardedHost:  c.GetHeader("X-Forwarded-Host"),
		Host:           c.Request.Host,
	}
	if c.Request.Method == http.MethodPost {
		body, err := decodeBody(c)
		if err != nil {
			respondError(c, h.logger, apperrors.NewValidationError(apperrors.ErrCodeInvalidHearing, err))
			return
		}
		input.Body = body
	}

	out, err := h.checkout.Execute(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, out)
}

func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		respondError(c, h.logger, apperrors.NewInvalidSignatureError(err))
		return
	}

	out, err := h.webhook.Execute(c.Request.Context(), &fulfilment.Input{
		Payload:   payload,
		Signature: c.GetHeader("Stripe-Signature"),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, out)
}

func (h *Handler) Results(c *gin.Context) {
	out, err := h.results.Execute(c.Request.Context(), &results.Input{SessionID: c.Query("session_id")})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, out)
}

func (h *Handler) Areas(c *gin.Context) {
	out, err := h.areas.Execute(c.Request.Context(), &areas.Input{Pref: c.Query("pref")})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, out)
}

func (h *Handler) Recommend(c *gin.Context) {
	out, err := h.recommend.Execute(c.Request.Context(), &recommend.Input{
		Status:     c.Query("status"),
		AreaGroup:  c.Query("area_group"),
		AreaDetail: c.Query("area_detail"),
		Tier:       c.Query("tier"),
		TimeSlot:   c.Query("time_slot"),
		Limit:      c.Query("limit"),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, out)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Ready(c *gin.Context) {
	checks := gin.H{}
	ready := true
	for name, check := range h.ready {
		if err := check(c.Request.Context()); err != nil {
			h.logger.Warn("readiness check failed", map[string]interface{}{
				"check": name,
				"error": err.Error(),
			})
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ready": ready, "checks": checks})
}

func (h *Handler) MethodNotAllowed(c *gin.Context) {
	respondError(c, h.logger, apperrors.NewMethodNotAllowedError(c.Request.Method))
}

// decodeBody reads an optional JSON object. An empty body decodes to an
// empty map.
func decodeBody(c *gin.Context) (map[string]interface{}, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	body := map[string]interface{}{}
	if strings.TrimSpace(string(raw)) == "" {
		return body, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, errors.New("body must be a JSON object")
	}
	return body, nil
}
