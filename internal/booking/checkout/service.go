// Package checkout opens hosted payment sessions carrying the hearing
// answers as session metadata.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"shop-concierge/internal/booking/preference"
	apperrors "shop-concierge/internal/common/errors"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/common/metrics"
	"shop-concierge/internal/common/observability"
	"shop-concierge/internal/payment"
)

const defaultPlan = preference.PlanExplorer

// Body field spellings, in priority order, per metadata key.
var (
	whoFields    = []string{"who", "prefs", "with"}
	vibeFields   = []string{"vibes", "vibe"}
	areaFields   = []string{"area_groups", "areas", "area_group"}
	clientFields = []string{"ga_client_id", "gaClientId"}
	noPrefFields = []string{"no_preference", "noPreference"}
)

type Service struct {
	config  *Config
	gateway payment.Gateway
	logger  logger.Logger
}

func NewService(config *Config, gateway payment.Gateway, log logger.Logger) *Service {
	return &Service{
		config:  config,
		gateway: gateway,
		logger:  log.WithFields(map[string]interface{}{"service": "checkout"}),
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, span := observability.StartSpan(ctx, "checkout.Execute")
	defer span.End()

	if input.Method != http.MethodGet && input.Method != http.MethodPost {
		return nil, apperrors.NewMethodNotAllowedError(input.Method)
	}

	body := input.Body
	if input.Method != http.MethodPost {
		body = nil
	}
	if body != nil {
		result, err := hearingSchema.Validate(body)
		if err != nil {
			return nil, apperrors.NewValidationError(apperrors.ErrCodeInvalidHearing, err)
		}
		if !result.Valid {
			return nil, apperrors.NewValidationError(apperrors.ErrCodeInvalidHearing,
				errors.New(strings.Join(result.GetErrorMessages(), "; ")))
		}
	}

	rawPlan := strings.TrimSpace(input.Plan)
	if rawPlan == "" {
		rawPlan = stringField(body, "plan")
	}
	plan := defaultPlan
	if rawPlan != "" {
		p, err := preference.ParsePlan(rawPlan)
		if err != nil {
			return nil, apperrors.NewValidationError(apperrors.ErrCodeInvalidPlan, err)
		}
		plan = p
	}
	span.SetAttributes(attribute.String("booking.plan", string(plan)))

	priceID := s.config.Prices.ForPlan(string(plan))
	if priceID == "" {
		return nil, apperrors.NewConfigurationMissingError("stripe.price_" + string(plan))
	}

	md, err := s.metadata(body, plan)
	if err != nil {
		return nil, err
	}

	base := s.baseURL(input)
	q := url.QueryEscape(string(plan))
	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		PriceID:    priceID,
		SuccessURL: fmt.Sprintf("%s/results.html?session_id={CHECKOUT_SESSION_ID}&plan=%s", base, q),
		CancelURL:  fmt.Sprintf("%s/hearing.html?plan=%s", base, q),
		Metadata:   md,
	})
	if err != nil {
		s.logger.Error("checkout session create failed", map[string]interface{}{
			"plan":  plan,
			"error": err.Error(),
		})
		return nil, apperrors.NewPaymentProviderFailedError("create checkout session", err)
	}

	metrics.CheckoutSessionsCreated.WithLabelValues(string(plan)).Inc()
	s.logger.Info("checkout session created", map[string]interface{}{
		"sessionId": session.ID,
		"plan":      plan,
	})
	return &Output{OK: true, URL: session.URL, ID: session.ID}, nil
}

// metadata flattens the hearing answers. When the body carries answers they
// must parse, and the canonical blob is stored alongside the flat fields.
func (s *Service) metadata(body map[string]interface{}, plan preference.Plan) (map[string]string, error) {
	md := map[string]string{"plan": string(plan)}
	if body == nil {
		return md, nil
	}

	put := func(key string, fields []string) {
		if v := firstField(body, fields); v != "" {
			md[key] = v
		}
	}
	put("who", whoFields)
	put("vibes", vibeFields)
	put("area_groups", areaFields)
	put("ga_client_id", clientFields)
	put("no_preference", noPrefFields)

	if md["who"] == "" && md["vibes"] == "" && md["area_groups"] == "" && md["no_preference"] == "" {
		return md, nil
	}

	prefs, err := preference.Parse(md, s.config.Parse)
	if err != nil {
		return nil, apperrors.NewValidationError(apperrors.ErrorCode(preference.ErrorCode(err)), err)
	}
	blob, err := prefs.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode hearing: %w", err)
	}
	md[preference.HearingKey] = blob
	return md, nil
}

func (s *Service) baseURL(input *Input) string {
	if s.config.BaseURL != "" {
		return s.config.BaseURL
	}
	proto := strings.TrimSpace(strings.Split(input.ForwardedProto, ",")[0])
	if proto == "" {
		proto = "https"
	}
	host := input.ForwardedHost
	if host == "" {
		host = input.Host
	}
	return strings.TrimRight(proto+"://"+host, "/")
}

func firstField(body map[string]interface{}, keys []string) string {
	for _, k := range keys {
		if v := stringField(body, k); v != "" {
			return v
		}
	}
	return ""
}

// stringField renders a JSON value as a metadata string. Lists are joined
// with commas.
func stringField(body map[string]interface{}, key string) string {
	switch v := body[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case bool:
		if !v {
			return ""
		}
		return strconv.FormatBool(v)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ",")
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
