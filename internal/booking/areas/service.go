// Package areas lists the area details a prefecture-level selection can be
// narrowed to.
package areas

import (
	"context"
	"errors"
	"strings"

	apperrors "shop-concierge/internal/common/errors"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/store"
	"shop-concierge/internal/store/search"
)

type Input struct {
	Pref string
}

type Output struct {
	OK          bool     `json:"ok"`
	Pref        string   `json:"pref"`
	Count       int      `json:"count"`
	AreaDetails []string `json:"areaDetails"`
}

type Service struct {
	primary  store.AreaSource
	fallback store.AreaSource
	logger   logger.Logger
}

// NewService reads from primary. fallback, when set, answers whenever the
// primary's index does not exist yet.
func NewService(primary, fallback store.AreaSource, log logger.Logger) *Service {
	return &Service{
		primary:  primary,
		fallback: fallback,
		logger:   log.WithFields(map[string]interface{}{"service": "areas"}),
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	pref := strings.TrimSpace(input.Pref)
	if pref == "" {
		return nil, apperrors.NewMissingPrefError()
	}

	details, err := s.primary.ListAreaDetails(ctx, pref)
	if errors.Is(err, search.ErrIndexNotFound) && s.fallback != nil {
		s.logger.Warn("area index missing, using shop store", map[string]interface{}{"pref": pref})
		details, err = s.fallback.ListAreaDetails(ctx, pref)
	}
	if err != nil {
		s.logger.Error("area lookup failed", map[string]interface{}{
			"pref":  pref,
			"error": err.Error(),
		})
		return nil, apperrors.NewDatastoreQueryFailedError("list area details", err)
	}
	if details == nil {
		details = []string{}
	}
	return &Output{OK: true, Pref: pref, Count: len(details), AreaDetails: details}, nil
}
