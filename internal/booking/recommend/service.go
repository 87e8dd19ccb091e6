// Package recommend serves ad-hoc random picks from the catalog, outside
// the paid funnel.
package recommend

import (
	"context"
	"math/rand"
	"strconv"
	"strings"

	apperrors "shop-concierge/internal/common/errors"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/models"
	"shop-concierge/internal/store"
)

const (
	DefaultLimit = 7
	MaxLimit     = 20
)

type Input struct {
	Status     string
	AreaGroup  string
	AreaDetail string
	Tier       string
	TimeSlot   string
	Limit      string
}

type Output struct {
	OK           bool          `json:"ok"`
	Count        int           `json:"count"`
	TotalMatched int           `json:"totalMatched"`
	Shops        []models.Shop `json:"shops"`
}

type Service struct {
	shops   store.ShopStore
	logger  logger.Logger
	shuffle func(n int, swap func(i, j int))
}

func NewService(shops store.ShopStore, log logger.Logger) *Service {
	return &Service{
		shops:   shops,
		logger:  log.WithFields(map[string]interface{}{"service": "recommend"}),
		shuffle: rand.Shuffle,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	filter := store.NormalizeFilter(models.ShopFilter{
		Status:     input.Status,
		AreaGroup:  input.AreaGroup,
		AreaDetail: input.AreaDetail,
		Tier:       input.Tier,
		TimeSlot:   input.TimeSlot,
	})

	matched, err := s.shops.Search(ctx, filter)
	if err != nil {
		s.logger.Error("catalog search failed", map[string]interface{}{"error": err.Error()})
		return nil, apperrors.NewDatastoreQueryFailedError("search shops", err)
	}

	picked := make([]models.Shop, len(matched))
	copy(picked, matched)
	s.shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	if n := ParseLimit(input.Limit); len(picked) > n {
		picked = picked[:n]
	}

	return &Output{OK: true, Count: len(picked), TotalMatched: len(matched), Shops: picked}, nil
}

// ParseLimit reads the limit parameter: DefaultLimit when absent or not a
// positive integer, never above MaxLimit.
func ParseLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}
