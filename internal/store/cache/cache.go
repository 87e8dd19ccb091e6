// Package cache decorates a ShopStore with a Redis read-through cache for
// the per-area pools and area lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/common/metrics"
	"shop-concierge/internal/models"
	"shop-concierge/internal/store"
)

const (
	poolCache  = "area_pool"
	areasCache = "area_details"
	keyPrefix  = "concierge:"
)

// ShopStore caches ListByArea and ListAreaDetails. Search is passed through
// because its callers want fresh random picks. Redis failures fall back to
// the wrapped store.
type ShopStore struct {
	next   store.ShopStore
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewShopStore(next store.ShopStore, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *ShopStore {
	return &ShopStore{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "shop-cache"}),
	}
}

func (s *ShopStore) ListByArea(ctx context.Context, area string) ([]models.Shop, error) {
	var shops []models.Shop
	key := PoolKey(area)
	if s.get(ctx, poolCache, key, &shops) {
		return shops, nil
	}

	shops, err := s.next.ListByArea(ctx, area)
	if err != nil {
		return nil, err
	}
	s.set(ctx, key, shops)
	return shops, nil
}

func (s *ShopStore) ListAreaDetails(ctx context.Context, pref string) ([]string, error) {
	var areas []string
	key := AreasKey(pref)
	if s.get(ctx, areasCache, key, &areas) {
		return areas, nil
	}

	areas, err := s.next.ListAreaDetails(ctx, pref)
	if err != nil {
		return nil, err
	}
	s.set(ctx, key, areas)
	return areas, nil
}

func (s *ShopStore) Search(ctx context.Context, f models.ShopFilter) ([]models.Shop, error) {
	return s.next.Search(ctx, f)
}

// Invalidate drops every cached pool and area list.
func (s *ShopStore) Invalidate(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := s.redis.Del(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

func PoolKey(area string) string {
	return keyPrefix + "pool:" + strings.ToLower(strings.TrimSpace(area))
}

func AreasKey(pref string) string {
	return keyPrefix + "areas:" + strings.TrimSpace(pref)
}

func (s *ShopStore) get(ctx context.Context, cache, key string, dst interface{}) bool {
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err})
		}
		metrics.CacheLookups.WithLabelValues(cache, "miss").Inc()
		return false
	}
	if err := json.Unmarshal([]byte(val), dst); err != nil {
		s.logger.Warn("discarding undecodable cache entry", map[string]interface{}{"key": key, "error": err})
		metrics.CacheLookups.WithLabelValues(cache, "miss").Inc()
		return false
	}
	metrics.CacheLookups.WithLabelValues(cache, "hit").Inc()
	return true
}

func (s *ShopStore) set(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err})
	}
}
