package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shop-concierge/internal/common/config"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/models"
	"shop-concierge/internal/notify"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Datastore.Backend = "airtable"
	cfg.Datastore.MaxRecords = 100
	cfg.Datastore.Timeout = 1000
	cfg.Datastore.Airtable.BaseID = "app_test"
	cfg.Datastore.Airtable.APIKey = "key_test"
	cfg.Datastore.Airtable.ShopsTable = "shops"
	cfg.Datastore.Airtable.PurchasesTable = "purchases"
	cfg.Database.Redis.CacheTTL = 60
	cfg.Notifications.Mode = notify.ModeInline
	return cfg
}

var fastRetry = StoreOptions{Attempts: 1, Delay: time.Millisecond}

func TestRetryWithBackoff(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(func() error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		}, 5, time.Millisecond, zap.NewNop(), "op")

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := RetryWithBackoff(func() error {
			calls++
			return boom
		}, 2, time.Millisecond, zap.NewNop(), "op")

		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "op failed after 2 attempts")
		assert.Equal(t, 2, calls)
	})
}

func TestOpenStores_Airtable(t *testing.T) {
	s, err := OpenStores(context.Background(), testConfig(), fastRetry, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer s.Close()

	assert.NotNil(t, s.Shops)
	assert.NotNil(t, s.Purchases)
	assert.Nil(t, s.Cache)
	assert.Nil(t, s.AreaIndex)
	assert.Empty(t, s.Checks)

	primary, fallback := s.AreaSources()
	assert.Equal(t, s.Shops, primary)
	assert.Nil(t, fallback)
}

func TestOpenStores_WithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Database.Redis.Address = mr.Addr()

	s, err := OpenStores(context.Background(), cfg, fastRetry, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer s.Close()

	require.NotNil(t, s.Cache)
	assert.Equal(t, s.Cache, s.Shops)
	require.Contains(t, s.Checks, "redis")
	assert.NoError(t, s.Checks["redis"](context.Background()))
}

func TestOpenStores_UnreachableRedisDisablesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig()
	cfg.Database.Redis.Address = addr

	s, err := OpenStores(context.Background(), cfg, fastRetry, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.Cache)
	assert.NotContains(t, s.Checks, "redis")
}

func TestOpenStores_UnknownBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Datastore.Backend = "sqlite"

	_, err := OpenStores(context.Background(), cfg, fastRetry, logger.NewTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestOpenNotifier(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		cfg := testConfig()
		cfg.Notifications.Mode = notify.ModeNone

		n, err := OpenNotifier(ctx, cfg, fastRetry, logger.NewTestLogger(t))
		require.NoError(t, err)
		assert.IsType(t, notify.Noop{}, n.Notifier)
		assert.Nil(t, n.Check)
		assert.NoError(t, n.Close())
	})

	t.Run("inline skips disabled integrations", func(t *testing.T) {
		n, err := OpenNotifier(ctx, testConfig(), fastRetry, logger.NewTestLogger(t))
		require.NoError(t, err)

		assert.NoError(t, n.PurchaseCompleted(ctx, models.PurchaseEvent{
			SessionID:     "cs_test_1",
			Plan:          "Explorer",
			CustomerEmail: "guest@example.com",
		}))
		assert.NoError(t, n.InventoryShortage(ctx, models.ShortageEvent{
			SessionID: "cs_test_1",
			Plan:      "Connoisseur",
			Required:  28,
			Actual:    12,
		}))
	})

	t.Run("unknown mode", func(t *testing.T) {
		cfg := testConfig()
		cfg.Notifications.Mode = "pager"

		_, err := OpenNotifier(ctx, cfg, fastRetry, logger.NewTestLogger(t))
		require.Error(t, err)
	})
}
