package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shop-concierge/internal/common/airtable"
	"shop-concierge/internal/common/config"
	"shop-concierge/internal/common/database"
	commonhttp "shop-concierge/internal/common/http"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/store"
	atstore "shop-concierge/internal/store/airtable"
	"shop-concierge/internal/store/cache"
	pgstore "shop-concierge/internal/store/postgres"
	"shop-concierge/internal/store/search"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// Catalog is the full shop catalog as read from the system of record.
type Catalog interface {
	store.ShopStore
	store.CatalogReader
}

// Stores holds the opened datastores for one process.
type Stores struct {
	// Shops is the read path the booking services use; cached when Redis
	// is configured.
	Shops     store.ShopStore
	Catalog   Catalog
	Purchases store.PurchaseStore
	// Postgres is set for the postgres backend and for catalog sync targets.
	Postgres *pgstore.ShopStore
	Cache    *cache.ShopStore
	// AreaIndex is set when Elasticsearch is enabled.
	AreaIndex *search.AreaIndex
	Checks    map[string]Check

	closers []func() error
}

// StoreOptions tune connection retries.
type StoreOptions struct {
	Attempts int
	Delay    time.Duration
	// ConnectPostgres opens Postgres even for the airtable backend, as the
	// catalog sync target.
	ConnectPostgres bool
}

var DefaultStoreOptions = StoreOptions{Attempts: 10, Delay: 2 * time.Second}

// OpenStores connects the configured datastore backend and the optional
// Redis cache and Elasticsearch index.
func OpenStores(ctx context.Context, cfg *config.Config, opts StoreOptions, log logger.Logger) (*Stores, error) {
	zapLog := logger.Unwrap(log)
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	s := &Stores{Checks: map[string]Check{}}

	switch cfg.Datastore.Backend {
	case "airtable":
		httpClient := commonhttp.NewClient(config.GetDuration(cfg.Datastore.Timeout))
		at := airtable.NewClient(httpClient,
			cfg.Datastore.Airtable.BaseURL,
			cfg.Datastore.Airtable.BaseID,
			cfg.Datastore.Airtable.APIKey,
		)
		shops := atstore.NewShopStore(at, cfg.Datastore.Airtable.ShopsTable, cfg.Datastore.MaxRecords, log)
		s.Catalog = shops
		s.Purchases = atstore.NewPurchaseStore(at, cfg.Datastore.Airtable.PurchasesTable, log)
	case "postgres":
		opts.ConnectPostgres = true
	default:
		return nil, fmt.Errorf("unknown datastore backend %q", cfg.Datastore.Backend)
	}

	if opts.ConnectPostgres {
		pg, err := connectPostgres(ctx, cfg, opts, zapLog)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pg.Close)
		s.Checks["postgres"] = pg.Ping
		s.Postgres = pgstore.NewShopStore(pg.GetDB(), cfg.Datastore.MaxRecords)
		if cfg.Datastore.Backend == "postgres" {
			s.Catalog = s.Postgres
			s.Purchases = pgstore.NewPurchaseStore(pg.GetDB(), log)
		}
	}
	s.Shops = s.Catalog

	if cfg.Database.Redis.Address != "" {
		rc, err := database.NewRedis(cfg.Database.Redis)
		if err == nil {
			if err = rc.Ping(ctx); err != nil {
				rc.Close()
			}
		}
		if err != nil {
			log.Warn("redis unavailable; shop cache disabled", map[string]interface{}{"error": err.Error()})
		} else {
			s.closers = append(s.closers, rc.Close)
			s.Checks["redis"] = rc.Ping
			ttl := time.Duration(cfg.Database.Redis.CacheTTL) * time.Second
			s.Cache = cache.NewShopStore(s.Catalog, rc.GetClient(), ttl, log)
			s.Shops = s.Cache
		}
	}

	if cfg.Database.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Checks["elasticsearch"] = es.Ping
		s.AreaIndex = search.NewAreaIndex(es.Client, cfg.Database.Elasticsearch.ShopIndex)
	}

	zapLog.Info("datastores opened",
		zap.String("backend", cfg.Datastore.Backend),
		zap.Bool("cache", s.Cache != nil),
		zap.Bool("search", s.AreaIndex != nil),
	)
	return s, nil
}

// AreaSources returns the primary and fallback sources for area lookups.
func (s *Stores) AreaSources() (primary, fallback store.AreaSource) {
	if s.AreaIndex != nil {
		return s.AreaIndex, s.Shops
	}
	return s.Shops, nil
}

// Close releases every connection, returning the first error.
func (s *Stores) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

func connectPostgres(ctx context.Context, cfg *config.Config, opts StoreOptions, zapLog *zap.Logger) (*database.PostgresClient, error) {
	var pg *database.PostgresClient
	err := RetryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, opts.Attempts, opts.Delay, zapLog, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	zapLog.Info("PostgreSQL connected successfully")
	return pg, nil
}
