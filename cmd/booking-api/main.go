// cmd/booking-api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shop-concierge/internal/api"
	"shop-concierge/internal/app"
	"shop-concierge/internal/booking/areas"
	"shop-concierge/internal/booking/checkout"
	"shop-concierge/internal/booking/fulfilment"
	"shop-concierge/internal/booking/recommend"
	"shop-concierge/internal/booking/results"
	"shop-concierge/internal/common/config"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/common/observability"
	"shop-concierge/internal/payment"
)

const serviceName = "booking-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	zapLog := logger.Unwrap(log)
	defer zapLog.Sync()

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	zapLog.Info("Starting booking API...", zap.String("environment", cfg.App.Environment))

	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}
	obs := observability.New(serviceName, log)

	stores, err := app.OpenStores(ctx, cfg, app.DefaultStoreOptions, log)
	if err != nil {
		zapLog.Fatal("datastores failed", zap.Error(err))
	}

	notifier, err := app.OpenNotifier(ctx, cfg, app.DefaultStoreOptions, log)
	if err != nil {
		zapLog.Fatal("notifier failed", zap.Error(err))
	}

	gateway := payment.NewStripeGateway(cfg.Stripe, log)
	prices := payment.Prices{
		Explorer:    cfg.Stripe.PriceExplorer,
		Connoisseur: cfg.Stripe.PriceConnoisseur,
	}

	resultsConfig, err := results.LoadConfig(cfg)
	if err != nil {
		zapLog.Fatal("results config invalid", zap.Error(err))
	}

	primaryAreas, fallbackAreas := stores.AreaSources()

	ready := map[string]api.ReadinessCheck{}
	for name, check := range stores.Checks {
		ready[name] = api.ReadinessCheck(check)
	}
	if notifier.Check != nil {
		ready["camunda"] = api.ReadinessCheck(notifier.Check)
	}

	router := api.NewRouter(api.RouterConfig{
		ServiceName: serviceName,
		CORSOrigins: cfg.Server.CORSOrigins,
		Checkout:    checkout.NewService(checkout.LoadConfig(cfg), gateway, log),
		Webhook: fulfilment.NewService(
			fulfilment.LoadConfig(cfg), gateway, prices, stores.Purchases, notifier, log,
		),
		Results: results.NewService(resultsConfig, results.Deps{
			Purchases: stores.Purchases,
			Shops:     stores.Shops,
			Gateway:   gateway,
			Prices:    prices,
			Notifier:  notifier,
			Obs:       obs,
		}, log),
		Areas:     areas.NewService(primaryAreas, fallbackAreas, log),
		Recommend: recommend.NewService(stores.Shops, log),
		Ready:     ready,
		Logger:    log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := notifier.Close(); err != nil {
		zapLog.Error("Error closing notifier", zap.Error(err))
	}
	if err := stores.Close(); err != nil {
		zapLog.Error("Error closing datastores", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping metrics provider", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zapLog.Error("Error stopping tracer provider", zap.Error(err))
	}

	zapLog.Info("Booking API stopped gracefully")
}
