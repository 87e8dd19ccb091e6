// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"shop-concierge/internal/app"
	"shop-concierge/internal/common/camunda"
	"shop-concierge/internal/common/config"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/common/observability"

	alertshortage "shop-concierge/internal/workers/inventory/alert-shortage"
	sendreceipt "shop-concierge/internal/workers/purchase/send-receipt"
	trackconversion "shop-concierge/internal/workers/purchase/track-conversion"
)

// healthPort serves /health, /ready and /metrics for the worker pods.
const healthPort = 9090

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}
	obs := observability.New("worker-manager", log)

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = app.RetryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	handlers, err := app.NewHandlers(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("worker handlers failed", zap.Error(err))
	}

	var workers []*camunda.CamundaWorker

	// Send Purchase Receipt
	if wcfg := cfg.Workers[sendreceipt.TaskType]; wcfg.Enabled {
		workers = append(workers, startWorker(zeebeClient, sendreceipt.TaskType, wcfg, handlers.Receipt.Handle, log))
	}

	// Track Purchase Conversion
	if wcfg := cfg.Workers[trackconversion.TaskType]; wcfg.Enabled {
		workers = append(workers, startWorker(zeebeClient, trackconversion.TaskType, wcfg, handlers.Conversion.Handle, log))
	}

	// Alert Inventory Shortage
	if wcfg := cfg.Workers[alertshortage.TaskType]; wcfg.Enabled {
		workers = append(workers, startWorker(zeebeClient, alertshortage.TaskType, wcfg, handlers.Shortage.Handle, log))
	}

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if len(workers) == 0 {
			writeStatus(w, http.StatusServiceUnavailable, "no workers")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", healthPort), Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Health/Metrics server shutdown failed", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping metrics provider", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zapLog.Error("Error stopping tracer provider", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler camunda.JobHandler, log logger.Logger) *camunda.CamundaWorker {
	return camunda.NewWorker(client, camunda.WorkerOptions{
		TaskType:      taskType,
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       config.GetDuration(wcfg.Timeout),
	}, handler, log)
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
