// Package api exposes the booking services over HTTP.
package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"shop-concierge/internal/common/logger"
)

type RouterConfig struct {
	ServiceName string
	CORSOrigins []string

	Checkout  CheckoutService
	Webhook   WebhookService
	Results   ResultsService
	Areas     AreasService
	Recommend RecommendService
	Ready     map[string]ReadinessCheck

	Logger logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger.WithFields(map[string]interface{}{"component": "api"})
	h := &Handler{
		checkout:  cfg.Checkout,
		webhook:   cfg.Webhook,
		results:   cfg.Results,
		areas:     cfg.Areas,
		recommend: cfg.Recommend,
		ready:     cfg.Ready,
		logger:    log,
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		RequestID(),
		Recovery(log),
		AccessLog(log),
		otelgin.Middleware(cfg.ServiceName),
		corsMiddleware(cfg.CORSOrigins),
	)
	router.NoMethod(h.MethodNotAllowed)

	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/checkout", h.Checkout)
		api.POST("/checkout", h.Checkout)
		api.POST("/stripe-webhook", h.StripeWebhook)
		api.GET("/results", h.Results)
		api.GET("/areas", h.Areas)
		api.GET("/recommend", h.Recommend)
	}

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Requested-With", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
