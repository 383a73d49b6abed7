// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brewops/internal/infrastructure/http/v1/handlers"
	"brewops/internal/infrastructure/http/v1/middleware"
	"brewops/pkg/logger"
)

// DefaultMetricsPath is where the metrics handler is mounted when MetricsPath is empty.
const DefaultMetricsPath = "/metrics"

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Numbering serves identifiers and counter administration
	Numbering handlers.NumberingService

	// DB is pinged by the readiness check
	DB handlers.Pinger

	// MetricsHandler is mounted at MetricsPath when not nil
	MetricsHandler http.Handler
	MetricsPath    string

	// Debug keeps gin in debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no tenant required)
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = DefaultMetricsPath
		}
		router.GET(path, gin.WrapH(cfg.MetricsHandler))
	}

	// API v1
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Tenant())
	{
		baseHandler := handlers.NewBaseHandler()
		handlers.NewNumberingHandler(baseHandler, cfg.Numbering).RegisterRoutes(v1)
	}

	return router
}
