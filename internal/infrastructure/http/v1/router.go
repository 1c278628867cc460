// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"sfgnexus/internal/core/apperror"
	"sfgnexus/internal/core/basenumber"
	"sfgnexus/internal/domain/intake"
	"sfgnexus/internal/domain/truthfile"
	"sfgnexus/internal/infrastructure/http/v1/handlers"
	"sfgnexus/internal/infrastructure/http/v1/middleware"
	"sfgnexus/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Allocator issues BaseNumbers
	Allocator basenumber.Allocator

	// Store backs readiness and info probes
	Store basenumber.SequenceStore

	// StoreDriver is reported by /health/info
	StoreDriver string

	// Validator and Paths implement the truth-file rules
	Validator *truthfile.Validator
	Paths     *truthfile.PathBuilder

	// Logger for request logging
	Logger *logger.Logger

	// Version is reported by /health/info
	Version string

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	router := gin.New()

	// Global middleware (order matters!): ErrorHandler must wrap Recovery
	// so a recovered panic is still rendered.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.Store, cfg.StoreDriver, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()
	v1 := router.Group("/api/v1")
	{
		registerBaseNumberRoutes(v1, handlers.NewBaseNumberHandler(baseHandler, cfg.Allocator))
		registerTruthFileRoutes(v1, handlers.NewTruthFileHandler(baseHandler, cfg.Validator, cfg.Paths))

		intakeService := intake.NewService(cfg.Allocator, cfg.Validator, cfg.Paths)
		registerIntakeRoutes(v1, handlers.NewIntakeHandler(baseHandler, intakeService))
	}

	router.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound("route", c.Request.URL.Path))
	})

	return router
}
