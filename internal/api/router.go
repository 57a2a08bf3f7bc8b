// Package api exposes the publisher over HTTP: triggering runs, inspecting
// state, and managing profiles.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/stock-publisher/internal/logger"
	"github.com/jonesrussell/stock-publisher/internal/profiles"
	"github.com/jonesrussell/stock-publisher/internal/publish"
	"github.com/jonesrussell/stock-publisher/internal/runlock"
	"github.com/jonesrussell/stock-publisher/internal/state"
)

const (
	healthStatusHealthy  = "healthy"
	healthStatusDegraded = "degraded"
	healthCheckTimeout   = 2 * time.Second
	serviceVersion       = "1.0.0"
)

// Router holds the API dependencies.
type Router struct {
	runner       *publish.Runner
	lock         *runlock.Lock
	stateStore   state.Store
	profiles     profiles.Store
	redisClient  *redis.Client
	promGatherer prometheus.Gatherer
	logger       logger.Logger
	debug        bool
}

// Deps bundles the Router's collaborators.
type Deps struct {
	Runner       *publish.Runner
	Lock         *runlock.Lock
	StateStore   state.Store
	Profiles     profiles.Store
	RedisClient  *redis.Client
	PromGatherer prometheus.Gatherer
	Logger       logger.Logger
	Debug        bool
}

// NewRouter creates a new API router.
func NewRouter(deps Deps) *Router {
	return &Router{
		runner:       deps.Runner,
		lock:         deps.Lock,
		stateStore:   deps.StateStore,
		profiles:     deps.Profiles,
		redisClient:  deps.RedisClient,
		promGatherer: deps.PromGatherer,
		logger:       deps.Logger,
		debug:        deps.Debug,
	}
}

// SetupRoutes builds the gin engine with middleware and all routes.
func (r *Router) SetupRoutes() *gin.Engine {
	if !r.debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(r.logger))
	router.Use(corsMiddleware())

	router.GET("/health", r.healthCheck)
	if r.promGatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.promGatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")

	v1.POST("/runs", r.triggerRun)
	v1.GET("/state", r.getState)

	prof := v1.Group("/profiles")
	prof.GET("", r.listProfiles)
	prof.POST("", r.putProfile)
	prof.GET("/:id", r.getProfile)
	prof.PUT("/:id", r.putProfile)
	prof.DELETE("/:id", r.deleteProfile)

	return router
}

// healthCheck reports service health, degrading when Redis is unreachable.
func (r *Router) healthCheck(c *gin.Context) {
	health := gin.H{
		"status":  healthStatusHealthy,
		"service": "stock-publisher",
		"version": serviceVersion,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if r.redisClient != nil {
		connected := r.redisClient.Ping(ctx).Err() == nil
		health["redis"] = gin.H{"connected": connected}
		if !connected {
			health["status"] = healthStatusDegraded
		}
	}

	c.JSON(http.StatusOK, health)
}
