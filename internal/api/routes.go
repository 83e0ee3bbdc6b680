package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"sharedstreets/internal/api/handlers"
	"sharedstreets/internal/api/middleware"
	"sharedstreets/pkg/ssid"
)

type Router struct {
	identifierHandler *handlers.IdentifierHandler
	featureHandler    *handlers.FeatureHandler
	defaultFormat     ssid.Format
	rateLimiter       *middleware.RateLimiter
	log               *zap.Logger
}

// NewRouter wires handlers into routes. rateLimiter may be nil to disable
// rate limiting.
func NewRouter(
	identifierHandler *handlers.IdentifierHandler,
	featureHandler *handlers.FeatureHandler,
	defaultFormat ssid.Format,
	rateLimiter *middleware.RateLimiter,
	log *zap.Logger,
) *Router {
	return &Router{
		identifierHandler: identifierHandler,
		featureHandler:    featureHandler,
		defaultFormat:     defaultFormat,
		rateLimiter:       rateLimiter,
		log:               log,
	}
}

func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(r.log))

	// Health check endpoint
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/v1")
	if r.rateLimiter != nil {
		v1.Use(r.rateLimiter.Middleware())
	}
	v1.Use(middleware.IDFormat(r.defaultFormat))
	{
		// Identifier endpoints
		v1.POST("/messages", r.identifierHandler.Message)
		v1.POST("/intersections", r.identifierHandler.Intersection)
		v1.POST("/geometries", r.identifierHandler.Geometry)
		v1.POST("/location-references", r.identifierHandler.LocationReference)
		v1.POST("/references", r.identifierHandler.Reference)

		// Stored feature lookups
		v1.GET("/features/:id", r.featureHandler.GetFeature)
		v1.GET("/tiles/:z/:x/:y", r.featureHandler.Tile)
	}
}
