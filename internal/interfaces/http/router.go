package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/referrals/internal/interfaces/http/handlers"
	"github.com/orris-inc/referrals/internal/interfaces/http/middleware"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

// Router represents the HTTP router configuration
type Router struct {
	engine          *gin.Engine
	referralHandler *handlers.ReferralHandler
	rateHandler     *handlers.RateHandler
	authMiddleware  *middleware.AuthMiddleware
	rateLimiter     *middleware.RateLimiter
	metricsHandler  http.Handler
	logger          logger.Interface
}

// NewRouter creates a new HTTP router. metricsHandler may be nil.
func NewRouter(
	referralHandler *handlers.ReferralHandler,
	rateHandler *handlers.RateHandler,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	metricsHandler http.Handler,
	log logger.Interface,
) (*Router, error) {
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	return &Router{
		engine:          gin.New(),
		referralHandler: referralHandler,
		rateHandler:     rateHandler,
		authMiddleware:  authMiddleware,
		rateLimiter:     rateLimiter,
		metricsHandler:  metricsHandler,
		logger:          log,
	}, nil
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery(r.logger))

	r.engine.GET("/health", handlers.HealthCheck)
	if r.metricsHandler != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metricsHandler))
	}

	v1 := r.engine.Group("/v1", r.rateLimiter.Limit(), r.authMiddleware.RequireAuth())
	{
		referrals := v1.Group("/referrals")
		referrals.GET("/groups", r.referralHandler.ListGroups)
		referrals.GET("/statement/:owner", r.referralHandler.GetStatement)
		referrals.GET("/:transactionId", r.referralHandler.FindReferrals)
		referrals.PUT("/:transactionId", r.referralHandler.CreateReferrals)

		rates := v1.Group("/rates")
		rates.GET("/:base", r.rateHandler.GetRates)
		rates.GET("/:base/:quote", r.rateHandler.GetRatio)
	}
}

// GetEngine returns the gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
