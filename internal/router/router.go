package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/andescampus/uniride/internal/config"
	"github.com/andescampus/uniride/internal/handler"
	"github.com/andescampus/uniride/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring systems to verify that the
	// service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated trip board.  The board is
// rate limited per client IP and cached in Redis for a short TTL; both
// middlewares degrade to pass-through when Redis is unavailable.  The plate
// probe is public so clients can validate a plate during registration,
// before any session exists.
func RegisterPublic(e *echo.Echo, t *handler.TripHandler, a *handler.AuthHandler, rdb *redis.Client) {
	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e.GET("/v1/trips", t.ListTrips, rl, cache)
	e.GET("/v1/plates/:plate", a.PlateExists, rl)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected account endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token on every use.
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh_token in the body; no JWT required for
	// terminating a single session.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.PUT("/me", a.UpdateProfile)
	// With a JWT and no refresh_token in the body this revokes every
	// session of the user.
	auth.POST("/logout", a.Logout)
}
