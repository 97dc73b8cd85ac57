package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/parkease/parkease/internal/config"
	"github.com/parkease/parkease/internal/handler"
	"github.com/parkease/parkease/internal/middleware"
	"github.com/parkease/parkease/internal/model"
)

// Handlers collects every handler the route table needs.
type Handlers struct {
	Auth     *handler.AuthHandler
	Lots     *handler.LotHandler
	Bookings *handler.BookingHandler
	Payments *handler.PaymentHandler
}

// Register wires the full route table.  The health check sits outside
// all middleware; public browse endpoints get the Redis response
// cache; everything else requires a valid access token, with the
// admin group additionally gated on the ADMIN role.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Auth endpoints; no session needed.
	authGroup := e.Group("/v1/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)

	// Public browse endpoints; guests can discover lots before
	// registering.  Responses are cached.
	e.GET("/v1/parking-lots", h.Lots.List, cache)
	e.GET("/v1/parking-lots/nearby", h.Lots.Nearby, cache)
	e.GET("/v1/parking-lots/:id", h.Lots.Get, cache)

	// Authenticated endpoints.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))
	auth.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin))

	auth.GET("/me", h.Auth.Me)

	auth.POST("/bookings", h.Bookings.Create)
	auth.GET("/bookings", h.Bookings.List)
	auth.GET("/bookings/active", h.Bookings.Active)
	auth.GET("/bookings/history", h.Bookings.History)
	auth.GET("/bookings/:id", h.Bookings.Get)
	auth.PUT("/bookings/:id", h.Bookings.Update)
	auth.DELETE("/bookings/:id", h.Bookings.Cancel)

	auth.POST("/payments/create-order", h.Payments.CreateOrder)
	auth.POST("/payments/verify", h.Payments.Verify)
	auth.GET("/payments", h.Payments.List)
	auth.GET("/payments/:id", h.Payments.Get)

	// Admin endpoints.
	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(cfg.JWTSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))

	admin.POST("/parking-lots", h.Lots.Create)
	admin.PUT("/parking-lots/:id", h.Lots.Update)
	admin.DELETE("/parking-lots/:id", h.Lots.Deactivate)
	admin.GET("/parking-lots/:id/stats", h.Lots.Stats)

	admin.POST("/bookings/:id/complete", h.Bookings.Complete)
	admin.GET("/bookings/admin/all", h.Bookings.AdminList)

	admin.POST("/payments/:id/refund", h.Payments.Refund)
	admin.GET("/payments/admin/all", h.Payments.AdminList)
}
