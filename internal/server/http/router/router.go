package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/eventreg/internal/metrics"
	"github.com/polkiloo/eventreg/internal/server/http/handlers"
	"github.com/polkiloo/eventreg/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
// A nil recorder disables request metrics and the /metrics endpoint.
func Setup(facade handlers.RegistrationFacade, health handlers.HealthChecker, recorder *metrics.Recorder, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	if recorder != nil {
		engine.Use(middleware.RequestMetrics(recorder))
		engine.GET("/metrics", gin.WrapH(recorder.Handler()))
	}
	engine.Use(middleware.DecompressRequest(middleware.MaxRequestBody))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	checkoutHandler := handlers.NewCheckoutHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	availabilityHandler := handlers.NewAvailabilityHandler(facade)
	adminHandler := handlers.NewAdminHandler(facade)
	healthHandler := handlers.NewHealthHandler(health)

	api := engine.Group("/api")
	api.GET("/health", healthHandler.Ready)
	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	availability := api.Group("/availability")
	availability.GET("/campsites/:id", availabilityHandler.Campsite)
	availability.GET("/assets/:id", availabilityHandler.Asset)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))
	authed.POST("/checkout", checkoutHandler.Checkout)
	authed.GET("/orders", orderHandler.List)
	authed.GET("/orders/:id", orderHandler.Get)
	authed.DELETE("/orders/:id", orderHandler.Cancel)

	admin := authed.Group("/admin")
	admin.Use(middleware.AdminRequired())
	admin.POST("/orders/:id/settle", adminHandler.Settle)
	admin.POST("/orders/:id/items/:item/refund", adminHandler.Refund)
	admin.POST("/events/:id/roster/auto-assign", adminHandler.AutoAssignRoster)

	return engine
}
