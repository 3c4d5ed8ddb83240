package routes

import (
	"example.com/calendariko/api/handlers"
	"example.com/calendariko/api/middleware"
	"example.com/calendariko/internal/auth"
	"example.com/calendariko/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// SetupRoutes sets up all the routes for the server
func SetupRoutes(r *gin.Engine, svc service.Service, tokens *auth.TokenManager, log *logrus.Logger) {
	// Health check and metrics
	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(svc, log)

	// Public routes
	public := r.Group("/api/v1")
	{
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/refresh", authHandler.Refresh)
		public.POST("/setup", authHandler.Setup)
	}

	// Everything else requires a valid access token
	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth(tokens, svc, log))

	// Session routes
	api.GET("/auth/me", authHandler.Me)
	api.POST("/auth/change-password", authHandler.ChangePassword)

	// User routes
	userHandler := handlers.NewUserHandler(svc, log)
	users := api.Group("/users")
	{
		users.POST("", userHandler.CreateUser)
		users.GET("", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PATCH("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	// Band routes
	bandHandler := handlers.NewBandHandler(svc, log)
	bands := api.Group("/bands")
	{
		bands.POST("", bandHandler.CreateBand)
		bands.GET("", bandHandler.ListBands)
		bands.GET("/:id", bandHandler.GetBand)
		bands.PUT("/:id", bandHandler.UpdateBand)
		bands.DELETE("/:id", bandHandler.DeleteBand)
		bands.POST("/:id/referente", bandHandler.SetReferente)
	}

	// Event routes
	eventHandler := handlers.NewEventHandler(svc, log)
	events := api.Group("/events")
	{
		events.POST("", eventHandler.CreateEvent)
		events.GET("", eventHandler.ListEvents)
		events.GET("/:id", eventHandler.GetEvent)
		events.PATCH("/:id", eventHandler.UpdateEvent)
		events.DELETE("/:id", eventHandler.DeleteEvent)
	}
}
