package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"smartfleet-backend/internal/api/handlers"
	"smartfleet-backend/internal/api/middleware"
	"smartfleet-backend/internal/config"
	"smartfleet-backend/internal/repository"
	"smartfleet-backend/internal/services"
	"smartfleet-backend/internal/websocket"
	"smartfleet-backend/pkg/cache"
	"smartfleet-backend/pkg/jwt"
	"smartfleet-backend/pkg/ratelimit"
	"smartfleet-backend/pkg/redis"
)

// Dependencies carries the shared infrastructure the route tree wires
// against. CacheManager and RedisClient may be nil when redis is down.
type Dependencies struct {
	DB           *mongo.Database
	RedisClient  *redis.Client
	CacheManager cache.CacheManager
	WSManager    *websocket.Manager
	JWTUtil      *jwt.JWTUtil
	LoginLimiter ratelimit.Limiter
	Config       *config.Config
	Log          *logrus.Logger
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	// Repositories
	userRepo := repository.NewUserRepository(deps.DB)
	vehicleRepo := repository.NewVehicleRepository(deps.DB)
	driverRepo := repository.NewDriverRepository(deps.DB)
	tripRepo := repository.NewTripRepository(deps.DB)

	// Services
	authService := services.NewAuthService(userRepo, driverRepo, deps.JWTUtil, deps.Log)
	vehicleService := services.NewVehicleService(vehicleRepo, driverRepo, deps.Log)
	driverService := services.NewDriverService(driverRepo, deps.Log)
	driverService.SetTripCounter(tripRepo)
	assignmentService := services.NewAssignmentService(driverRepo, vehicleRepo, deps.Log)
	tripService := services.NewTripService(tripRepo, driverRepo, vehicleRepo, deps.Log)

	if deps.CacheManager != nil {
		vehicleService.SetCacheManager(deps.CacheManager)
	}
	if deps.WSManager != nil {
		vehicleService.SetPublisher(deps.WSManager)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	vehicleHandler := handlers.NewVehicleHandler(vehicleService)
	driverHandler := handlers.NewDriverHandler(driverService, assignmentService)
	tripHandler := handlers.NewTripHandler(tripService)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.RedisClient)
	wsHandler := handlers.NewWebSocketHandler(deps.WSManager, deps.JWTUtil)

	router.GET("/health", healthHandler.HealthCheck)

	api := router.Group("/api/v1")

	// Public routes, throttled against credential guessing
	auth := api.Group("/auth")
	if deps.LoginLimiter != nil {
		auth.Use(middleware.RateLimitMiddleware(deps.LoginLimiter))
	}
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
	}

	// Realtime feed authenticates via query token inside the handler
	api.GET("/ws", wsHandler.HandleWebSocket)

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(deps.JWTUtil))
	{
		protected.GET("/profile", authHandler.GetProfile)

		vehicles := protected.Group("/vehicles")
		{
			vehicles.GET("", vehicleHandler.GetVehicles)
			vehicles.GET("/available", vehicleHandler.GetAvailableVehicles)
			vehicles.GET("/by-status", vehicleHandler.GetVehiclesByStatus)
			vehicles.GET("/:id", vehicleHandler.GetVehicle)
			vehicles.POST("", middleware.RequireAdmin(), vehicleHandler.CreateVehicle)
			vehicles.PATCH("/:id", middleware.RequireAdmin(), vehicleHandler.UpdateVehicle)
			vehicles.PATCH("/:id/location", vehicleHandler.UpdateVehicleLocation)
			vehicles.POST("/:id/service", middleware.RequireAdmin(), vehicleHandler.ServiceVehicle)
			vehicles.DELETE("/:id", middleware.RequireAdmin(), vehicleHandler.DeleteVehicle)
		}

		drivers := protected.Group("/drivers")
		{
			drivers.GET("", driverHandler.GetDrivers)
			drivers.GET("/me", driverHandler.GetMyDriverProfile)
			drivers.GET("/:id", driverHandler.GetDriver)
			drivers.GET("/:id/trips/current", tripHandler.GetCurrentTripForDriver)
			drivers.POST("", middleware.RequireAdmin(), driverHandler.CreateDriver)
			drivers.PATCH("/:id", middleware.RequireAdmin(), driverHandler.UpdateDriver)
			drivers.PATCH("/:id/status", driverHandler.UpdateDriverStatus)
			drivers.POST("/:id/vehicle", middleware.RequireAdmin(), driverHandler.AssignVehicle)
			drivers.DELETE("/:id/vehicle", middleware.RequireAdmin(), driverHandler.UnassignVehicle)
			drivers.DELETE("/:id", middleware.RequireAdmin(), driverHandler.DeleteDriver)
		}

		trips := protected.Group("/trips")
		{
			trips.GET("", tripHandler.GetTrips)
			trips.GET("/:id", tripHandler.GetTrip)
			trips.POST("", tripHandler.CreateTrip)
			trips.POST("/:id/start", tripHandler.StartTrip)
			trips.POST("/:id/complete", tripHandler.CompleteTrip)
			trips.POST("/:id/cancel", tripHandler.CancelTrip)
			trips.DELETE("/:id", middleware.RequireAdmin(), tripHandler.DeleteTrip)
		}

		ws := protected.Group("/ws")
		{
			ws.GET("/clients", middleware.RequireAdmin(), wsHandler.GetConnectedClients)
		}
	}
}
