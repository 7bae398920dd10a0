package main

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"smartfleet-backend/internal/api/routes"
	"smartfleet-backend/internal/config"
	"smartfleet-backend/internal/fleet"
	"smartfleet-backend/internal/repository"
	"smartfleet-backend/internal/simulation"
	"smartfleet-backend/internal/websocket"
	"smartfleet-backend/pkg/cache"
	"smartfleet-backend/pkg/cleanup"
	"smartfleet-backend/pkg/database"
	"smartfleet-backend/pkg/jwt"
	"smartfleet-backend/pkg/ratelimit"
	"smartfleet-backend/pkg/redis"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()

	db, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Disconnect(db.Client())

	jwtExpiry, err := time.ParseDuration(cfg.JWTExpiry)
	if err != nil {
		jwtExpiry = 24 * time.Hour
	}
	jwtUtil := jwt.NewJWTUtil(cfg.JWTSecret, jwtExpiry)

	// Redis is optional. When unreachable the API runs without the read
	// cache instead of failing startup.
	redisClient := redis.NewClient(cfg.Redis, log)
	defer redisClient.Close()

	var cacheManager cache.CacheManager
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx); err != nil {
		log.WithError(err).Warn("Redis unreachable, running without cache")
	} else {
		cacheManager = cache.NewRedisCacheManager(redisClient, cache.DefaultCacheConfig())
		log.Info("Redis connected")
	}
	cancel()

	wsManager := websocket.NewManager(log)
	wsManager.Start()
	defer wsManager.Stop()

	// Telemetry tick: advances every vehicle with an active trip
	vehicleRepo := repository.NewVehicleRepository(db)
	tripRepo := repository.NewTripRepository(db)
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	motion := fleet.NewMotionModelWith(rng, cfg.Simulation.JitterDegree, cfg.Simulation.StepKm)

	scheduler := simulation.NewScheduler(tripRepo, vehicleRepo, motion, cfg.Simulation, log)
	scheduler.SetPublisher(wsManager)
	scheduler.Start()
	defer scheduler.Stop()

	retention := cleanup.NewService(tripRepo, cfg.Retention.Interval, cfg.Retention.MaxAge, log)
	go retention.Start()
	defer retention.Stop()

	// login throttle shares the redis client; falls back to per-instance
	// memory when redis is down
	var loginLimiter ratelimit.Limiter
	if cacheManager != nil {
		loginLimiter = ratelimit.NewRedisLimiter(redisClient.GetClient(), ratelimit.DefaultLoginLimit())
	} else {
		loginLimiter = ratelimit.NewMemoryLimiter(ratelimit.DefaultLoginLimit())
	}

	router := gin.Default()

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		ExposeHeaders: []string{"Content-Length"},
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Dependencies{
		DB:           db,
		RedisClient:  redisClient,
		CacheManager: cacheManager,
		WSManager:    wsManager,
		JWTUtil:      jwtUtil,
		LoginLimiter: loginLimiter,
		Config:       cfg,
		Log:          log,
	})

	log.WithField("port", cfg.Port).Info("Server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
}
