package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	MongoURI       string
	JWTSecret      string
	JWTExpiry      string
	AllowedOrigins []string
	Redis          RedisConfig
	Simulation     SimulationConfig
	Retention      RetentionConfig
}

// RetentionConfig controls the purge of old terminal trips.
type RetentionConfig struct {
	Interval time.Duration
	MaxAge   time.Duration
}

type RedisConfig struct {
	URL          string
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SimulationConfig drives the telemetry tick. Defaults match the observed
// fleet behaviour: a 5s tick, 0.5 km per tick, jitter of ±0.001° per axis,
// a 50 km-ish operating radius around home base and a 10,000 km service
// interval.
type SimulationConfig struct {
	TickInterval      time.Duration
	StepKm            float64
	JitterDegree      float64
	GeofenceLat       float64
	GeofenceLng       float64
	GeofenceRadius    float64
	ServiceIntervalKm float64
	MaxParallel       int
}

func Load() *Config {
	// load .env variables; a missing file is fine in containers
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		log.Fatal("MONGO_URI environment variable is not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173"
	}

	return &Config{
		Port:           port,
		MongoURI:       mongoURI,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiry:      os.Getenv("JWT_EXPIRY"),
		AllowedOrigins: strings.Split(allowedOrigins, ","),
		Redis:          loadRedisConfig(),
		Simulation:     loadSimulationConfig(),
		Retention: RetentionConfig{
			Interval: envDuration("TRIP_RETENTION_INTERVAL", time.Hour),
			MaxAge:   envDuration("TRIP_RETENTION_MAX_AGE", 90*24*time.Hour),
		},
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		Host:         envString("REDIS_HOST", "localhost"),
		Port:         envString("REDIS_PORT", "6379"),
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           envInt("REDIS_DB", 0),
		PoolSize:     envInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
	}
}

func loadSimulationConfig() SimulationConfig {
	return SimulationConfig{
		TickInterval:      envDuration("TICK_INTERVAL", 5*time.Second),
		StepKm:            envFloat("TICK_STEP_KM", 0.5),
		JitterDegree:      envFloat("TICK_JITTER_DEGREE", 0.001),
		GeofenceLat:       envFloat("GEOFENCE_LAT", 46.7712),
		GeofenceLng:       envFloat("GEOFENCE_LNG", 23.5889),
		GeofenceRadius:    envFloat("GEOFENCE_RADIUS", 0.5),
		ServiceIntervalKm: envFloat("SERVICE_INTERVAL_KM", 10000),
		MaxParallel:       envInt("TICK_MAX_PARALLEL", 8),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return d
}
