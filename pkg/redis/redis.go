package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"smartfleet-backend/internal/config"
)

// Client wraps the go-redis client with config-driven setup. Redis is an
// optional dependency; callers check Ping at startup and degrade to
// cache-less operation when it is unreachable.
type Client struct {
	client *redis.Client
	log    *logrus.Logger
}

type HealthStatus struct {
	IsConnected  bool          `json:"isConnected"`
	ResponseTime time.Duration `json:"responseTime"`
	Error        string        `json:"error,omitempty"`
}

func NewClient(cfg config.RedisConfig, log *logrus.Logger) *Client {
	var opt *redis.Options

	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			log.WithError(err).Warn("Failed to parse REDIS_URL, falling back to host:port")
		} else {
			opt = parsed
		}
	}

	if opt == nil {
		opt = &redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	opt.PoolSize = cfg.PoolSize
	opt.MinIdleConns = cfg.MinIdleConns
	opt.DialTimeout = cfg.DialTimeout
	opt.ReadTimeout = cfg.ReadTimeout
	opt.WriteTimeout = cfg.WriteTimeout

	return &Client{
		client: redis.NewClient(opt),
		log:    log,
	}
}

// GetClient exposes the underlying go-redis client.
func (c *Client) GetClient() *redis.Client {
	return c.client
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// HealthCheck measures a ping round-trip for the health endpoint.
func (c *Client) HealthCheck(ctx context.Context) HealthStatus {
	start := time.Now()
	err := c.client.Ping(ctx).Err()
	status := HealthStatus{
		IsConnected:  err == nil,
		ResponseTime: time.Since(start),
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}

func (c *Client) Close() error {
	return c.client.Close()
}
