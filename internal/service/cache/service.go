package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kapu/movie-advisor-bot/pkg/errors"
)

// CacheService is the Redis-backed shared cache. It is optional: the advisor
// runs on in-process caches alone when Redis is not configured.
type CacheService struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "advisor:"
	}
	return &CacheService{
		client: client,
		prefix: prefix,
		logger: logger,
	}, nil
}

// Get decodes the value stored under key into dest. A missing key is reported as
// found=false with a nil error.
func (c *CacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	fullKey := c.prefix + key
	value, err := c.client.Get(ctx, fullKey).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.logger.Error("Cache get failed", zap.String("key", fullKey), zap.Error(err))
		return false, errors.NewCacheError("get failed", "get", fullKey, err)
	}

	if dest != nil {
		if err := json.Unmarshal(value, dest); err != nil {
			c.logger.Error("Cache unmarshal failed", zap.String("key", fullKey), zap.Error(err))
			return false, errors.NewCacheError("unmarshal failed", "get", fullKey, err)
		}
	}
	return true, nil
}

func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	fullKey := c.prefix + key
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", fullKey, err)
	}

	if err := c.client.Set(ctx, fullKey, payload, ttl).Err(); err != nil {
		c.logger.Error("Cache set failed", zap.String("key", fullKey), zap.Error(err))
		return errors.NewCacheError("set failed", "set", fullKey, err)
	}
	return nil
}

// IsConnected pings Redis.
func (c *CacheService) IsConnected(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

func (c *CacheService) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	c.logger.Info("Redis disconnected")
	return nil
}
