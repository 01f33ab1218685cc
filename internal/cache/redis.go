package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/placement-engine/internal/logger"
	"github.com/spigell/placement-engine/internal/types"
)

const (
	keyPrefix         = "placement:match:"
	connectionTimeout = 5 * time.Second
)

// ErrEmptyAddress is returned when the redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// NewRedisClient connects and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// Redis is a Cache shared between engine instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, logger: logger.WithFields(log, zap.String("cache", "redis"))}
}

func (r *Redis) Get(ctx context.Context, key string) (*types.Assessment, bool) {
	raw, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var assessment types.Assessment
	if err := json.Unmarshal(raw, &assessment); err != nil {
		r.logger.Warn("cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return &assessment, true
}

func (r *Redis) Set(ctx context.Context, key string, assessment *types.Assessment) {
	if assessment == nil {
		return
	}

	raw, err := json.Marshal(assessment)
	if err != nil {
		r.logger.Warn("cache encode failed", zap.Error(err))
		return
	}

	if err := r.client.Set(ctx, keyPrefix+key, raw, r.ttl).Err(); err != nil {
		r.logger.Warn("cache write failed", zap.Error(err))
	}
}
