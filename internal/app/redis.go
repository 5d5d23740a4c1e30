package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/pinlink/internal/config"
	"github.com/taoyao-code/pinlink/internal/health"
	"github.com/taoyao-code/pinlink/internal/pinstore"
	redisstorage "github.com/taoyao-code/pinlink/internal/storage/redis"
)

// NewRedisClient 未启用时返回 nil, nil
func NewRedisClient(cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if !cfg.Enabled {
		logger.Info("redis is disabled, pin values kept in memory")
		return nil, nil
	}

	client, err := redisstorage.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("pool_size", cfg.PoolSize),
		zap.String("key_prefix", cfg.KeyPrefix))
	return client, nil
}

// NewPinStore 有 Redis 时使用 Redis，否则内存
func NewPinStore(client *redisstorage.Client) pinstore.Store {
	if client == nil {
		return pinstore.NewMemoryStore()
	}
	return pinstore.NewRedisStore(client)
}

// AddRedisChecker 添加 Redis 检查器
func AddRedisChecker(aggregator *health.Aggregator, client *redisstorage.Client) {
	if client != nil {
		aggregator.AddChecker(health.NewRedisChecker(client))
	}
}
