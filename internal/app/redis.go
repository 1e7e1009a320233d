package app

import (
	"time"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/thingpark-broker/internal/config"
	"github.com/taoyao-code/thingpark-broker/internal/dedup"
	redisstorage "github.com/taoyao-code/thingpark-broker/internal/storage/redis"
)

// NewRedisClient 创建Redis客户端；未启用时返回 nil, nil
func NewRedisClient(cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if !cfg.Enabled {
		logger.Info("redis is disabled, uplink dedup off")
		return nil, nil
	}
	client, err := redisstorage.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("pool_size", cfg.PoolSize))
	return client, nil
}

// NewDeduper 基于 Redis 的上行去重器；client 为 nil 时返回 nil
func NewDeduper(client *redisstorage.Client, ttl time.Duration, logger *zap.Logger) *dedup.Deduper {
	if client == nil {
		return nil
	}
	return dedup.New(client.UniversalClient, logger.Named("dedup"), ttl)
}
