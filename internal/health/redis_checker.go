package health

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisProbe Redis 客户端需要暴露的探测能力
type RedisProbe interface {
	HealthCheck(ctx context.Context) error
	Stats() *redis.PoolStats
}

// RedisChecker 去重用 Redis 的检查器。
// 去重失败时上行照常处理，所以 Redis 不可用只算降级。
type RedisChecker struct {
	client RedisProbe
}

// NewRedisChecker 创建Redis健康检查器
func NewRedisChecker(client RedisProbe) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Name() string { return "redis" }

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	if err := c.client.HealthCheck(ctx); err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("ping failed, dedup bypassed: %v", err),
			Latency: time.Since(start),
		}
	}

	stats := c.client.Stats()
	details := map[string]any{}
	if stats != nil {
		details["total_conns"] = stats.TotalConns
		details["idle_conns"] = stats.IdleConns
		details["hits"] = stats.Hits
		details["misses"] = stats.Misses
		details["timeouts"] = stats.Timeouts
	}
	return CheckResult{Status: StatusHealthy, Message: "ok", Details: details, Latency: time.Since(start)}
}
