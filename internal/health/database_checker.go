package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DatabaseChecker PostgreSQL 连接池检查（上行落库与设备登记表）
type DatabaseChecker struct {
	pool *pgxpool.Pool
}

// NewDatabaseChecker 创建数据库健康检查器
func NewDatabaseChecker(pool *pgxpool.Pool) *DatabaseChecker {
	return &DatabaseChecker{pool: pool}
}

func (c *DatabaseChecker) Name() string { return "database" }

func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	if err := c.pool.Ping(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
			Latency: time.Since(start),
		}
	}

	stats := c.pool.Stat()
	status, message, utilization := poolStatus(stats.AcquiredConns(), stats.MaxConns())
	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]any{
			"total_conns":    stats.TotalConns(),
			"idle_conns":     stats.IdleConns(),
			"acquired_conns": stats.AcquiredConns(),
			"max_conns":      stats.MaxConns(),
			"utilization":    fmt.Sprintf("%.1f%%", utilization*100),
		},
		Latency: time.Since(start),
	}
}

// poolStatus 按连接池占用率判定状态：>90% 降级，占满不健康
func poolStatus(acquired, max int32) (Status, string, float64) {
	if max <= 0 {
		return StatusHealthy, "ok", 0
	}
	u := float64(acquired) / float64(max)
	switch {
	case u >= 1.0:
		return StatusUnhealthy, "connection pool exhausted", u
	case u > 0.9:
		return StatusDegraded, "connection pool near limit", u
	default:
		return StatusHealthy, "ok", u
	}
}
