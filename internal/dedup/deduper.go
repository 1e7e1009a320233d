// Package dedup 基于 Redis 的上行去重（网关多路接收同一帧时只处理一次）
package dedup

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

const (
	keyPrefix = "uplink:dedup"

	// DefaultTTL 默认去重窗口
	DefaultTTL = time.Hour
)

// Deduper 去重器
type Deduper struct {
	redis  redis.UniversalClient
	logger *zap.Logger
	ttl    time.Duration
}

// New 创建去重器
func New(client redis.UniversalClient, logger *zap.Logger, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduper{redis: client, logger: logger, ttl: ttl}
}

// Key 上行去重键：DevEUI + 帧计数 + 载荷摘要。
// 设备重新入网后帧计数归零，摘要用于区分计数相同但内容不同的新上行。
func Key(devEUI string, fcnt int64, payloadHex string) string {
	sum := blake3.Sum256([]byte(strings.ToUpper(payloadHex)))
	return fmt.Sprintf("%s:%s:%d:%s", keyPrefix, devEUI, fcnt, hex.EncodeToString(sum[:8]))
}

// Seen 原子地登记上行；返回 true 表示此前已处理过
func (d *Deduper) Seen(ctx context.Context, devEUI string, fcnt int64, payloadHex string) (bool, error) {
	if d == nil || d.redis == nil {
		return false, fmt.Errorf("deduper not initialized")
	}
	if devEUI == "" {
		return false, fmt.Errorf("dev_eui is empty")
	}

	key := Key(devEUI, fcnt, payloadHex)
	// SetNX 成功表示首次出现
	first, err := d.redis.SetNX(ctx, key, "1", d.ttl).Result()
	if err != nil {
		d.logger.Error("dedup check failed", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	if !first {
		d.logger.Debug("duplicate uplink detected", zap.String("key", key))
	}
	return !first, nil
}
