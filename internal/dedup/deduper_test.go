package dedup

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 使用测试用Redis客户端（需要真实Redis实例）
func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping test")
		return nil
	}
	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})
	return client
}

func TestKey(t *testing.T) {
	k := Key("70B3D57BA0000001", 42, "0212e600020bdd")
	assert.True(t, strings.HasPrefix(k, "uplink:dedup:70B3D57BA0000001:42:"))
	assert.Len(t, strings.TrimPrefix(k, "uplink:dedup:70B3D57BA0000001:42:"), 16)
	// 摘要不区分十六进制大小写
	assert.Equal(t, k, Key("70B3D57BA0000001", 42, "0212E600020BDD"))
	assert.NotEqual(t, k, Key("70B3D57BA0000001", 42, "0212E600020BDE"))
}

func TestDeduper_Seen(t *testing.T) {
	client := setupTestRedis(t)
	d := New(client, zap.NewNop(), time.Minute)
	ctx := context.Background()

	const payload = "0212E600020BDD"
	dup, err := d.Seen(ctx, "DEV1", 7, payload)
	require.NoError(t, err)
	assert.False(t, dup, "首次出现")

	dup, err = d.Seen(ctx, "DEV1", 7, payload)
	require.NoError(t, err)
	assert.True(t, dup, "重复帧")

	dup, err = d.Seen(ctx, "DEV1", 8, payload)
	require.NoError(t, err)
	assert.False(t, dup, "不同帧计数")

	dup, err = d.Seen(ctx, "DEV1", 7, "0212E600020BDE")
	require.NoError(t, err)
	assert.False(t, dup, "计数归零后的新上行")

	ttl := client.TTL(ctx, Key("DEV1", 7, payload)).Val()
	assert.Greater(t, ttl, time.Duration(0))
}

func TestDeduper_Invalid(t *testing.T) {
	var d *Deduper
	_, err := d.Seen(context.Background(), "DEV1", 1, "00")
	assert.Error(t, err)

	d = New(redis.NewClient(&redis.Options{Addr: "localhost:0"}), nil, 0)
	_, err = d.Seen(context.Background(), "", 1, "00")
	assert.Error(t, err)
}
