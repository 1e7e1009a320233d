package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/thingpark-broker/internal/config"
)

func TestNewClient_Disabled(t *testing.T) {
	_, err := NewClient(cfgpkg.RedisConfig{Enabled: false})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNewClient_EmptyAddr(t *testing.T) {
	_, err := NewClient(cfgpkg.RedisConfig{Enabled: true, Addr: " , "})
	assert.Error(t, err)
}

func TestUniversalOptions(t *testing.T) {
	opts := universalOptions(cfgpkg.RedisConfig{Addr: "r1:6379, r2:6379,", DB: 3, PoolSize: 7})
	assert.Equal(t, []string{"r1:6379", "r2:6379"}, opts.Addrs)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
}

func TestNewClient_Local(t *testing.T) {
	c, err := NewClient(cfgpkg.RedisConfig{
		Enabled:     true,
		Addr:        "localhost:6379",
		DB:          15,
		DialTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		t.Skip("Redis not available, skipping test")
	}
	defer c.Close()

	require.NoError(t, c.HealthCheck(context.Background()))
	assert.NotNil(t, c.Stats())
}
