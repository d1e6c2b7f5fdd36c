package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "visibility:dashboard", DashboardKey)
	assert.Equal(t, "visibility:monitoring:p1", MonitoringKey("p1"))
	assert.Equal(t, []string{"visibility:dashboard", "visibility:monitoring:p1"}, ProjectKeys("p1"))
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	var c CacheInterface = NoopCache{}

	require.NoError(t, c.Set(ctx, DashboardKey, map[string]int{"a": 1}))

	var target map[string]int
	found, err := c.Get(ctx, DashboardKey, &target)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, target)
	assert.NoError(t, c.Delete(ctx, DashboardKey))
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "127.0.0.1:1", time.Minute)
	assert.Error(t, err)
}

// TestRedisCache_Integration runs against a real server when TEST_REDIS_URL is set
func TestRedisCache_Integration(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	c, err := NewRedisCache(ctx, redisURL, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	key := MonitoringKey("integration-test")
	require.NoError(t, c.Set(ctx, key, map[string]float64{"Nike": 37.5}))

	var cached map[string]float64
	found, err := c.Get(ctx, key, &cached)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 37.5, cached["Nike"])

	require.NoError(t, c.Delete(ctx, key))
	found, err = c.Get(ctx, key, &cached)
	require.NoError(t, err)
	assert.False(t, found)
}
