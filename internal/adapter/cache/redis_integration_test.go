//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/internal/ports"
)

func TestRedisCache_Integration(t *testing.T) {
	ctx := context.Background()

	container, err := redis.Run(ctx,
		"redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		testcontainers.TerminateContainer(container)
	})

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	c, err := NewRedisCache(url, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Ping())

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "geocode:denver", "39.74,-104.99", time.Minute))
		got, err := c.Get(ctx, "geocode:denver")
		require.NoError(t, err)
		assert.Equal(t, "39.74,-104.99", got)
	})

	t.Run("missing key is a cache miss", func(t *testing.T) {
		_, err := c.Get(ctx, "geocode:nowhere")
		assert.ErrorIs(t, err, ports.ErrCacheMiss)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "tmp", "1", 0))
		require.NoError(t, c.Delete(ctx, "tmp"))
		_, err := c.Get(ctx, "tmp")
		assert.ErrorIs(t, err, ports.ErrCacheMiss)
	})

	t.Run("expiration", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "short", "1", time.Second))
		time.Sleep(1500 * time.Millisecond)
		_, err := c.Get(ctx, "short")
		assert.ErrorIs(t, err, ports.ErrCacheMiss)
	})
}
