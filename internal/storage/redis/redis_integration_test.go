//go:build integration

package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *goredis.Client {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	rdb, err := NewClient(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedis(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()

	t.Run("ReportCache", func(t *testing.T) {
		cache := NewReportCache(rdb)

		gen, err := cache.Generation(ctx)
		require.NoError(t, err)

		_, ok, err := cache.Get(ctx, gen, "overview")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, cache.Set(ctx, gen, "overview", []byte(`{"totalOrders":3}`), time.Minute))
		val, ok, err := cache.Get(ctx, gen, "overview")
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, `{"totalOrders":3}`, string(val))

		require.NoError(t, cache.Invalidate(ctx))
		next, err := cache.Generation(ctx)
		require.NoError(t, err)
		assert.Equal(t, gen+1, next)

		_, ok, err = cache.Get(ctx, next, "overview")
		require.NoError(t, err)
		assert.False(t, ok)

		// A build that started before the invalidation writes under the old
		// generation and stays invisible.
		require.NoError(t, cache.Set(ctx, gen, "overview", []byte(`{"totalOrders":3}`), time.Minute))
		_, ok, err = cache.Get(ctx, next, "overview")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("RevocationList", func(t *testing.T) {
		l := NewRevocationList(rdb)

		require.NoError(t, l.Revoke(ctx, "tok-1", time.Now().Add(time.Minute)))
		require.NoError(t, l.Revoke(ctx, "tok-expired", time.Now().Add(-time.Minute)))

		revoked, err := l.IsRevoked(ctx, "tok-1")
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = l.IsRevoked(ctx, "tok-expired")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("BadURL", func(t *testing.T) {
		_, err := NewClient(ctx, "not-a-url")
		require.Error(t, err)
	})
}
