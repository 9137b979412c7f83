//go:build integration

package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedisContainer(t require.TestingT, ctx context.Context) (string, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	cleanup := func() {
		_ = container.Terminate(ctx)
	}
	return host + ":" + port.Port(), cleanup
}

func TestRedisLedgerIntegration(t *testing.T) {
	ctx := context.Background()
	addr, cleanup := setupRedisContainer(t, ctx)
	defer cleanup()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	l := NewRedis(client, time.Minute)

	ok, err := l.Claim(ctx, "lifecycle:started:1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Claim(ctx, "lifecycle:started:1")
	require.NoError(t, err)
	require.False(t, ok)

	ttl, err := client.TTL(ctx, "lifecycle:started:1").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	require.NoError(t, l.Release(ctx, "lifecycle:started:1"))
	ok, err = l.Claim(ctx, "lifecycle:started:1")
	require.NoError(t, err)
	require.True(t, ok)
}
