package ledger

import (
	"context"
	"io"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"prepnotify/internal/config"
	"prepnotify/internal/domain"
)

func TestKey(t *testing.T) {
	require.Equal(t, "lifecycle:started:12", Key(domain.EventStarted, 12))
	require.NotEqual(t, Key(domain.EventStarted, 1), Key(domain.EventEnded, 1))
}

func TestNoopAlwaysClaims(t *testing.T) {
	ctx := context.Background()
	var l Ledger = Noop{}
	for i := 0; i < 3; i++ {
		ok, err := l.Claim(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestMemoryClaimOnce(t *testing.T) {
	ctx := context.Background()
	l := NewMemory()

	ok, err := l.Claim(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Claim(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, l.Release(ctx, "k"))
	ok, err = l.Claim(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestNewWithoutRedisIsNoop(t *testing.T) {
	l := New(&config.Config{}, zap.NewNop())
	require.IsType(t, Noop{}, l)
}

func TestNewWithRedisIsClosable(t *testing.T) {
	l := New(&config.Config{RedisAddr: "127.0.0.1:1"}, zap.NewNop())
	closer, ok := l.(io.Closer)
	require.True(t, ok)
	require.NoError(t, closer.Close())

	_, err := l.Claim(context.Background(), Key(domain.EventStarted, 1))
	require.ErrorIs(t, err, redis.ErrClosed)
}
