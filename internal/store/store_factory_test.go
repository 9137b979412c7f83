package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"prepnotify/internal/config"
	"prepnotify/internal/store/memory"
	"prepnotify/internal/store/sqlstore"
)

func TestNewStoreFallsBackToMemory(t *testing.T) {
	s, err := NewStore(&config.Config{}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &memory.Store{}, s)
}

func TestNewStoreOpensSQLite(t *testing.T) {
	s, err := NewStore(&config.Config{SQLitePath: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.IsType(t, &sqlstore.Store{}, s)
}
