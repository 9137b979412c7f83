// Package ledger records which contest lifecycle transitions have already been
// announced, so a transition seen by two ticks is dispatched once.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"prepnotify/internal/config"
	"prepnotify/internal/domain"
)

type Ledger interface {
	// Claim records key and reports whether this caller is the first to do so.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets key so a later tick can claim it again.
	Release(ctx context.Context, key string) error
}

func Key(event domain.LifecycleEvent, contestID int64) string {
	return fmt.Sprintf("lifecycle:%s:%d", event, contestID)
}

// New returns a Redis ledger when REDIS_ADDR is set and a noop ledger otherwise.
func New(cfg *config.Config, logger *zap.Logger) Ledger {
	if cfg.RedisAddr == "" {
		logger.Info("lifecycle ledger disabled, transitions are inferred from time windows only")
		return Noop{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	logger.Info("lifecycle ledger backed by redis", zap.String("addr", cfg.RedisAddr))
	return NewRedis(client, cfg.LedgerTTL)
}

// Noop claims every key, which reproduces plain time-window behaviour.
type Noop struct{}

func (Noop) Claim(context.Context, string) (bool, error) { return true, nil }

func (Noop) Release(context.Context, string) error { return nil }

type Memory struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{keys: make(map[string]struct{})}
}

func (m *Memory) Claim(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = struct{}{}
	return true, nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim %s: %w", key, err)
	}
	return ok, nil
}

// Close releases the Redis connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis release %s: %w", key, err)
	}
	return nil
}
