package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"prepnotify/internal/config"
	"prepnotify/internal/repository"
	"prepnotify/internal/store/memory"
	"prepnotify/internal/store/sqlstore"
)

// NewStore picks MySQL when MYSQL_DSN is set, then SQLite when SQLITE_PATH is
// set, and falls back to the in-memory store.
func NewStore(cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	driver, dsn := "", ""
	switch {
	case cfg.MySQLDSN != "":
		driver, dsn = sqlstore.DriverMySQL, cfg.MySQLDSN
	case cfg.SQLitePath != "":
		driver, dsn = sqlstore.DriverSQLite, cfg.SQLitePath
	default:
		logger.Warn("no database configured, using in-memory store")
		return memory.New(logger), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s, err := sqlstore.Open(ctx, driver, dsn, logger)
	if err != nil {
		logger.Error("open store failed", zap.String("driver", driver), zap.Error(err))
		return nil, err
	}
	logger.Info("store ready", zap.String("driver", driver))
	return s, nil
}
