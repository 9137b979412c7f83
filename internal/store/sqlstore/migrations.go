package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type migration struct {
	version    int
	statements []string
}

var mysqlMigrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				email VARCHAR(255) NOT NULL,
				role VARCHAR(32) NOT NULL,
				last_active_at DATETIME(6) NULL,
				INDEX idx_users_role (role),
				INDEX idx_users_last_active (last_active_at)
			)`,
			`CREATE TABLE IF NOT EXISTS contests (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				kind VARCHAR(32) NOT NULL DEFAULT 'contest',
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6) NOT NULL,
				created_at DATETIME(6) NOT NULL,
				INDEX idx_contests_start (start_time),
				INDEX idx_contests_end (end_time),
				INDEX idx_contests_created (created_at)
			)`,
			`CREATE TABLE IF NOT EXISTS questions (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				contest_id BIGINT NOT NULL,
				is_hidden BOOLEAN NOT NULL DEFAULT TRUE,
				INDEX idx_questions_contest (contest_id, is_hidden)
			)`,
			`CREATE TABLE IF NOT EXISTS notifications (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				user_id BIGINT NOT NULL,
				type VARCHAR(64) NOT NULL,
				title VARCHAR(255) NOT NULL,
				message TEXT NOT NULL,
				data JSON NULL,
				is_read BOOLEAN NOT NULL DEFAULT FALSE,
				created_at DATETIME(6) NOT NULL,
				INDEX idx_notifications_user (user_id, is_read, id)
			)`,
		},
	},
}

var sqliteMigrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				email TEXT NOT NULL,
				role TEXT NOT NULL,
				last_active_at DATETIME NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_users_role ON users (role)`,
			`CREATE TABLE IF NOT EXISTS contests (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				kind TEXT NOT NULL DEFAULT 'contest',
				start_time DATETIME NOT NULL,
				end_time DATETIME NOT NULL,
				created_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS questions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				contest_id INTEGER NOT NULL,
				is_hidden BOOLEAN NOT NULL DEFAULT 1
			)`,
			`CREATE TABLE IF NOT EXISTS notifications (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL,
				type TEXT NOT NULL,
				title TEXT NOT NULL,
				message TEXT NOT NULL,
				data TEXT NULL,
				is_read BOOLEAN NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, is_read, id)`,
		},
	},
}

// Migrate applies outstanding migrations for the handle's driver and records
// each applied version in schema_version.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	var migrations []migration
	switch db.DriverName() {
	case DriverMySQL:
		migrations = mysqlMigrations
	case DriverSQLite:
		migrations = sqliteMigrations
	default:
		return fmt.Errorf("unsupported driver %q", db.DriverName())
	}

	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL PRIMARY KEY, applied_at DATETIME NOT NULL)`,
	); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	current := 0
	if err := db.GetContext(ctx, &current, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		for _, stmt := range m.statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("applying migration v%d: %w", m.version, err)
			}
		}
		if _, err := db.ExecContext(ctx,
			db.Rebind("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)"),
			m.version, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("recording migration v%d: %w", m.version, err)
		}
	}
	return nil
}
