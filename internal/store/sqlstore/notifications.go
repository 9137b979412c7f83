package sqlstore

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"prepnotify/internal/domain"
	"prepnotify/internal/model"
)

type notificationRow struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Type      string    `db:"type"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	Data      []byte    `db:"data"`
	IsRead    bool      `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}

func (r notificationRow) toModel() model.Notification {
	return model.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      r.Type,
		Title:     r.Title,
		Message:   r.Message,
		Data:      r.Data,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

const insertNotification = `
	INSERT INTO notifications (user_id, type, title, message, data, is_read, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

func nullableJSON(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}

func (s *Store) CreateNotification(ctx context.Context, notification model.Notification) (model.Notification, error) {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	result, err := s.db.ExecContext(ctx, s.db.Rebind(insertNotification),
		notification.UserID, notification.Type, notification.Title, notification.Message,
		nullableJSON(notification.Data), notification.IsRead, notification.CreatedAt.UTC(),
	)
	if err != nil {
		s.log.Error("sql create notification failed",
			zap.Int64("user_id", notification.UserID),
			zap.String("type", notification.Type),
			zap.String("title", notification.Title),
			zap.Error(err),
		)
		return model.Notification{}, fmt.Errorf("inserting notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		s.log.Error("sql last insert id failed", zap.Error(err))
		return model.Notification{}, fmt.Errorf("reading notification id: %w", err)
	}
	notification.ID = id
	return notification, nil
}

func (s *Store) CreateNotifications(ctx context.Context, notifications []model.Notification) ([]model.Notification, error) {
	if len(notifications) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(insertNotification))
	if err != nil {
		return nil, fmt.Errorf("preparing insert statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	created := make([]model.Notification, 0, len(notifications))
	for _, n := range notifications {
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		result, err := stmt.ExecContext(ctx,
			n.UserID, n.Type, n.Title, n.Message, nullableJSON(n.Data), n.IsRead, n.CreatedAt.UTC(),
		)
		if err != nil {
			s.log.Error("sql batch create notification failed",
				zap.Int64("user_id", n.UserID),
				zap.String("type", n.Type),
				zap.Int("batch_size", len(notifications)),
				zap.Error(err),
			)
			return nil, fmt.Errorf("inserting notification for user %d: %w", n.UserID, err)
		}
		if n.ID, err = result.LastInsertId(); err != nil {
			return nil, fmt.Errorf("reading notification id: %w", err)
		}
		created = append(created, n)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing notifications: %w", err)
	}
	return created, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]model.Notification, error) {
	query := `SELECT id, user_id, type, title, message, data, is_read, created_at
		FROM notifications WHERE user_id = ?`
	args := []any{userID}
	if unreadOnly {
		query += " AND is_read = ?"
		args = append(args, false)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		s.log.Error("sql list notifications failed", zap.Int64("user_id", userID), zap.Int("limit", limit), zap.Error(err))
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	result := make([]model.Notification, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toModel())
	}
	return result, nil
}

func (s *Store) CountUnread(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		s.db.Rebind("SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = ?"), userID, false)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

func (s *Store) MarkRead(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE notifications SET is_read = ? WHERE id = ? AND user_id = ?"), true, id, userID)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows > 0 {
		return nil
	}

	// MySQL reports zero affected rows for an already-read notification.
	var exists int
	if err := s.db.GetContext(ctx, &exists,
		s.db.Rebind("SELECT COUNT(*) FROM notifications WHERE id = ? AND user_id = ?"), id, userID); err != nil {
		return fmt.Errorf("checking notification: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE notifications SET is_read = ? WHERE user_id = ? AND is_read = ?"), true, userID, false)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}
