package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"prepnotify/internal/model"
)

type userRow struct {
	ID           int64        `db:"id"`
	Name         string       `db:"name"`
	Email        string       `db:"email"`
	Role         string       `db:"role"`
	LastActiveAt sql.NullTime `db:"last_active_at"`
}

func (r userRow) toModel() model.User {
	u := model.User{ID: r.ID, Name: r.Name, Email: r.Email, Role: r.Role}
	if r.LastActiveAt.Valid {
		t := r.LastActiveAt.Time.UTC()
		u.LastActiveAt = &t
	}
	return u
}

type contestRow struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Kind      string    `db:"kind"`
	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`
	CreatedAt time.Time `db:"created_at"`
}

func (r contestRow) toModel() model.Contest {
	return model.Contest{
		ID:        r.ID,
		Title:     r.Title,
		Kind:      r.Kind,
		StartTime: r.StartTime.UTC(),
		EndTime:   r.EndTime.UTC(),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

const userColumns = "id, name, email, role, last_active_at"

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.selectUsers(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
}

func (s *Store) ListUsersByRole(ctx context.Context, role string) ([]model.User, error) {
	return s.selectUsers(ctx, "SELECT "+userColumns+" FROM users WHERE role = ? ORDER BY id", role)
}

func (s *Store) ListInactiveUsers(ctx context.Context, since time.Time) ([]model.User, error) {
	return s.selectUsers(ctx,
		"SELECT "+userColumns+" FROM users WHERE last_active_at IS NULL OR last_active_at < ? ORDER BY id",
		since.UTC(),
	)
}

func (s *Store) selectUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		s.log.Error("sql list users failed", zap.Error(err))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	users := make([]model.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toModel())
	}
	return users, nil
}

func (s *Store) ListContestsCreatedBetween(ctx context.Context, from, to time.Time) ([]model.Contest, error) {
	return s.selectContestsBetween(ctx, "created_at", from, to)
}

func (s *Store) ListContestsStartingBetween(ctx context.Context, from, to time.Time) ([]model.Contest, error) {
	return s.selectContestsBetween(ctx, "start_time", from, to)
}

func (s *Store) ListContestsEndingBetween(ctx context.Context, from, to time.Time) ([]model.Contest, error) {
	return s.selectContestsBetween(ctx, "end_time", from, to)
}

// column is one of the fixed names above, never user input.
func (s *Store) selectContestsBetween(ctx context.Context, column string, from, to time.Time) ([]model.Contest, error) {
	query := fmt.Sprintf(`SELECT id, title, kind, start_time, end_time, created_at
		FROM contests WHERE %[1]s > ? AND %[1]s <= ? ORDER BY id`, column)

	var rows []contestRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), from.UTC(), to.UTC()); err != nil {
		s.log.Error("sql list contests failed",
			zap.String("column", column),
			zap.Time("from", from),
			zap.Time("to", to),
			zap.Error(err),
		)
		return nil, fmt.Errorf("listing contests by %s: %w", column, err)
	}
	contests := make([]model.Contest, 0, len(rows))
	for _, row := range rows {
		contests = append(contests, row.toModel())
	}
	return contests, nil
}

func (s *Store) RevealEndedContestQuestions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE questions SET is_hidden = ?
		WHERE is_hidden = ? AND contest_id IN (SELECT id FROM contests WHERE end_time <= ?)`),
		false, true, now.UTC(),
	)
	if err != nil {
		s.log.Error("sql reveal questions failed", zap.Time("now", now), zap.Error(err))
		return 0, fmt.Errorf("revealing questions: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}
