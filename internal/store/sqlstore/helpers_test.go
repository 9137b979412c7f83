package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/stretchr/testify/require"
	"prepnotify/internal/model"
)

func seedUser(t require.TestingT, s *Store, user model.User) int64 {
	var lastActive sql.NullTime
	if user.LastActiveAt != nil {
		lastActive = sql.NullTime{Time: user.LastActiveAt.UTC(), Valid: true}
	}
	res, err := s.db.ExecContext(context.Background(),
		s.db.Rebind("INSERT INTO users (name, email, role, last_active_at) VALUES (?, ?, ?, ?)"),
		user.Name, user.Email, user.Role, lastActive,
	)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func seedContest(t require.TestingT, s *Store, contest model.Contest) int64 {
	if contest.Kind == "" {
		contest.Kind = "contest"
	}
	if contest.CreatedAt.IsZero() {
		contest.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	res, err := s.db.ExecContext(context.Background(),
		s.db.Rebind("INSERT INTO contests (title, kind, start_time, end_time, created_at) VALUES (?, ?, ?, ?, ?)"),
		contest.Title, contest.Kind, contest.StartTime.UTC(), contest.EndTime.UTC(), contest.CreatedAt.UTC(),
	)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func seedQuestion(t require.TestingT, s *Store, contestID int64, hidden bool) int64 {
	res, err := s.db.ExecContext(context.Background(),
		s.db.Rebind("INSERT INTO questions (contest_id, is_hidden) VALUES (?, ?)"), contestID, hidden)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func questionHidden(t require.TestingT, s *Store, id int64) bool {
	var hidden bool
	require.NoError(t, s.db.GetContext(context.Background(), &hidden,
		s.db.Rebind("SELECT is_hidden FROM questions WHERE id = ?"), id))
	return hidden
}

// exerciseStore runs the same assertions against any migrated, empty database.
func exerciseStore(t require.TestingT, s *Store) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	old := base.Add(-10 * 24 * time.Hour)
	recent := base.Add(-time.Hour)
	alice := seedUser(t, s, model.User{Name: "alice", Email: "alice@example.com", Role: "student", LastActiveAt: &old})
	seedUser(t, s, model.User{Name: "bob", Email: "bob@example.com", Role: "student", LastActiveAt: &recent})
	seedUser(t, s, model.User{Name: "carol", Email: "carol@example.com", Role: "teacher"})

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)

	students, err := s.ListUsersByRole(ctx, "student")
	require.NoError(t, err)
	require.Len(t, students, 2)

	inactive, err := s.ListInactiveUsers(ctx, base.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, inactive, 2)
	require.Equal(t, alice, inactive[0].ID)
	require.NotNil(t, inactive[0].LastActiveAt)
	require.Nil(t, inactive[1].LastActiveAt)

	started := seedContest(t, s, model.Contest{Title: "weekly", StartTime: base.Add(-2 * time.Minute), EndTime: base.Add(time.Hour)})
	ended := seedContest(t, s, model.Contest{Title: "finished", StartTime: base.Add(-2 * time.Hour), EndTime: base.Add(-time.Minute)})

	got, err := s.ListContestsStartingBetween(ctx, base.Add(-5*time.Minute), base)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, started, got[0].ID)
	require.True(t, got[0].StartTime.Equal(base.Add(-2*time.Minute)))

	got, err = s.ListContestsEndingBetween(ctx, base.Add(-5*time.Minute), base)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, ended, got[0].ID)

	got, err = s.ListContestsStartingBetween(ctx, base, base.Add(5*time.Minute))
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = s.ListContestsCreatedBetween(ctx, base.Add(-100*24*time.Hour), base)
	require.NoError(t, err)
	require.Len(t, got, 2)

	hiddenEnded := seedQuestion(t, s, ended, true)
	hiddenRunning := seedQuestion(t, s, started, true)
	revealed, err := s.RevealEndedContestQuestions(ctx, base)
	require.NoError(t, err)
	require.Equal(t, int64(1), revealed)
	require.False(t, questionHidden(t, s, hiddenEnded))
	require.True(t, questionHidden(t, s, hiddenRunning))

	created, err := s.CreateNotifications(ctx, []model.Notification{
		{UserID: alice, Type: "contest_started", Title: "weekly", Message: "started", Data: []byte(`{"contest_id":1}`)},
		{UserID: alice, Type: "info", Title: "hello", Message: "world"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	require.NotZero(t, created[0].ID)
	require.NotEqual(t, created[0].ID, created[1].ID)

	single, err := s.CreateNotification(ctx, model.Notification{UserID: alice, Type: "info", Title: "single", Message: "m"})
	require.NoError(t, err)
	require.NotZero(t, single.ID)

	history, err := s.ListNotifications(ctx, alice, false, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, single.ID, history[0].ID)
	require.JSONEq(t, `{"contest_id":1}`, string(history[2].Data))

	require.NoError(t, s.MarkRead(ctx, alice, single.ID))
	require.NoError(t, s.MarkRead(ctx, alice, single.ID), "marking twice is not an error")
	require.Error(t, s.MarkRead(ctx, alice+1000, single.ID))

	unread, err := s.CountUnread(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, 2, unread)

	updated, err := s.MarkAllRead(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated)

	unreadList, err := s.ListNotifications(ctx, alice, true, 0)
	require.NoError(t, err)
	require.Empty(t, unreadList)
}
