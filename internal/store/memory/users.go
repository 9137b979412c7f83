package memory

import (
	"context"
	"time"

	"prepnotify/internal/model"
)

func (s *Store) ListUsers(_ context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

func (s *Store) ListUsersByRole(_ context.Context, role string) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) ListInactiveUsers(_ context.Context, since time.Time) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for _, u := range s.users {
		if u.LastActiveAt == nil || u.LastActiveAt.Before(since) {
			out = append(out, u)
		}
	}
	return out, nil
}
