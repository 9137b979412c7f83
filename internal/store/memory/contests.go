package memory

import (
	"context"
	"time"

	"prepnotify/internal/model"
)

func (s *Store) ListContestsCreatedBetween(_ context.Context, from, to time.Time) ([]model.Contest, error) {
	return s.filterContests(func(c model.Contest) bool { return within(c.CreatedAt, from, to) }), nil
}

func (s *Store) ListContestsStartingBetween(_ context.Context, from, to time.Time) ([]model.Contest, error) {
	return s.filterContests(func(c model.Contest) bool { return within(c.StartTime, from, to) }), nil
}

func (s *Store) ListContestsEndingBetween(_ context.Context, from, to time.Time) ([]model.Contest, error) {
	return s.filterContests(func(c model.Contest) bool { return within(c.EndTime, from, to) }), nil
}

func (s *Store) RevealEndedContestQuestions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ended := make(map[int64]bool)
	for _, c := range s.contests {
		if !c.EndTime.After(now) {
			ended[c.ID] = true
		}
	}
	var revealed int64
	for i := range s.questions {
		if s.questions[i].IsHidden && ended[s.questions[i].ContestID] {
			s.questions[i].IsHidden = false
			revealed++
		}
	}
	return revealed, nil
}

func (s *Store) filterContests(keep func(model.Contest) bool) []model.Contest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Contest
	for _, c := range s.contests {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func within(t, from, to time.Time) bool {
	return t.After(from) && !t.After(to)
}
