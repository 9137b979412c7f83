package memory

import (
	"sync"

	"go.uber.org/zap"
	"prepnotify/internal/model"
)

// Store keeps everything in process memory. It backs local development and tests;
// users and contests are seeded through the Add* methods.
type Store struct {
	mu        sync.Mutex
	nextID    int64
	records   []model.Notification
	users     []model.User
	contests  []model.Contest
	questions []model.Question
	log       *zap.Logger
}

func New(logger *zap.Logger) *Store {
	return &Store{nextID: 1, log: logger}
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) AddUser(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, user)
}

func (s *Store) AddContest(contest model.Contest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contests = append(s.contests, contest)
}

func (s *Store) AddQuestion(question model.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, question)
}

// Questions returns a snapshot of the stored questions.
func (s *Store) Questions() []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Notifications returns a snapshot of every stored notification in insertion order.
func (s *Store) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, len(s.records))
	copy(out, s.records)
	return out
}
