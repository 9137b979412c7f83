package memory

import (
	"context"
	"time"

	"prepnotify/internal/domain"
	"prepnotify/internal/model"
)

func (s *Store) CreateNotification(_ context.Context, notification model.Notification) (model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(notification), nil
}

func (s *Store) CreateNotifications(_ context.Context, notifications []model.Notification) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := make([]model.Notification, 0, len(notifications))
	for _, n := range notifications {
		created = append(created, s.insertLocked(n))
	}
	return created, nil
}

func (s *Store) insertLocked(notification model.Notification) model.Notification {
	notification.ID = s.nextID
	s.nextID++
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	s.records = append(s.records, notification)
	return notification
}

func (s *Store) ListNotifications(_ context.Context, userID int64, unreadOnly bool, limit int) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.Notification
	for i := len(s.records) - 1; i >= 0; i-- {
		record := s.records[i]
		if record.UserID != userID {
			continue
		}
		if unreadOnly && record.IsRead {
			continue
		}
		result = append(result, record)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *Store) CountUnread(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, record := range s.records {
		if record.UserID == userID && !record.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkRead(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == id && s.records[i].UserID == userID {
			s.records[i].IsRead = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

func (s *Store) MarkAllRead(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	for i := range s.records {
		if s.records[i].UserID == userID && !s.records[i].IsRead {
			s.records[i].IsRead = true
			updated++
		}
	}
	return updated, nil
}
