package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"prepnotify/internal/domain"
	"prepnotify/internal/metrics"
	"prepnotify/internal/model"
	"prepnotify/internal/realtime"
	"prepnotify/internal/repository"
)

// Pusher delivers persisted notifications to live connections. Delivery is best-effort.
type Pusher interface {
	Send(userID int64, notification model.Notification) error
	Broadcast(notification model.Notification) error
}

type Repository interface {
	repository.NotificationRepository
	repository.UserRepository
}

// Payload is what a caller wants to tell recipients; Data is marshalled to JSON as-is.
type Payload struct {
	Type    string
	Title   string
	Message string
	Data    any
}

// Service is the notification dispatcher: it persists one row per recipient and
// then pushes to live connections. Push errors are logged and never returned.
type Service struct {
	store  Repository
	pusher Pusher
	log    *zap.Logger
	now    func() time.Time
}

func NewService(store Repository, pusher Pusher, logger *zap.Logger) *Service {
	return &Service{store: store, pusher: pusher, log: logger, now: time.Now}
}

func (s *Service) build(payload Payload) (model.Notification, error) {
	if !domain.IsValidNotificationType(payload.Type) {
		return model.Notification{}, domain.ErrInvalidNotificationType
	}
	if payload.Title == "" {
		return model.Notification{}, fmt.Errorf("%w: title required", domain.ErrInvalidPayload)
	}
	var data json.RawMessage
	if payload.Data != nil {
		raw, err := json.Marshal(payload.Data)
		if err != nil {
			return model.Notification{}, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
		data = raw
	}
	return model.Notification{
		Type:      payload.Type,
		Title:     payload.Title,
		Message:   payload.Message,
		Data:      data,
		CreatedAt: s.now().UTC(),
	}, nil
}

func (s *Service) SendToUser(ctx context.Context, userID int64, payload Payload) (model.Notification, error) {
	if userID <= 0 {
		return model.Notification{}, fmt.Errorf("%w: recipient required", domain.ErrInvalidPayload)
	}
	notification, err := s.build(payload)
	if err != nil {
		return model.Notification{}, err
	}
	notification.UserID = userID

	created, err := s.store.CreateNotification(ctx, notification)
	if err != nil {
		s.log.Error("store create notification failed",
			zap.Int64("user_id", userID),
			zap.String("type", payload.Type),
			zap.String("title", payload.Title),
			zap.Error(err),
		)
		return model.Notification{}, err
	}
	metrics.NotificationsCreated.WithLabelValues(created.Type).Inc()

	if err := s.pusher.Send(userID, created); err != nil {
		s.pushFailed(err, zap.Int64("user_id", userID), zap.Int64("notification_id", created.ID))
	}
	return created, nil
}

func (s *Service) SendToAllUsers(ctx context.Context, payload Payload) ([]model.Notification, error) {
	template, err := s.build(payload)
	if err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		s.log.Error("store list users failed", zap.String("type", payload.Type), zap.Error(err))
		return nil, err
	}

	created, err := s.persistFor(ctx, users, template)
	if err != nil || len(created) == 0 {
		return created, err
	}

	if err := s.pusher.Broadcast(template); err != nil {
		s.pushFailed(err, zap.String("type", template.Type), zap.Int("recipients", len(created)))
	}
	return created, nil
}

func (s *Service) SendToUsersByRole(ctx context.Context, role string, payload Payload) ([]model.Notification, error) {
	if !domain.IsValidRole(role) {
		return nil, domain.ErrInvalidRole
	}
	template, err := s.build(payload)
	if err != nil {
		return nil, err
	}
	users, err := s.store.ListUsersByRole(ctx, role)
	if err != nil {
		s.log.Error("store list users by role failed", zap.String("role", role), zap.Error(err))
		return nil, err
	}

	created, err := s.persistFor(ctx, users, template)
	if err != nil {
		return nil, err
	}
	for _, n := range created {
		if err := s.pusher.Send(n.UserID, n); err != nil {
			s.pushFailed(err, zap.Int64("user_id", n.UserID), zap.Int64("notification_id", n.ID))
		}
	}
	return created, nil
}

func (s *Service) persistFor(ctx context.Context, users []model.User, template model.Notification) ([]model.Notification, error) {
	if len(users) == 0 {
		return []model.Notification{}, nil
	}
	batch := make([]model.Notification, 0, len(users))
	for _, u := range users {
		n := template
		n.UserID = u.ID
		batch = append(batch, n)
	}
	created, err := s.store.CreateNotifications(ctx, batch)
	if err != nil {
		s.log.Error("store create notifications failed",
			zap.String("type", template.Type),
			zap.String("title", template.Title),
			zap.Int("recipients", len(batch)),
			zap.Error(err),
		)
		return nil, err
	}
	metrics.NotificationsCreated.WithLabelValues(template.Type).Add(float64(len(created)))
	return created, nil
}

func (s *Service) pushFailed(err error, fields ...zap.Field) {
	metrics.PushFailures.WithLabelValues(pushReason(err)).Inc()
	s.log.Warn("realtime push failed", append(fields, zap.Error(err))...)
}

func pushReason(err error) string {
	switch {
	case errors.Is(err, realtime.ErrHubBusy):
		return "busy"
	case errors.Is(err, realtime.ErrHubClosed):
		return "closed"
	default:
		return "error"
	}
}

func (s *Service) List(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]model.Notification, error) {
	history, err := s.store.ListNotifications(ctx, userID, unreadOnly, limit)
	if err != nil {
		s.log.Error("store list notifications failed", zap.Int64("user_id", userID), zap.Int("limit", limit), zap.Error(err))
		return nil, err
	}
	return history, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	count, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		s.log.Error("store count unread failed", zap.Int64("user_id", userID), zap.Error(err))
		return 0, err
	}
	return count, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id int64) error {
	return s.store.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	updated, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		s.log.Error("store mark all read failed", zap.Int64("user_id", userID), zap.Error(err))
		return 0, err
	}
	return updated, nil
}
