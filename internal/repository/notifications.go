package repository

import (
	"context"
	"time"

	"prepnotify/internal/model"
)

type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification model.Notification) (model.Notification, error)
	// CreateNotifications persists the batch atomically and returns the rows with ids assigned.
	CreateNotifications(ctx context.Context, notifications []model.Notification) ([]model.Notification, error)
	ListNotifications(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

type UserRepository interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	ListUsersByRole(ctx context.Context, role string) ([]model.User, error)
	// ListInactiveUsers returns users whose last activity is before since or was never recorded.
	ListInactiveUsers(ctx context.Context, since time.Time) ([]model.User, error)
}

// ContestRepository time ranges are half-open: from < t <= to.
type ContestRepository interface {
	ListContestsCreatedBetween(ctx context.Context, from, to time.Time) ([]model.Contest, error)
	ListContestsStartingBetween(ctx context.Context, from, to time.Time) ([]model.Contest, error)
	ListContestsEndingBetween(ctx context.Context, from, to time.Time) ([]model.Contest, error)
	// RevealEndedContestQuestions un-hides questions of contests with end_time <= now.
	RevealEndedContestQuestions(ctx context.Context, now time.Time) (int64, error)
}

type Store interface {
	NotificationRepository
	UserRepository
	ContestRepository
	Close() error
}
