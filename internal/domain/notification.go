package domain

import "errors"

// Notification kinds. The contest_* kinds map one-to-one onto lifecycle events.
const (
	NotificationTypeContestAnnounced    = "contest_announced"
	NotificationTypeContestStartingSoon = "contest_starting_soon"
	NotificationTypeContestStarted      = "contest_started"
	NotificationTypeContestEndingSoon   = "contest_ending_soon"
	NotificationTypeContestEnded        = "contest_ended"
	NotificationTypePracticeReminder    = "practice_reminder"
	NotificationTypeInfo                = "info"
	NotificationTypeSystem              = "system"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

var (
	ErrInvalidNotificationType = errors.New("invalid notification type")
	ErrInvalidRole             = errors.New("invalid role")
	ErrInvalidPayload          = errors.New("invalid notification payload")
	ErrNotificationNotFound    = errors.New("notification not found")
)

func IsValidNotificationType(value string) bool {
	switch value {
	case NotificationTypeContestAnnounced,
		NotificationTypeContestStartingSoon,
		NotificationTypeContestStarted,
		NotificationTypeContestEndingSoon,
		NotificationTypeContestEnded,
		NotificationTypePracticeReminder,
		NotificationTypeInfo,
		NotificationTypeSystem:
		return true
	default:
		return false
	}
}

func IsValidRole(value string) bool {
	switch value {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}
