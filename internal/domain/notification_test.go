package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidNotificationType(t *testing.T) {
	t.Run("valid types", func(t *testing.T) {
		valid := []string{
			NotificationTypeContestAnnounced,
			NotificationTypeContestStartingSoon,
			NotificationTypeContestStarted,
			NotificationTypeContestEndingSoon,
			NotificationTypeContestEnded,
			NotificationTypePracticeReminder,
			NotificationTypeInfo,
			NotificationTypeSystem,
		}
		for _, v := range valid {
			require.True(t, IsValidNotificationType(v), "expected valid type: %s", v)
		}
	})

	t.Run("invalid types", func(t *testing.T) {
		invalid := []string{"", "infoo", "contest", "started", "warning"}
		for _, v := range invalid {
			require.False(t, IsValidNotificationType(v), "expected invalid type: %s", v)
		}
	})
}

func TestIsValidRole(t *testing.T) {
	require.True(t, IsValidRole(RoleStudent))
	require.True(t, IsValidRole(RoleTeacher))
	require.True(t, IsValidRole(RoleAdmin))
	require.False(t, IsValidRole(""))
	require.False(t, IsValidRole("Admin"))
}

func TestLifecycleEventNotificationType(t *testing.T) {
	events := []LifecycleEvent{EventAnnounced, EventStartingSoon, EventStarted, EventEndingSoon, EventEnded}
	seen := make(map[string]bool)
	for _, e := range events {
		kind := e.NotificationType()
		require.True(t, IsValidNotificationType(kind), "event %s", e)
		require.False(t, seen[kind], "duplicate kind %s", kind)
		seen[kind] = true
	}
	require.Empty(t, LifecycleEvent("paused").NotificationType())
}
