package domain

// LifecycleEvent is a transition of a contest-like entity that users are told about.
type LifecycleEvent string

const (
	EventAnnounced    LifecycleEvent = "announced"
	EventStartingSoon LifecycleEvent = "starting_soon"
	EventStarted      LifecycleEvent = "started"
	EventEndingSoon   LifecycleEvent = "ending_soon"
	EventEnded        LifecycleEvent = "ended"
)

// NotificationType returns the notification kind persisted for the event.
func (e LifecycleEvent) NotificationType() string {
	switch e {
	case EventAnnounced:
		return NotificationTypeContestAnnounced
	case EventStartingSoon:
		return NotificationTypeContestStartingSoon
	case EventStarted:
		return NotificationTypeContestStarted
	case EventEndingSoon:
		return NotificationTypeContestEndingSoon
	case EventEnded:
		return NotificationTypeContestEnded
	default:
		return ""
	}
}

const (
	ContestKindContest  = "contest"
	ContestKindMockTest = "mock_test"
)
