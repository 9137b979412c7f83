package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"prepnotify/internal/domain"
	"prepnotify/internal/model"
	"prepnotify/internal/service/notify"
)

const displayTime = "Jan 2, 15:04 MST"

type eventData struct {
	ContestID int64  `json:"contest_id"`
	Kind      string `json:"kind"`
	Event     string `json:"event"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func kindLabel(kind string) string {
	if kind == domain.ContestKindMockTest {
		return "Mock test"
	}
	return "Contest"
}

func minutesUntil(t, now time.Time) int {
	return int(t.Sub(now).Round(time.Minute) / time.Minute)
}

func payloadFor(event domain.LifecycleEvent, c model.Contest, now time.Time) notify.Payload {
	label := kindLabel(c.Kind)

	var title, message string
	switch event {
	case domain.EventAnnounced:
		title = fmt.Sprintf("New %s: %s", strings.ToLower(label), c.Title)
		message = fmt.Sprintf("%s starts %s and ends %s.", c.Title, c.StartTime.Format(displayTime), c.EndTime.Format(displayTime))
	case domain.EventStartingSoon:
		title = fmt.Sprintf("%s starting soon", label)
		message = fmt.Sprintf("%s starts in %d minutes.", c.Title, minutesUntil(c.StartTime, now))
	case domain.EventStarted:
		title = fmt.Sprintf("%s started", label)
		message = fmt.Sprintf("%s is live. Good luck!", c.Title)
	case domain.EventEndingSoon:
		title = fmt.Sprintf("%s ending soon", label)
		message = fmt.Sprintf("%s ends in %d minutes. Submit your answers.", c.Title, minutesUntil(c.EndTime, now))
	case domain.EventEnded:
		title = fmt.Sprintf("%s ended", label)
		message = fmt.Sprintf("%s has ended. Solutions are now visible.", c.Title)
	}

	return notify.Payload{
		Type:    event.NotificationType(),
		Title:   title,
		Message: message,
		Data: eventData{
			ContestID: c.ID,
			Kind:      c.Kind,
			Event:     string(event),
			StartTime: c.StartTime.UTC().Format(time.RFC3339),
			EndTime:   c.EndTime.UTC().Format(time.RFC3339),
		},
	}
}

