package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prepnotify",
		Name:      "notifications_created_total",
		Help:      "Notifications persisted, by kind.",
	}, []string{"type"})

	PushFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prepnotify",
		Name:      "push_failures_total",
		Help:      "Realtime emissions that could not be queued, by reason.",
	}, []string{"reason"})

	LifecycleEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prepnotify",
		Name:      "lifecycle_events_total",
		Help:      "Contest lifecycle events dispatched.",
	}, []string{"event"})

	LifecycleSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prepnotify",
		Name:      "lifecycle_events_skipped_total",
		Help:      "Contest lifecycle events skipped because the ledger already held them.",
	}, []string{"event"})

	TickErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prepnotify",
		Name:      "tick_step_errors_total",
		Help:      "Failed steps of scheduled jobs.",
	}, []string{"job", "step"})

	TickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "prepnotify",
		Name:      "tick_duration_seconds",
		Help:      "Wall time of scheduled job runs.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})

	QueueMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prepnotify",
		Name:      "queue_messages_total",
		Help:      "Consumed dispatch messages, by outcome (acked, rejected, requeued).",
	}, []string{"outcome"})

	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "prepnotify",
		Name:      "practice_reminders_total",
		Help:      "Practice reminders dispatched.",
	})
)
