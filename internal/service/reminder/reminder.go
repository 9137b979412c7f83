// Package reminder nudges users who have not practised for a while.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"prepnotify/internal/config"
	"prepnotify/internal/domain"
	"prepnotify/internal/mail"
	"prepnotify/internal/metrics"
	"prepnotify/internal/model"
	"prepnotify/internal/repository"
	"prepnotify/internal/service/notify"
)

const (
	title   = "Time to practice"
	message = "You haven't practised in a while. Solve a problem today to keep your streak going."
)

type Dispatcher interface {
	SendToUser(ctx context.Context, userID int64, payload notify.Payload) (model.Notification, error)
}

type Job struct {
	users         repository.UserRepository
	dispatcher    Dispatcher
	mailer        mail.Mailer
	inactiveAfter time.Duration
	log           *zap.Logger
}

func NewJob(cfg *config.Config, users repository.UserRepository, dispatcher Dispatcher, mailer mail.Mailer, logger *zap.Logger) *Job {
	return &Job{
		users:         users,
		dispatcher:    dispatcher,
		mailer:        mailer,
		inactiveAfter: cfg.InactiveAfter,
		log:           logger,
	}
}

// Run sends one reminder to every user inactive since now-inactiveAfter. A failure
// for one user is logged and the run moves on; the joined failures are returned.
func (j *Job) Run(ctx context.Context, now time.Time) error {
	runID := uuid.NewString()
	ctx, span := otel.Tracer("reminder").Start(ctx, "reminder.run", trace.WithAttributes(
		attribute.String("run.id", runID),
	))
	defer span.End()

	started := time.Now()
	defer func() {
		metrics.TickDuration.WithLabelValues("reminder").Observe(time.Since(started).Seconds())
	}()

	log := j.log.With(zap.String("run_id", runID))
	users, err := j.users.ListInactiveUsers(ctx, now.Add(-j.inactiveAfter))
	if err != nil {
		metrics.TickErrors.WithLabelValues("reminder", "list").Inc()
		log.Error("list inactive users failed", zap.Error(err))
		return err
	}

	var errs []error
	sent := 0
	for _, u := range users {
		if err := j.remind(ctx, u); err != nil {
			metrics.TickErrors.WithLabelValues("reminder", "send").Inc()
			log.Warn("practice reminder failed", zap.Int64("user_id", u.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		sent++
	}
	metrics.RemindersSent.Add(float64(sent))
	log.Info("practice reminders sent", zap.Int("sent", sent), zap.Int("inactive", len(users)))
	return errors.Join(errs...)
}

func (j *Job) remind(ctx context.Context, u model.User) error {
	_, err := j.dispatcher.SendToUser(ctx, u.ID, notify.Payload{
		Type:    domain.NotificationTypePracticeReminder,
		Title:   title,
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("user %d: %w", u.ID, err)
	}
	if u.Email == "" {
		return nil
	}
	// The in-app notification is already stored; an email failure is only logged.
	if err := j.mailer.Send(ctx, u.Email, title, greeting(u)+message); err != nil {
		j.log.Warn("practice reminder email failed", zap.Int64("user_id", u.ID), zap.Error(err))
	}
	return nil
}

func greeting(u model.User) string {
	if u.Name == "" {
		return "Hi,\n\n"
	}
	return "Hi " + u.Name + ",\n\n"
}
