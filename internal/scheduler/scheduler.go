// Package scheduler runs the periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"prepnotify/internal/config"
	"prepnotify/internal/service/lifecycle"
	"prepnotify/internal/service/reminder"
)

// JobFunc is one run of a periodic job at the instant now.
type JobFunc func(ctx context.Context, now time.Time) error

type Scheduler struct {
	cron *cron.Cron
	loc  *time.Location
	log  *zap.Logger
	ctx  context.Context
}

// New registers the lifecycle poller and the practice reminder on their configured
// schedules.
func New(cfg *config.Config, poller *lifecycle.Poller, reminders *reminder.Job, logger *zap.Logger) (*Scheduler, error) {
	s := NewEmpty(cfg.Location(), logger)
	if err := s.Add("lifecycle", cfg.LifecycleCron, poller.Tick); err != nil {
		return nil, err
	}
	if err := s.Add("reminder", cfg.ReminderCron, reminders.Run); err != nil {
		return nil, err
	}
	return s, nil
}

func NewEmpty(loc *time.Location, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger{logger.Sugar()})),
		),
		loc: loc,
		log: logger,
		ctx: context.Background(),
	}
}

// Add registers fn under a standard five-field cron spec.
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	_, err := s.cron.AddFunc(spec, func() {
		log := s.log.With(zap.String("job", name))
		log.Debug("job started")
		if err := fn(s.ctx, time.Now().In(s.loc)); err != nil {
			log.Warn("job finished with errors", zap.Error(err))
			return
		}
		log.Debug("job finished")
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	s.log.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// Start runs the jobs until ctx is done and then waits for running jobs to return.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
