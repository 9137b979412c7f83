// Package lifecycle turns contest timestamps into announced / starting-soon /
// started / ending-soon / ended notifications.
//
// There is no stored per-contest state. Each tick asks which contests crossed a
// boundary inside a time window around "now"; the optional ledger is the only
// thing that stops two ticks with overlapping windows from both dispatching.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"prepnotify/internal/config"
	"prepnotify/internal/domain"
	"prepnotify/internal/ledger"
	"prepnotify/internal/metrics"
	"prepnotify/internal/model"
	"prepnotify/internal/repository"
	"prepnotify/internal/service/notify"
)

type Dispatcher interface {
	SendToAllUsers(ctx context.Context, payload notify.Payload) ([]model.Notification, error)
}

type Poller struct {
	contests   repository.ContestRepository
	dispatcher Dispatcher
	ledger     ledger.Ledger
	log        *zap.Logger
	window     time.Duration
	lead       time.Duration
}

func NewPoller(cfg *config.Config, contests repository.ContestRepository, dispatcher Dispatcher, l ledger.Ledger, logger *zap.Logger) *Poller {
	return &Poller{
		contests:   contests,
		dispatcher: dispatcher,
		ledger:     l,
		log:        logger,
		window:     cfg.LifecycleWindow,
		lead:       cfg.SoonLead,
	}
}

type contestQuery func(ctx context.Context, from, to time.Time) ([]model.Contest, error)

type step struct {
	name string
	run  func(ctx context.Context, now time.Time, log *zap.Logger) error
}

func (p *Poller) steps() []step {
	return []step{
		{name: "reveal", run: p.revealQuestions},
		{name: "announced", run: p.lookBack(domain.EventAnnounced, p.contests.ListContestsCreatedBetween)},
		{name: "started", run: p.lookBack(domain.EventStarted, p.contests.ListContestsStartingBetween)},
		{name: "ended", run: p.lookBack(domain.EventEnded, p.contests.ListContestsEndingBetween)},
		{name: "starting_soon", run: p.lookAhead(domain.EventStartingSoon, p.contests.ListContestsStartingBetween)},
		{name: "ending_soon", run: p.lookAhead(domain.EventEndingSoon, p.contests.ListContestsEndingBetween)},
	}
}

// Tick runs every step for the instant now. A failed step is logged and the
// remaining steps still run; the returned error joins all step failures.
func (p *Poller) Tick(ctx context.Context, now time.Time) error {
	tickID := uuid.NewString()
	ctx, span := otel.Tracer("lifecycle").Start(ctx, "lifecycle.tick", trace.WithAttributes(
		attribute.String("tick.id", tickID),
		attribute.String("tick.now", now.UTC().Format(time.RFC3339)),
	))
	defer span.End()

	started := time.Now()
	defer func() {
		metrics.TickDuration.WithLabelValues("lifecycle").Observe(time.Since(started).Seconds())
	}()

	log := p.log.With(zap.String("tick_id", tickID), zap.Time("now", now))
	var errs []error
	for _, s := range p.steps() {
		if err := s.run(ctx, now, log); err != nil {
			metrics.TickErrors.WithLabelValues("lifecycle", s.name).Inc()
			log.Error("lifecycle step failed", zap.String("step", s.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lifecycle step failed")
	}
	return err
}

func (p *Poller) revealQuestions(ctx context.Context, now time.Time, log *zap.Logger) error {
	revealed, err := p.contests.RevealEndedContestQuestions(ctx, now)
	if err != nil {
		return err
	}
	if revealed > 0 {
		log.Info("revealed questions of ended contests", zap.Int64("questions", revealed))
	}
	return nil
}

// lookBack matches boundaries in (now-window, now].
func (p *Poller) lookBack(event domain.LifecycleEvent, query contestQuery) func(context.Context, time.Time, *zap.Logger) error {
	return func(ctx context.Context, now time.Time, log *zap.Logger) error {
		return p.announce(ctx, event, query, now.Add(-p.window), now, now, log)
	}
}

// lookAhead matches boundaries in (now+lead, now+lead+window].
func (p *Poller) lookAhead(event domain.LifecycleEvent, query contestQuery) func(context.Context, time.Time, *zap.Logger) error {
	return func(ctx context.Context, now time.Time, log *zap.Logger) error {
		from := now.Add(p.lead)
		return p.announce(ctx, event, query, from, from.Add(p.window), now, log)
	}
}

func (p *Poller) announce(ctx context.Context, event domain.LifecycleEvent, query contestQuery, from, to, now time.Time, log *zap.Logger) error {
	contests, err := query(ctx, from, to)
	if err != nil {
		return err
	}
	var errs []error
	for _, c := range contests {
		if err := p.dispatch(ctx, event, c, now, log); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Poller) dispatch(ctx context.Context, event domain.LifecycleEvent, contest model.Contest, now time.Time, log *zap.Logger) error {
	fields := []zap.Field{zap.Int64("contest_id", contest.ID), zap.String("event", string(event))}

	key := ledger.Key(event, contest.ID)
	claimed, err := p.ledger.Claim(ctx, key)
	switch {
	case err != nil:
		log.Warn("ledger claim failed, dispatching without it", append(fields, zap.Error(err))...)
	case !claimed:
		metrics.LifecycleSkipped.WithLabelValues(string(event)).Inc()
		log.Debug("lifecycle event already dispatched", fields...)
		return nil
	}

	created, err := p.dispatcher.SendToAllUsers(ctx, payloadFor(event, contest, now))
	if err != nil {
		if releaseErr := p.ledger.Release(ctx, key); releaseErr != nil {
			log.Warn("ledger release failed", append(fields, zap.Error(releaseErr))...)
		}
		return fmt.Errorf("contest %d %s: %w", contest.ID, event, err)
	}

	metrics.LifecycleEvents.WithLabelValues(string(event)).Inc()
	log.Info("lifecycle event dispatched", append(fields, zap.Int("recipients", len(created)))...)
	return nil
}
