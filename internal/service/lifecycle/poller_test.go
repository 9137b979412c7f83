package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"prepnotify/internal/config"
	"prepnotify/internal/domain"
	"prepnotify/internal/ledger"
	"prepnotify/internal/model"
	"prepnotify/internal/service/notify"
	"prepnotify/internal/store/memory"
)

type recordingPusher struct {
	mu         sync.Mutex
	broadcasts []model.Notification
}

func (p *recordingPusher) Send(int64, model.Notification) error { return nil }

func (p *recordingPusher) Broadcast(n model.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcasts = append(p.broadcasts, n)
	return nil
}

func (p *recordingPusher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.broadcasts))
	for _, n := range p.broadcasts {
		out = append(out, n.Type)
	}
	return out
}

var base = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	pusher *recordingPusher
	poller *Poller
}

func newFixture(t *testing.T, l ledger.Ledger) *fixture {
	t.Helper()
	store := memory.New(zap.NewNop())
	store.AddUser(model.User{ID: 1, Name: "ana", Role: domain.RoleStudent})
	store.AddUser(model.User{ID: 2, Name: "ben", Role: domain.RoleStudent})
	store.AddUser(model.User{ID: 3, Name: "cy", Role: domain.RoleTeacher})

	pusher := &recordingPusher{}
	svc := notify.NewService(store, pusher, zap.NewNop())
	cfg := &config.Config{LifecycleWindow: 5 * time.Minute, SoonLead: 30 * time.Minute}
	return &fixture{
		store:  store,
		pusher: pusher,
		poller: NewPoller(cfg, store, svc, l, zap.NewNop()),
	}
}

func (f *fixture) countByType(typ string) int {
	n := 0
	for _, rec := range f.store.Notifications() {
		if rec.Type == typ {
			n++
		}
	}
	return n
}

// contest returns a contest starting at start that runs for an hour and was
// created a day earlier, so only the window under test matches.
func contest(id int64, start time.Time) model.Contest {
	return model.Contest{
		ID:        id,
		Title:     "Weekly Round",
		Kind:      domain.ContestKindContest,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		CreatedAt: start.Add(-24 * time.Hour),
	}
}

func TestTickStartedWithinWindow(t *testing.T) {
	f := newFixture(t, ledger.Noop{})
	f.store.AddContest(contest(7, base))

	require.NoError(t, f.poller.Tick(context.Background(), base.Add(2*time.Minute)))

	require.Equal(t, 3, f.countByType(domain.NotificationTypeContestStarted))
	require.Equal(t, []string{domain.NotificationTypeContestStarted}, f.pusher.types())

	var data eventData
	require.NoError(t, json.Unmarshal(f.store.Notifications()[0].Data, &data))
	require.Equal(t, int64(7), data.ContestID)
	require.Equal(t, string(domain.EventStarted), data.Event)
}

func TestTickOutsideWindowDispatchesNothing(t *testing.T) {
	f := newFixture(t, ledger.Noop{})
	f.store.AddContest(contest(7, base))

	require.NoError(t, f.poller.Tick(context.Background(), base.Add(6*time.Minute)))
	require.Empty(t, f.store.Notifications())
	require.Empty(t, f.pusher.types())
}

func TestTickWindowBoundsAreHalfOpen(t *testing.T) {
	f := newFixture(t, ledger.Noop{})
	f.store.AddContest(contest(7, base))

	// start == now-window is excluded
	require.NoError(t, f.poller.Tick(context.Background(), base.Add(5*time.Minute)))
	require.Empty(t, f.store.Notifications())

	// start == now is included
	require.NoError(t, f.poller.Tick(context.Background(), base))
	require.Equal(t, 3, f.countByType(domain.NotificationTypeContestStarted))
}

func TestTickStartingSoon(t *testing.T) {
	f := newFixture(t, ledger.Noop{})
	f.store.AddContest(contest(7, base.Add(33*time.Minute)))

	require.NoError(t, f.poller.Tick(context.Background(), base))
	require.Equal(t, []string{domain.NotificationTypeContestStartingSoon}, f.pusher.types())
	require.Contains(t, f.store.Notifications()[0].Message, "starts in 33 minutes")
}

func TestTickEndingSoonAndEnded(t *testing.T) {
	f := newFixture(t, ledger.Noop{})
	// ends at base+32m
	f.store.AddContest(contest(7, base.Add(-28*time.Minute)))
	// ends at base-1m
	f.store.AddContest(contest(8, base.Add(-61*time.Minute)))

	require.NoError(t, f.poller.Tick(context.Background(), base))
	require.Equal(t, 3, f.countByType(domain.NotificationTypeContestEndingSoon))
	require.Equal(t, 3, f.countByType(domain.NotificationTypeContestEnded))
}

func TestTickAnnouncesNewContests(t *testing.T) {
	f := newFixture(t, ledger.Noop{})
	c := contest(9, base.Add(48*time.Hour))
	c.Kind = domain.ContestKindMockTest
	c.CreatedAt = base.Add(-time.Minute)
	f.store.AddContest(c)

	require.NoError(t, f.poller.Tick(context.Background(), base))
	require.Equal(t, []string{domain.NotificationTypeContestAnnounced}, f.pusher.types())
	require.Contains(t, f.store.Notifications()[0].Title, "mock test")
}

func TestTickRevealsQuestionsOfEndedContests(t *testing.T) {
	f := newFixture(t, ledger.Noop{})
	f.store.AddContest(contest(7, base.Add(-2*time.Hour)))
	f.store.AddContest(contest(8, base.Add(time.Hour)))
	f.store.AddQuestion(model.Question{ID: 1, ContestID: 7, IsHidden: true})
	f.store.AddQuestion(model.Question{ID: 2, ContestID: 8, IsHidden: true})

	require.NoError(t, f.poller.Tick(context.Background(), base))

	questions := f.store.Questions()
	require.False(t, questions[0].IsHidden)
	require.True(t, questions[1].IsHidden)
}

func TestOverlappingTicksDuplicateWithoutLedger(t *testing.T) {
	f := newFixture(t, ledger.Noop{})
	f.store.AddContest(contest(7, base))

	require.NoError(t, f.poller.Tick(context.Background(), base.Add(time.Minute)))
	require.NoError(t, f.poller.Tick(context.Background(), base.Add(2*time.Minute)))

	require.Equal(t, 6, f.countByType(domain.NotificationTypeContestStarted))
}

func TestOverlappingTicksDispatchOnceWithLedger(t *testing.T) {
	f := newFixture(t, ledger.NewMemory())
	f.store.AddContest(contest(7, base))

	require.NoError(t, f.poller.Tick(context.Background(), base.Add(time.Minute)))
	require.NoError(t, f.poller.Tick(context.Background(), base.Add(2*time.Minute)))

	require.Equal(t, 3, f.countByType(domain.NotificationTypeContestStarted))
	require.Len(t, f.pusher.types(), 1)
}

type failingContests struct {
	*memory.Store
}

func (failingContests) ListContestsStartingBetween(context.Context, time.Time, time.Time) ([]model.Contest, error) {
	return nil, errors.New("db down")
}

func TestFailingStepDoesNotAbortOthers(t *testing.T) {
	f := newFixture(t, ledger.Noop{})
	// ends at base-1m
	f.store.AddContest(contest(8, base.Add(-61*time.Minute)))
	f.store.AddQuestion(model.Question{ID: 1, ContestID: 8, IsHidden: true})
	f.poller.contests = failingContests{f.store}

	err := f.poller.Tick(context.Background(), base)
	require.Error(t, err)
	require.ErrorContains(t, err, "started")
	require.ErrorContains(t, err, "starting_soon")

	require.Equal(t, 3, f.countByType(domain.NotificationTypeContestEnded))
	require.False(t, f.store.Questions()[0].IsHidden)
}

type failingDispatcher struct {
	calls int
}

func (d *failingDispatcher) SendToAllUsers(context.Context, notify.Payload) ([]model.Notification, error) {
	d.calls++
	return nil, errors.New("insert failed")
}

func TestFailedDispatchReleasesClaim(t *testing.T) {
	store := memory.New(zap.NewNop())
	store.AddContest(contest(7, base))
	l := ledger.NewMemory()
	d := &failingDispatcher{}
	cfg := &config.Config{LifecycleWindow: 5 * time.Minute, SoonLead: 30 * time.Minute}
	p := NewPoller(cfg, store, d, l, zap.NewNop())

	require.Error(t, p.Tick(context.Background(), base.Add(time.Minute)))
	require.Equal(t, 1, d.calls)

	ok, err := l.Claim(context.Background(), ledger.Key(domain.EventStarted, 7))
	require.NoError(t, err)
	require.True(t, ok)
}
