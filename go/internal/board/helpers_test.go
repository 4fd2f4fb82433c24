package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/prepboard/go/internal/models"
	"github.com/mcdev12/prepboard/go/internal/tone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, time.March, 1, 18, 0, 0, 0, time.UTC)

type memStore struct {
	mu      sync.Mutex
	data    map[string]string
	sets    int
	removes int
	setErr  error
	getErr  error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.sets++
	s.data[key] = value
	return nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removes++
	delete(s.data, key)
	return nil
}

func (s *memStore) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

func (s *memStore) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

type fakePlayer struct {
	mu       sync.Mutex
	attempts int
	closed   bool
	err      error
}

func (p *fakePlayer) Attempt(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++
	return p.err
}

func (p *fakePlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePlayer) attemptCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// playerFactory returns a factory handing out p and a counter of factory calls.
func playerFactory(p *fakePlayer) (tone.Factory, func() int) {
	var mu sync.Mutex
	calls := 0
	f := func() (tone.Player, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return p, nil
	}
	return f, func() int {
		mu.Lock()
		defer mu.Unlock()
		return calls
	}
}

var errNoAudio = errors.New("no audio device")

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func record(b *Board) *recorder {
	r := &recorder{}
	b.Subscribe(func(ev Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, ev)
	})
	return r
}

func (r *recorder) count(typ EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

type testBoard struct {
	*Board
	clock *clockwork.FakeClock
}

func newTestBoard(t *testing.T, store Store, factory tone.Factory) testBoard {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	b := New(DefaultConfig(), Deps{Clock: clock, Store: store, Tone: factory})
	t.Cleanup(b.Dispose)
	return testBoard{Board: b, clock: clock}
}

func (tb testBoard) add(t *testing.T, label string, d time.Duration) models.Timer {
	t.Helper()
	secs := int(d / time.Second)
	timer, err := tb.AddTimer(models.NewTimerPayload{Label: label, Seconds: secs, AccentID: "herb"})
	require.NoError(t, err)
	return timer
}

func (tb testBoard) get(t *testing.T, id string) models.Timer {
	t.Helper()
	timer, err := tb.Timer(id)
	require.NoError(t, err)
	return timer
}

// withTimer runs fn on the live timer under the board lock.
func (tb testBoard) withTimer(id string, fn func(*models.Timer)) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	fn(tb.registry.FindByID(id))
}

func (tb testBoard) hasRepeat(id string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.alerts.HasRepeat(id)
}

func (tb testBoard) pendingRepeats() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.alerts.PendingRepeats()
}

// complete starts a fresh timer and runs it out with one tick.
func (tb testBoard) complete(t *testing.T, label string) models.Timer {
	t.Helper()
	timer := tb.add(t, label, 5*time.Second)
	require.NoError(t, tb.StartTimer(timer.ID))
	tb.clock.Advance(5 * time.Second)
	tb.Tick()
	done := tb.get(t, timer.ID)
	require.Equal(t, models.TimerStatusDone, done.Status)
	return done
}

func assertInvariants(t *testing.T, timers []models.Timer) {
	t.Helper()
	for _, tm := range timers {
		assert.GreaterOrEqual(t, tm.Remaining, time.Duration(0), tm.Label)
		assert.LessOrEqual(t, tm.Remaining, tm.Duration, tm.Label)
		assert.Equal(t, tm.Status == models.TimerStatusRunning, tm.IsRunning, tm.Label)
		if !tm.IsRunning {
			assert.Nil(t, tm.LastUpdated, tm.Label)
		}
	}
}
