package board

import (
	"math"
	"testing"
	"time"

	"github.com/mcdev12/prepboard/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartPauseReset(t *testing.T) {
	tb := newTestBoard(t, nil, nil)
	timer := tb.add(t, "Pasta", 10*time.Second)

	require.NoError(t, tb.StartTimer(timer.ID))
	running := tb.get(t, timer.ID)
	assert.Equal(t, models.TimerStatusRunning, running.Status)
	assert.True(t, running.IsRunning)
	require.NotNil(t, running.LastUpdated)
	assert.True(t, tb.Ticking())

	tb.clock.Advance(3 * time.Second)
	tb.Tick()
	assert.Equal(t, 7*time.Second, tb.get(t, timer.ID).Remaining)

	require.NoError(t, tb.PauseTimer(timer.ID))
	paused := tb.get(t, timer.ID)
	assert.Equal(t, models.TimerStatusPaused, paused.Status)
	assert.Equal(t, 7*time.Second, paused.Remaining)
	assert.False(t, tb.Ticking())

	require.NoError(t, tb.ResetTimer(timer.ID))
	reset := tb.get(t, timer.ID)
	assert.Equal(t, models.TimerStatusIdle, reset.Status)
	assert.Equal(t, reset.Duration, reset.Remaining)
	assert.False(t, reset.Notified)
	assert.Nil(t, reset.CompletedAt)

	assertInvariants(t, tb.Timers())
}

func TestPausedTimerIsNotAdvanced(t *testing.T) {
	tb := newTestBoard(t, nil, nil)
	timer := tb.add(t, "Rice", 30*time.Second)

	require.NoError(t, tb.StartTimer(timer.ID))
	require.NoError(t, tb.PauseTimer(timer.ID))
	tb.clock.Advance(time.Minute)
	tb.Tick()
	tb.Resync()

	paused := tb.get(t, timer.ID)
	assert.Equal(t, models.TimerStatusPaused, paused.Status)
	assert.Equal(t, 30*time.Second, paused.Remaining)

	require.NoError(t, tb.StartTimer(timer.ID))
	tb.clock.Advance(10 * time.Second)
	tb.Tick()
	assert.Equal(t, 20*time.Second, tb.get(t, timer.ID).Remaining)
}

func TestAddTimer(t *testing.T) {
	tb := newTestBoard(t, nil, nil)

	first, err := tb.AddTimer(models.NewTimerPayload{Label: "  Eggs ", Minutes: 1, Seconds: 30, AccentID: "citrus"})
	require.NoError(t, err)
	assert.Equal(t, "Eggs", first.Label)
	assert.Equal(t, 90*time.Second, first.Duration)
	assert.Equal(t, first.Duration, first.Remaining)
	assert.Equal(t, models.TimerStatusIdle, first.Status)
	assert.Equal(t, "citrus", first.Accent.ID)
	assert.True(t, first.CreatedAt.Equal(epoch))

	second, err := tb.AddTimer(models.NewTimerPayload{Label: "   ", Seconds: 5, AccentID: "unknown"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTimerLabel, second.Label)
	assert.Equal(t, "herb", second.Accent.ID)

	timers := tb.Timers()
	require.Len(t, timers, 2)
	assert.Equal(t, second.ID, timers[0].ID, "new timers go first")
	assert.NotEqual(t, first.ID, second.ID)
}

func TestAddPreset(t *testing.T) {
	tb := newTestBoard(t, nil, nil)

	timer, err := tb.AddPreset(1)
	require.NoError(t, err)
	assert.Equal(t, "Tea", timer.Label)
	assert.Equal(t, 4*time.Minute, timer.Duration)
	assert.Equal(t, "citrus", timer.Accent.ID)

	_, err = tb.AddPreset(9)
	assert.Error(t, err)
}

func TestOperationErrors(t *testing.T) {
	tb := newTestBoard(t, nil, nil)

	_, err := tb.AddTimer(models.NewTimerPayload{Label: "Nothing"})
	assert.ErrorIs(t, err, ErrInvalidDuration)

	assert.ErrorIs(t, tb.StartTimer("missing"), ErrTimerNotFound)
	assert.ErrorIs(t, tb.PauseTimer("missing"), ErrTimerNotFound)
	assert.ErrorIs(t, tb.ResetTimer("missing"), ErrTimerNotFound)
	assert.ErrorIs(t, tb.RemoveTimer("missing"), ErrTimerNotFound)

	idle := tb.add(t, "Idle", 10*time.Second)
	assert.ErrorIs(t, tb.PauseTimer(idle.ID), ErrInvalidTransition)

	done := tb.complete(t, "Done")
	assert.ErrorIs(t, tb.StartTimer(done.ID), ErrNothingRemaining)
	assert.ErrorIs(t, tb.PauseTimer(done.ID), ErrInvalidTransition)

	tb.Dispose()
	_, err = tb.AddTimer(models.NewTimerPayload{Seconds: 5})
	assert.ErrorIs(t, err, ErrDisposed)
	assert.ErrorIs(t, tb.StartTimer(idle.ID), ErrDisposed)
	_, err = tb.ClearDone()
	assert.ErrorIs(t, err, ErrDisposed)
}

func TestStartIsIdempotent(t *testing.T) {
	tb := newTestBoard(t, nil, nil)
	timer := tb.add(t, "Bread", 20*time.Second)

	require.NoError(t, tb.StartTimer(timer.ID))
	before := tb.get(t, timer.ID)
	tb.clock.Advance(time.Second)
	require.NoError(t, tb.StartTimer(timer.ID))
	after := tb.get(t, timer.ID)

	assert.True(t, before.LastUpdated.Equal(*after.LastUpdated))
}

func TestRemoveAndClearDone(t *testing.T) {
	tb := newTestBoard(t, nil, nil)
	doneA := tb.complete(t, "A")
	doneB := tb.complete(t, "B")
	idle := tb.add(t, "C", 10*time.Second)

	require.True(t, tb.hasRepeat(doneA.ID))
	require.NoError(t, tb.RemoveTimer(doneA.ID))
	assert.False(t, tb.hasRepeat(doneA.ID))

	n, err := tb.ClearDone()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, tb.hasRepeat(doneB.ID))
	assert.Zero(t, tb.pendingRepeats())

	timers := tb.Timers()
	require.Len(t, timers, 1)
	assert.Equal(t, idle.ID, timers[0].ID)
}

func TestFlags(t *testing.T) {
	tb := newTestBoard(t, nil, nil)
	rec := record(tb.Board)

	require.NoError(t, tb.SetDark(true))
	require.NoError(t, tb.SetDense(true))
	require.NoError(t, tb.SetDark(true))

	view := tb.View()
	assert.True(t, view.Flags.IsDark)
	assert.True(t, view.Flags.DenseLayout)
	assert.Equal(t, 2, rec.count(EventBoardChanged), "unchanged flags do not notify")

	muted, err := tb.ToggleMute()
	require.NoError(t, err)
	assert.True(t, muted)
	assert.True(t, tb.View().Muted)
}

func TestSubscribersSeeViewAfterChange(t *testing.T) {
	tb := newTestBoard(t, nil, nil)
	var got []Event
	tb.Subscribe(func(ev Event) { got = append(got, ev) })

	timer := tb.add(t, "Soup", time.Minute)
	require.NoError(t, tb.StartTimer(timer.ID))

	require.Len(t, got, 2)
	assert.Equal(t, EventTimerAdded, got[0].Type)
	assert.Equal(t, timer.ID, got[0].TimerID)
	assert.Equal(t, EventTimerStarted, got[1].Type)
	assert.True(t, got[1].View.Ticking)
	assert.Equal(t, 1, got[1].View.Derived.RunningCount)
}

func TestDisposeClosesPlayer(t *testing.T) {
	p := &fakePlayer{}
	factory, _ := playerFactory(p)
	tb := newTestBoard(t, nil, factory)

	tb.complete(t, "Stock")
	require.Eventually(t, func() bool { return p.attemptCount() == 1 }, time.Second, 5*time.Millisecond)

	tb.Dispose()
	p.mu.Lock()
	defer p.mu.Unlock()
	assert.True(t, p.closed)
	assert.Zero(t, tb.pendingRepeats())
}

func TestAddTimerRejectsOversizedDurations(t *testing.T) {
	tb := newTestBoard(t, nil, nil)

	tests := []struct {
		name    string
		payload models.NewTimerPayload
	}{
		{"HugeMinutes", models.NewTimerPayload{Minutes: math.MaxInt}},
		{"HugeSeconds", models.NewTimerPayload{Seconds: math.MaxInt}},
		{"WrapsPositive", models.NewTimerPayload{Minutes: math.MaxInt / 30, Seconds: 1}},
		{"JustOverLimit", models.NewTimerPayload{Minutes: 100 * 60, Seconds: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tb.AddTimer(tt.payload)
			assert.ErrorIs(t, err, ErrInvalidDuration)
		})
	}
	assert.Empty(t, tb.Timers())

	timer, err := tb.AddTimer(models.NewTimerPayload{Label: "Brisket", Minutes: 100 * 60})
	require.NoError(t, err)
	assert.Equal(t, models.MaxTimerDuration, timer.Duration)
}
