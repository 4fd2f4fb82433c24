// Package board is the timer engine behind the kitchen board: the ordered
// timer registry, the tick and prune loop, wake resync, completion reminders
// and the debounced snapshot writer.
package board

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/prepboard/go/internal/accents"
	"github.com/mcdev12/prepboard/go/internal/models"
	"github.com/mcdev12/prepboard/go/internal/tone"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators a Board needs. Store and Tone may be nil.
type Deps struct {
	Clock   clockwork.Clock
	Palette *accents.Palette
	Store   Store
	Tone    tone.Factory
}

// Board coordinates every timer on the board. All state sits behind mu;
// clock callbacks take the same lock, so no two of them ever interleave.
type Board struct {
	mu sync.Mutex

	cfg     Config
	clock   clockwork.Clock
	palette *accents.Palette
	store   Store

	registry *Registry
	alerts   *Alerts
	flags    models.UIFlags

	armed    bool
	disposed bool
	wakeCh   chan struct{}
	doneCh   chan struct{}

	subscribers []Subscriber

	pending *pendingFlush
	writeMu sync.Mutex
}

// New builds an empty board. Call Hydrate to restore saved state and Run to
// drive the tick loop.
func New(cfg Config, deps Deps) *Board {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Palette == nil {
		deps.Palette = accents.Default()
	}

	b := &Board{
		cfg:      cfg.withDefaults(),
		clock:    deps.Clock,
		palette:  deps.Palette,
		store:    deps.Store,
		registry: NewRegistry(),
		wakeCh:   make(chan struct{}, 1),
		doneCh:   make(chan struct{}),
	}
	b.alerts = newAlerts(b, deps.Tone)
	return b
}

func (b *Board) now() time.Time {
	return wallNow(b.clock.Now())
}

// AddTimer creates an idle timer from the payload and puts it first.
func (b *Board) AddTimer(payload models.NewTimerPayload) (models.Timer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return models.Timer{}, ErrDisposed
	}
	b.alerts.NoteInteraction()

	total, ok := payload.TotalDuration()
	if !ok {
		return models.Timer{}, fmt.Errorf("%w: longer than %s", ErrInvalidDuration, models.MaxTimerDuration)
	}
	if total <= 0 {
		return models.Timer{}, fmt.Errorf("%w: %s", ErrInvalidDuration, total)
	}

	t := b.registry.Create(TimerSpec{
		Label:     payload.Label,
		Duration:  total,
		Accent:    b.palette.Resolve(payload.AccentID),
		CreatedAt: b.now(),
	})

	log.Info().
		Str("timer_id", t.ID).
		Str("label", t.Label).
		Dur("duration", t.Duration).
		Msg("timer added")

	b.commitLocked(EventTimerAdded, t)
	return t.Clone(), nil
}

// AddPreset creates a timer from the palette's quick preset at index.
func (b *Board) AddPreset(index int) (models.Timer, error) {
	presets := b.palette.Presets()
	if index < 0 || index >= len(presets) {
		return models.Timer{}, fmt.Errorf("preset %d out of range", index)
	}
	return b.AddTimer(presets[index].Payload())
}

// StartTimer moves an idle or paused timer to running. Starting a running
// timer is a no-op.
func (b *Board) StartTimer(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.userTimerLocked(id)
	if err != nil {
		return err
	}
	if t.Remaining <= 0 {
		return ErrNothingRemaining
	}
	if isRunning(t) {
		return nil
	}

	b.alerts.ClearRepeat(t.ID)
	now := b.now()
	t.Status = models.TimerStatusRunning
	t.IsRunning = true
	t.LastUpdated = &now

	log.Debug().Str("timer_id", t.ID).Dur("remaining", t.Remaining).Msg("timer started")
	b.commitLocked(EventTimerStarted, t)
	return nil
}

// PauseTimer stops a running timer where it is. Time since the last tick is
// not charged.
func (b *Board) PauseTimer(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.userTimerLocked(id)
	if err != nil {
		return err
	}
	switch t.Status {
	case models.TimerStatusPaused:
		return nil
	case models.TimerStatusRunning:
	default:
		return fmt.Errorf("%w: cannot pause %s timer", ErrInvalidTransition, t.Status)
	}

	b.alerts.ClearRepeat(t.ID)
	t.Status = models.TimerStatusPaused
	t.IsRunning = false
	t.LastUpdated = nil

	log.Debug().Str("timer_id", t.ID).Dur("remaining", t.Remaining).Msg("timer paused")
	b.commitLocked(EventTimerPaused, t)
	return nil
}

// ResetTimer returns a timer in any state to idle with its full duration.
func (b *Board) ResetTimer(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.userTimerLocked(id)
	if err != nil {
		return err
	}

	b.alerts.ClearRepeat(t.ID)
	t.Status = models.TimerStatusIdle
	t.IsRunning = false
	t.Remaining = t.Duration
	t.LastUpdated = nil
	t.Notified = false
	t.CompletedAt = nil

	log.Debug().Str("timer_id", t.ID).Msg("timer reset")
	b.commitLocked(EventTimerReset, t)
	return nil
}

// RemoveTimer deletes a timer in any state.
func (b *Board) RemoveTimer(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.userTimerLocked(id)
	if err != nil {
		return err
	}

	b.alerts.ClearRepeat(t.ID)
	b.registry.RemoveByID(t.ID)

	log.Info().Str("timer_id", t.ID).Str("label", t.Label).Msg("timer removed")
	b.commitLocked(EventTimerRemoved, t)
	return nil
}

// ClearDone removes every finished timer and returns how many went.
func (b *Board) ClearDone() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return 0, ErrDisposed
	}
	b.alerts.NoteInteraction()

	removed := b.registry.RemoveWhere(func(t *models.Timer) bool {
		if !isDone(t) {
			return false
		}
		b.alerts.ClearRepeat(t.ID)
		return true
	})

	log.Info().Int("count", len(removed)).Msg("cleared done timers")
	b.commitLocked(EventTimersCleared, nil)
	return len(removed), nil
}

// SetMuted sets the mute flag.
func (b *Board) SetMuted(muted bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return ErrDisposed
	}
	if b.alerts.SetMuted(muted) {
		log.Info().Bool("muted", muted).Msg("mute changed")
		b.commitLocked(EventBoardChanged, nil)
	}
	return nil
}

// ToggleMute flips the mute flag and returns the new value.
func (b *Board) ToggleMute() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return false, ErrDisposed
	}
	muted := !b.alerts.muted
	b.alerts.SetMuted(muted)
	log.Info().Bool("muted", muted).Msg("mute changed")
	b.commitLocked(EventBoardChanged, nil)
	return muted, nil
}

// SetDark sets the dark mode preference.
func (b *Board) SetDark(dark bool) error {
	return b.setFlags(func(f *models.UIFlags) { f.IsDark = dark })
}

// SetDense sets the dense layout preference.
func (b *Board) SetDense(dense bool) error {
	return b.setFlags(func(f *models.UIFlags) { f.DenseLayout = dense })
}

func (b *Board) setFlags(fn func(*models.UIFlags)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return ErrDisposed
	}
	before := b.flags
	fn(&b.flags)
	if b.flags != before {
		b.commitLocked(EventBoardChanged, nil)
	}
	return nil
}

// NoteInteraction records a user gesture so tones may play.
func (b *Board) NoteInteraction() {
	b.mu.Lock()
	defer b.mu.Unlock()

	hadError := b.alerts.audioError != ""
	b.alerts.NoteInteraction()
	if hadError && !b.disposed {
		b.emitLocked(EventBoardChanged, nil, "")
	}
}

// Subscribe registers fn for every board event.
func (b *Board) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

// View returns a copy of the current board state.
func (b *Board) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewLocked()
}

// Timers returns copies of every timer, newest first.
func (b *Board) Timers() []models.Timer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registry.Clones()
}

// Timer returns a copy of one timer.
func (b *Board) Timer(id string) (models.Timer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.registry.FindByID(id)
	if t == nil {
		return models.Timer{}, fmt.Errorf("%w: %s", ErrTimerNotFound, id)
	}
	return t.Clone(), nil
}

// Derived returns the summary values for the current timers.
func (b *Board) Derived() Derived {
	return ComputeDerived(b.Timers())
}

// Palette returns the accent palette the board resolves against.
func (b *Board) Palette() *accents.Palette {
	return b.palette
}

// Dispose stops every callback, flushes a pending snapshot and releases the
// tone player. The board rejects further changes afterwards.
func (b *Board) Dispose() {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return
	}
	b.disposed = true
	b.alerts.shutdown()
	b.setArmedLocked(false)
	close(b.doneCh)

	flush := b.pending != nil
	if flush {
		b.pending.timer.Stop()
		b.pending = nil
	}
	player := b.alerts.player
	b.mu.Unlock()

	if flush {
		b.persistNow()
	}
	b.alerts.closePlayer(player)
	log.Info().Msg("board disposed")
}

// userTimerLocked handles the shared preamble of per-timer user actions.
func (b *Board) userTimerLocked(id string) (*models.Timer, error) {
	if b.disposed {
		return nil, ErrDisposed
	}
	b.alerts.NoteInteraction()

	t := b.registry.FindByID(id)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTimerNotFound, id)
	}
	return t, nil
}

// commitLocked is the tail of every mutation: re-evaluate the tick loop,
// schedule a snapshot and notify subscribers.
func (b *Board) commitLocked(typ EventType, t *models.Timer) {
	b.setArmedLocked(b.registry.Any(isRunning))
	b.schedulePersistLocked()
	b.emitLocked(typ, t, "")
}
