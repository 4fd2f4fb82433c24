package board

import (
	"context"
	"errors"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/prepboard/go/internal/models"
	"github.com/mcdev12/prepboard/go/internal/tone"
	"github.com/rs/zerolog/log"
)

// ToneErrorMessage is shown when the tone player fails after the user has
// interacted with the board.
const ToneErrorMessage = "Sound blocked; interact or check system audio."

// Alerts owns mute, the transient announcement and tone error, the
// interaction gate and the per-timer reminder handles. Every method expects
// the board lock to be held unless noted otherwise.
type Alerts struct {
	b *Board

	muted        bool
	interacted   bool
	announcement string
	audioError   string

	repeats map[string]*repeatHandle
	clear   *announcementClear

	toneFactory tone.Factory
	player      tone.Player
	playerReady bool
	toneWG      sync.WaitGroup
}

// repeatHandle is the single pending reminder for one timer. A fired callback
// whose handle is no longer registered is stale and does nothing.
type repeatHandle struct {
	timer clockwork.Timer
}

type announcementClear struct {
	timer clockwork.Timer
}

func newAlerts(b *Board, factory tone.Factory) *Alerts {
	return &Alerts{
		b:           b,
		repeats:     make(map[string]*repeatHandle),
		toneFactory: factory,
	}
}

// AnnounceCompletion records the completion on first call, posts the
// announcement, requests a tone and schedules the next reminder.
func (a *Alerts) AnnounceCompletion(t *models.Timer, isRepeat bool) {
	now := a.b.now()
	if t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	t.Notified = true

	msg := t.Label + " is ready"
	evType := EventTimerCompleted
	if isRepeat {
		msg = t.Label + " is still waiting"
		evType = EventTimerReminder
	}

	log.Info().
		Str("timer_id", t.ID).
		Str("label", t.Label).
		Bool("repeat", isRepeat).
		Msg("timer announcement")

	a.setAnnouncement(msg)
	a.requestTone()
	a.b.emitLocked(evType, t, msg)
	a.ScheduleRepeat(t)
}

// ScheduleRepeat arms one reminder for a done timer, replacing any pending one.
// Nothing is armed once the repeat window since completion has passed.
func (a *Alerts) ScheduleRepeat(t *models.Timer) {
	if t.Status != models.TimerStatusDone || a.muted || t.CompletedAt == nil {
		return
	}
	a.ClearRepeat(t.ID)

	cfg := a.b.cfg
	if a.b.now().Sub(*t.CompletedAt) >= cfg.RepeatWindow {
		return
	}

	id := t.ID
	h := &repeatHandle{}
	h.timer = a.b.clock.AfterFunc(cfg.RepeatInterval, func() {
		a.fireRepeat(id, h)
	})
	a.repeats[id] = h
}

// fireRepeat runs on the clock's goroutine and takes the board lock itself.
func (a *Alerts) fireRepeat(id string, h *repeatHandle) {
	a.b.mu.Lock()
	defer a.b.mu.Unlock()

	if a.repeats[id] != h {
		return
	}
	delete(a.repeats, id)

	if a.b.disposed || a.muted {
		return
	}
	t := a.b.registry.FindByID(id)
	if t == nil || t.Status != models.TimerStatusDone {
		return
	}
	a.AnnounceCompletion(t, true)
}

// ClearRepeat cancels the pending reminder for id, if any.
func (a *Alerts) ClearRepeat(id string) {
	if h, ok := a.repeats[id]; ok {
		h.timer.Stop()
		delete(a.repeats, id)
	}
}

// ClearAllRepeats cancels every pending reminder.
func (a *Alerts) ClearAllRepeats() {
	for id, h := range a.repeats {
		h.timer.Stop()
		delete(a.repeats, id)
	}
}

// PendingRepeats returns how many reminders are armed.
func (a *Alerts) PendingRepeats() int {
	return len(a.repeats)
}

// HasRepeat reports whether a reminder is armed for id.
func (a *Alerts) HasRepeat(id string) bool {
	_, ok := a.repeats[id]
	return ok
}

// SetMuted changes the mute flag and reports whether it changed. Muting drops
// every reminder; unmuting reschedules reminders for done timers still inside
// their window.
func (a *Alerts) SetMuted(muted bool) bool {
	if a.muted == muted {
		return false
	}
	a.muted = muted
	if muted {
		a.ClearAllRepeats()
		return true
	}
	a.b.registry.ForEach(func(t *models.Timer) {
		if isDone(t) {
			a.ScheduleRepeat(t)
		}
	})
	return true
}

// NoteInteraction opens the tone gate and clears any tone error.
func (a *Alerts) NoteInteraction() {
	a.interacted = true
	a.audioError = ""
}

func (a *Alerts) setAnnouncement(msg string) {
	a.announcement = msg
	if a.clear != nil {
		a.clear.timer.Stop()
	}

	c := &announcementClear{}
	c.timer = a.b.clock.AfterFunc(a.b.cfg.AnnouncementTTL, func() {
		a.b.mu.Lock()
		defer a.b.mu.Unlock()
		if a.clear != c {
			return
		}
		a.clear = nil
		if a.announcement == msg {
			a.announcement = ""
			if !a.b.disposed {
				a.b.emitLocked(EventBoardChanged, nil, "")
			}
		}
	})
	a.clear = c
}

// requestTone starts a tone attempt in the background. Mute, a closed
// interaction gate or a missing capability skip it silently.
func (a *Alerts) requestTone() {
	if a.muted || !a.interacted || a.b.disposed {
		return
	}
	p := a.ensurePlayer()
	if p == nil {
		return
	}

	timeout := a.b.cfg.ToneTimeout
	a.toneWG.Add(1)
	go func() {
		defer a.toneWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := p.Attempt(ctx)
		if err == nil || errors.Is(err, tone.ErrUnavailable) {
			return
		}
		log.Warn().Err(err).Msg("tone playback failed")

		a.b.mu.Lock()
		defer a.b.mu.Unlock()
		if a.b.disposed {
			return
		}
		a.audioError = ToneErrorMessage
		a.b.emitLocked(EventToneFailed, nil, ToneErrorMessage)
	}()
}

// ensurePlayer creates the shared player on first use. A factory reporting
// ErrUnavailable leaves the board without sound for its whole lifetime; any
// other failure is shown like a failed tone and retried on the next attempt.
func (a *Alerts) ensurePlayer() tone.Player {
	if a.playerReady {
		return a.player
	}
	if a.toneFactory == nil {
		a.playerReady = true
		return nil
	}

	p, err := a.toneFactory()
	if err != nil {
		if errors.Is(err, tone.ErrUnavailable) {
			a.playerReady = true
			return nil
		}
		log.Warn().Err(err).Msg("failed to create tone player")
		a.audioError = ToneErrorMessage
		a.b.emitLocked(EventToneFailed, nil, ToneErrorMessage)
		return nil
	}
	a.player = p
	a.playerReady = true
	return p
}

// shutdown cancels every callback. Called with the board lock held; the
// player is closed later by closePlayer once tone goroutines finish.
func (a *Alerts) shutdown() {
	a.ClearAllRepeats()
	if a.clear != nil {
		a.clear.timer.Stop()
		a.clear = nil
	}
}

// closePlayer waits for in-flight tone attempts and releases the player. It
// must be called without the board lock.
func (a *Alerts) closePlayer(p tone.Player) {
	a.toneWG.Wait()
	if p == nil {
		return
	}
	if err := p.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close tone player")
	}
}
