package board

import (
	"time"

	"github.com/mcdev12/prepboard/go/internal/models"
)

// EventType names a board change delivered to subscribers.
type EventType string

const (
	EventTimerAdded     EventType = "timer.added"
	EventTimerStarted   EventType = "timer.started"
	EventTimerPaused    EventType = "timer.paused"
	EventTimerReset     EventType = "timer.reset"
	EventTimerRemoved   EventType = "timer.removed"
	EventTimersCleared  EventType = "timers.cleared"
	EventTimerCompleted EventType = "timer.completed"
	EventTimerReminder  EventType = "timer.reminder"
	EventToneFailed     EventType = "tone.failed"
	EventBoardChanged   EventType = "board.changed"
	EventBoardHydrated  EventType = "board.hydrated"
)

// Event is one notification to subscribers. View is the board state right
// after the change.
type Event struct {
	Type    EventType
	TimerID string
	Label   string
	Message string
	At      time.Time
	View    View
}

// View is a consistent copy of everything a presenter needs.
type View struct {
	Timers       []models.Timer `json:"timers"`
	Flags        models.UIFlags `json:"flags"`
	Muted        bool           `json:"muted"`
	Announcement string         `json:"announcement"`
	AudioError   string         `json:"audio_error"`
	Ticking      bool           `json:"ticking"`
	Derived      Derived        `json:"derived"`
}

// Subscriber receives board events. It runs with the board lock held, so it
// must return quickly and must not call back into the board.
type Subscriber func(Event)

// viewLocked builds a View. Caller holds b.mu.
func (b *Board) viewLocked() View {
	timers := b.registry.Clones()
	return View{
		Timers:       timers,
		Flags:        b.flags,
		Muted:        b.alerts.muted,
		Announcement: b.alerts.announcement,
		AudioError:   b.alerts.audioError,
		Ticking:      b.armed,
		Derived:      ComputeDerived(timers),
	}
}

// emitLocked fans an event out to subscribers. Caller holds b.mu.
func (b *Board) emitLocked(typ EventType, t *models.Timer, msg string) {
	if len(b.subscribers) == 0 {
		return
	}
	ev := Event{
		Type:    typ,
		Message: msg,
		At:      b.now(),
		View:    b.viewLocked(),
	}
	if t != nil {
		ev.TimerID = t.ID
		ev.Label = t.Label
	}
	for _, sub := range b.subscribers {
		sub(ev)
	}
}
