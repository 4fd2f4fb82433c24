package models

import (
	"time"
)

// TimerStatus defines the lifecycle state of a timer.
type TimerStatus string

const (
	TimerStatusIdle    TimerStatus = "idle"
	TimerStatusRunning TimerStatus = "running"
	TimerStatusPaused  TimerStatus = "paused"
	TimerStatusDone    TimerStatus = "done"
)

// Valid reports whether s is one of the known statuses.
func (s TimerStatus) Valid() bool {
	switch s {
	case TimerStatusIdle, TimerStatusRunning, TimerStatusPaused, TimerStatusDone:
		return true
	}
	return false
}

// DefaultTimerLabel is used when a timer is created with a blank label.
const DefaultTimerLabel = "Untitled timer"

// AccentOption is a palette entry used to tint a timer card.
type AccentOption struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Bg     string `json:"bg" yaml:"bg"`
	Fill   string `json:"fill" yaml:"fill"`
	Border string `json:"border" yaml:"border"`
	Text   string `json:"text" yaml:"text"`
	Stroke string `json:"stroke" yaml:"stroke"`
}

// Timer is a single countdown on the board.
type Timer struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	Duration    time.Duration `json:"duration"`
	Remaining   time.Duration `json:"remaining"`
	Status      TimerStatus   `json:"status"`
	IsRunning   bool          `json:"is_running"`
	Accent      AccentOption  `json:"accent"`
	LastUpdated *time.Time    `json:"last_updated,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	Notified    bool          `json:"notified"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// Clone returns a deep copy so callers can hand timers out without sharing
// the optional timestamp pointers.
func (t *Timer) Clone() Timer {
	c := *t
	if t.LastUpdated != nil {
		lu := *t.LastUpdated
		c.LastUpdated = &lu
	}
	if t.CompletedAt != nil {
		ca := *t.CompletedAt
		c.CompletedAt = &ca
	}
	return c
}

// NewTimerPayload is the user input for creating a timer.
type NewTimerPayload struct {
	Label    string `json:"label"`
	Minutes  int    `json:"minutes"`
	Seconds  int    `json:"seconds"`
	AccentID string `json:"accent_id"`
}

// MaxTimerDuration is the longest countdown a timer may hold.
const MaxTimerDuration = 100 * time.Hour

// TotalDuration converts the minutes and seconds fields to a duration. ok is
// false when either field is so large the total could not be represented
// within MaxTimerDuration. A negative or zero total is returned as is.
func (p NewTimerPayload) TotalDuration() (d time.Duration, ok bool) {
	limit := int64(MaxTimerDuration / time.Second)
	minutes, seconds := int64(p.Minutes), int64(p.Seconds)
	if minutes > limit/60 || minutes < -limit/60 || seconds > limit || seconds < -limit {
		return 0, false
	}
	secs := minutes*60 + seconds
	if secs > limit {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// TimerPreset is a one-tap timer template.
type TimerPreset struct {
	Label    string `json:"label" yaml:"label"`
	Minutes  int    `json:"minutes" yaml:"minutes"`
	AccentID string `json:"accent_id" yaml:"accent_id"`
}

// Payload turns the preset into a creation payload.
func (p TimerPreset) Payload() NewTimerPayload {
	return NewTimerPayload{
		Label:    p.Label,
		Minutes:  p.Minutes,
		AccentID: p.AccentID,
	}
}

// UIFlags are the board-wide display preferences persisted alongside timers.
type UIFlags struct {
	IsDark      bool `json:"is_dark"`
	DenseLayout bool `json:"dense_layout"`
}
