// Package events ships board announcements to external subscribers.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Announcement is one outgoing message, the unit a Publisher delivers.
type Announcement struct {
	ID        uuid.UUID
	EventType string
	TimerID   string
	Payload   []byte
	CreatedAt time.Time
}

// TimerCompletedPayload is the payload for timer.completed and timer.reminder.
type TimerCompletedPayload struct {
	TimerID     string     `json:"timer_id"`
	Label       string     `json:"label"`
	Message     string     `json:"message"`
	Repeat      bool       `json:"repeat"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	AnnouncedAt time.Time  `json:"announced_at"`
}

// ToneFailedPayload is the payload for tone.failed.
type ToneFailedPayload struct {
	Message  string    `json:"message"`
	FailedAt time.Time `json:"failed_at"`
}

// BoardSummaryPayload rides along with every announcement so consumers can
// show a headline without replaying the board.
type BoardSummaryPayload struct {
	RunningCount     int    `json:"running_count"`
	DoneCount        int    `json:"done_count"`
	KitchenMood      string `json:"kitchen_mood"`
	NextCompleteCopy string `json:"next_complete_copy"`
}

type envelope struct {
	Event   any                 `json:"event"`
	Summary BoardSummaryPayload `json:"summary"`
}
