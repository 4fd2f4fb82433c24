package board

import (
	"time"

	"github.com/mcdev12/prepboard/go/internal/models"
)

// advanceTimer charges the wall time between since and now against a running
// timer. When nothing is left the timer is moved to done and true is returned;
// setting completedAt and alerting is left to the caller.
//
// Tick, resync and hydration all go through here so they agree on the math.
func advanceTimer(t *models.Timer, since, now time.Time) bool {
	elapsed := now.Sub(since)
	if elapsed < 0 {
		elapsed = 0
	}

	t.Remaining -= elapsed
	if t.Remaining > 0 {
		lu := now
		t.LastUpdated = &lu
		return false
	}

	t.Remaining = 0
	t.Status = models.TimerStatusDone
	t.IsRunning = false
	t.LastUpdated = nil
	return true
}

// normalizeTimer restores the timer invariants on data that came from outside
// the engine: 0 <= remaining <= duration, and isRunning iff status is running.
func normalizeTimer(t *models.Timer) {
	if !t.Status.Valid() {
		t.Status = models.TimerStatusIdle
	}
	if t.Duration < 0 {
		t.Duration = 0
	}
	if t.Remaining < 0 {
		t.Remaining = 0
	}
	if t.Remaining > t.Duration {
		t.Remaining = t.Duration
	}
	t.IsRunning = t.Status == models.TimerStatusRunning
	if !t.IsRunning {
		t.LastUpdated = nil
	}
	if t.Status == models.TimerStatusDone {
		t.Remaining = 0
	}
}

// wallNow strips the monotonic reading so elapsed math includes time spent
// with the host suspended.
func wallNow(now time.Time) time.Time {
	return now.Round(0)
}
