package board

import (
	"testing"
	"time"

	"github.com/mcdev12/prepboard/go/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestComputeDerived(t *testing.T) {
	timers := []models.Timer{
		{ID: "done", Label: "Done", Status: models.TimerStatusDone},
		{ID: "idle", Label: "Idle", Status: models.TimerStatusIdle, Remaining: time.Minute},
		{ID: "slow", Label: "Slow", Status: models.TimerStatusRunning, IsRunning: true, Remaining: 10 * time.Minute},
		{ID: "paused", Label: "Paused", Status: models.TimerStatusPaused, Remaining: time.Hour},
		{ID: "fast", Label: "Fast", Status: models.TimerStatusRunning, IsRunning: true, Remaining: 61 * time.Second},
	}

	d := ComputeDerived(timers)

	assert.Equal(t, 2, d.RunningCount)
	assert.Equal(t, 1, d.DoneCount)
	assert.Equal(t, MoodSimmering, d.KitchenMood)
	if assert.NotNil(t, d.NextComplete) {
		assert.Equal(t, "fast", d.NextComplete.ID)
	}
	assert.Equal(t, "Fast ~2m", d.NextCompleteCopy)
	assert.Equal(t, []string{"fast", "slow", "paused", "idle", "done"}, d.SortedIDs)
	assert.Equal(t, "done", timers[0].ID, "input is not reordered")
}

func TestComputeDerivedIdleBoard(t *testing.T) {
	d := ComputeDerived(nil)

	assert.Zero(t, d.RunningCount)
	assert.Equal(t, MoodReady, d.KitchenMood)
	assert.Nil(t, d.NextComplete)
	assert.Equal(t, "—", d.NextCompleteCopy)
	assert.Empty(t, d.SortedTimers)
}
