package board

import (
	"testing"
	"time"

	"github.com/mcdev12/prepboard/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreatePrepends(t *testing.T) {
	r := NewRegistry()
	a := r.Create(TimerSpec{Label: "a", Duration: time.Second, CreatedAt: epoch})
	b := r.Create(TimerSpec{Label: " ", Duration: 2 * time.Second, CreatedAt: epoch})

	require.Equal(t, 2, r.Len())
	clones := r.Clones()
	assert.Equal(t, b.ID, clones[0].ID)
	assert.Equal(t, a.ID, clones[1].ID)
	assert.Equal(t, models.DefaultTimerLabel, b.Label)
	assert.Equal(t, models.TimerStatusIdle, a.Status)
	assert.Equal(t, time.Second, a.Remaining)
	assert.Same(t, a, r.FindByID(a.ID))
	assert.Nil(t, r.FindByID("nope"))
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	for _, label := range []string{"a", "b", "c", "d"} {
		r.Create(TimerSpec{Label: label, Duration: time.Second})
	}

	removed := r.RemoveWhere(func(tm *models.Timer) bool {
		return tm.Label == "b" || tm.Label == "d"
	})
	require.Len(t, removed, 2)

	var labels []string
	r.ForEach(func(tm *models.Timer) { labels = append(labels, tm.Label) })
	assert.Equal(t, []string{"c", "a"}, labels)

	id := r.Clones()[0].ID
	assert.True(t, r.RemoveByID(id))
	assert.False(t, r.RemoveByID(id))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryClonesAreDeep(t *testing.T) {
	r := NewRegistry()
	tm := r.Create(TimerSpec{Label: "a", Duration: time.Second})
	now := epoch
	tm.LastUpdated = &now

	clone := r.Clones()[0]
	*clone.LastUpdated = epoch.Add(time.Hour)
	assert.True(t, tm.LastUpdated.Equal(epoch))
}

func TestAdvanceTimer(t *testing.T) {
	tm := &models.Timer{Duration: 10 * time.Second, Remaining: 10 * time.Second, Status: models.TimerStatusRunning, IsRunning: true}

	assert.False(t, advanceTimer(tm, epoch, epoch.Add(4*time.Second)))
	assert.Equal(t, 6*time.Second, tm.Remaining)
	require.NotNil(t, tm.LastUpdated)

	assert.False(t, advanceTimer(tm, epoch, epoch.Add(-time.Second)), "clock going backwards charges nothing")
	assert.Equal(t, 6*time.Second, tm.Remaining)

	assert.True(t, advanceTimer(tm, epoch, epoch.Add(time.Hour)))
	assert.Zero(t, tm.Remaining)
	assert.Equal(t, models.TimerStatusDone, tm.Status)
	assert.False(t, tm.IsRunning)
	assert.Nil(t, tm.LastUpdated)
	assert.Nil(t, tm.CompletedAt)
}
