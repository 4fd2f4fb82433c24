package board

import (
	"fmt"
	"math"
	"sort"

	"github.com/mcdev12/prepboard/go/internal/models"
)

const (
	MoodSimmering = "Pots are simmering"
	MoodReady     = "Ready when you are"

	noNextComplete = "—"
)

// Derived holds the summary values shown next to the board.
type Derived struct {
	RunningCount     int            `json:"running_count"`
	DoneCount        int            `json:"done_count"`
	KitchenMood      string         `json:"kitchen_mood"`
	NextComplete     *models.Timer  `json:"next_complete,omitempty"`
	NextCompleteCopy string         `json:"next_complete_copy"`
	SortedTimers     []models.Timer `json:"-"`
	SortedIDs        []string       `json:"sorted_ids"`
}

var statusWeight = map[models.TimerStatus]int{
	models.TimerStatusRunning: 0,
	models.TimerStatusPaused:  1,
	models.TimerStatusIdle:    2,
	models.TimerStatusDone:    3,
}

// ComputeDerived summarizes timers. The input slice is not modified.
func ComputeDerived(timers []models.Timer) Derived {
	d := Derived{
		KitchenMood:      MoodReady,
		NextCompleteCopy: noNextComplete,
	}

	for i := range timers {
		t := timers[i]
		switch t.Status {
		case models.TimerStatusRunning:
			d.RunningCount++
			if d.NextComplete == nil || t.Remaining < d.NextComplete.Remaining {
				next := t.Clone()
				d.NextComplete = &next
			}
		case models.TimerStatusDone:
			d.DoneCount++
		}
	}

	if d.RunningCount > 0 {
		d.KitchenMood = MoodSimmering
	}
	if d.NextComplete != nil {
		mins := int(math.Ceil(d.NextComplete.Remaining.Minutes()))
		d.NextCompleteCopy = fmt.Sprintf("%s ~%dm", d.NextComplete.Label, mins)
	}

	d.SortedTimers = make([]models.Timer, len(timers))
	copy(d.SortedTimers, timers)
	sort.SliceStable(d.SortedTimers, func(i, j int) bool {
		a, b := d.SortedTimers[i], d.SortedTimers[j]
		wa, wb := statusWeight[a.Status], statusWeight[b.Status]
		if wa != wb {
			return wa < wb
		}
		return a.Remaining < b.Remaining
	})
	d.SortedIDs = make([]string, len(d.SortedTimers))
	for i, t := range d.SortedTimers {
		d.SortedIDs[i] = t.ID
	}
	return d
}
