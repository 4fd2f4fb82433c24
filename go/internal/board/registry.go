package board

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/prepboard/go/internal/models"
)

// TimerSpec describes a timer to be created.
type TimerSpec struct {
	Label     string
	Duration  time.Duration
	Accent    models.AccentOption
	CreatedAt time.Time
}

// Registry is the ordered timer collection. Newest timers come first.
// It is not safe for concurrent use; the Board serializes access.
type Registry struct {
	timers []*models.Timer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Create builds an idle timer from ts and prepends it.
func (r *Registry) Create(ts TimerSpec) *models.Timer {
	label := strings.TrimSpace(ts.Label)
	if label == "" {
		label = models.DefaultTimerLabel
	}

	t := &models.Timer{
		ID:        uuid.NewString(),
		Label:     label,
		Duration:  ts.Duration,
		Remaining: ts.Duration,
		Status:    models.TimerStatusIdle,
		Accent:    ts.Accent,
		CreatedAt: ts.CreatedAt,
	}
	r.timers = append([]*models.Timer{t}, r.timers...)
	return t
}

// FindByID returns the timer with the given id or nil.
func (r *Registry) FindByID(id string) *models.Timer {
	for _, t := range r.timers {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// RemoveByID deletes the timer with the given id and reports whether it existed.
func (r *Registry) RemoveByID(id string) bool {
	for i, t := range r.timers {
		if t.ID == id {
			r.timers = append(r.timers[:i], r.timers[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveWhere deletes every timer matching pred, keeping the order of the
// rest, and returns the removed timers.
func (r *Registry) RemoveWhere(pred func(*models.Timer) bool) []*models.Timer {
	var removed []*models.Timer
	kept := r.timers[:0]
	for _, t := range r.timers {
		if pred(t) {
			removed = append(removed, t)
			continue
		}
		kept = append(kept, t)
	}
	// drop references held by the tail of the backing array
	for i := len(kept); i < len(r.timers); i++ {
		r.timers[i] = nil
	}
	r.timers = kept
	return removed
}

// ForEach calls fn for every timer in order. fn may mutate the timer but must
// not add or remove timers.
func (r *Registry) ForEach(fn func(*models.Timer)) {
	for _, t := range r.timers {
		fn(t)
	}
}

// Any reports whether some timer matches pred.
func (r *Registry) Any(pred func(*models.Timer) bool) bool {
	for _, t := range r.timers {
		if pred(t) {
			return true
		}
	}
	return false
}

// Len returns the number of timers.
func (r *Registry) Len() int {
	return len(r.timers)
}

// Replace swaps the whole collection, used by hydration.
func (r *Registry) Replace(timers []*models.Timer) {
	r.timers = timers
}

// Clones returns deep copies of every timer in order.
func (r *Registry) Clones() []models.Timer {
	out := make([]models.Timer, 0, len(r.timers))
	for _, t := range r.timers {
		out = append(out, t.Clone())
	}
	return out
}

func isRunning(t *models.Timer) bool {
	return t.Status == models.TimerStatusRunning
}

func isDone(t *models.Timer) bool {
	return t.Status == models.TimerStatusDone
}
