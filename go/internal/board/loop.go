package board

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/prepboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Run drives the board until ctx is cancelled or the board is disposed. The
// tick ticker only exists while some timer is running; the prune ticker runs
// for the whole lifetime of the loop.
func (b *Board) Run(ctx context.Context) error {
	prune := b.clock.NewTicker(b.cfg.PruneInterval)
	defer prune.Stop()

	var ticker clockwork.Ticker
	var tickC <-chan time.Time
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickC = nil
		}
	}
	defer stopTicker()

	syncTicker := func() {
		if !b.Ticking() {
			if ticker != nil {
				log.Debug().Msg("tick loop disarmed")
			}
			stopTicker()
			return
		}
		if ticker == nil {
			ticker = b.clock.NewTicker(b.cfg.TickInterval)
			tickC = ticker.Chan()
			log.Debug().Dur("interval", b.cfg.TickInterval).Msg("tick loop armed")
		}
	}

	log.Info().
		Dur("tick_interval", b.cfg.TickInterval).
		Dur("prune_interval", b.cfg.PruneInterval).
		Msg("board loop started")

	syncTicker()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("board loop stopped")
			return ctx.Err()
		case <-b.doneCh:
			return nil
		case <-b.wakeCh:
			syncTicker()
		case <-tickC:
			b.Tick()
			syncTicker()
		case <-prune.Chan():
			b.Prune()
			syncTicker()
		}
	}
}

// Ticking reports whether the tick loop is armed.
func (b *Board) Ticking() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.armed
}

// Tick runs one evaluation: advance running timers, complete the ones that ran
// out, then prune. All advancement happens before pruning.
func (b *Board) Tick() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed || !b.registry.Any(isRunning) {
		b.setArmedLocked(false)
		return
	}

	now := b.now()
	completed := b.advanceRunningLocked(now)
	pruned := b.pruneLocked(now)
	b.settleLocked(completed || pruned)
}

// Resync catches running timers up with wall time in one step. Use it when the
// process comes back from suspension; calling it twice with no time passing
// changes nothing.
func (b *Board) Resync() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return
	}

	now := b.now()
	completed := b.advanceRunningLocked(now)
	b.settleLocked(completed)

	log.Debug().Bool("ticking", b.armed).Msg("board resynced")
}

// Wake is the resume signal. It resyncs and rearms the loop when needed.
func (b *Board) Wake() {
	b.Resync()
}

// Prune drops done timers whose grace period has passed.
func (b *Board) Prune() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return
	}
	if b.pruneLocked(b.now()) {
		b.commitLocked(EventBoardChanged, nil)
	}
}

// settleLocked finishes a time-driven pass. Plain countdown progress is not
// persisted: the stored remaining and lastUpdated pair still reconciles on
// hydrate.
func (b *Board) settleLocked(persist bool) {
	b.setArmedLocked(b.registry.Any(isRunning))
	if persist {
		b.schedulePersistLocked()
	}
	b.emitLocked(EventBoardChanged, nil, "")
}

// advanceRunningLocked charges elapsed time to every running timer and
// completes those that hit zero. A timer with no lastUpdated is charged
// nothing.
func (b *Board) advanceRunningLocked(now time.Time) bool {
	completed := false
	b.registry.ForEach(func(t *models.Timer) {
		if !isRunning(t) {
			return
		}
		since := now
		if t.LastUpdated != nil {
			since = *t.LastUpdated
		}
		if advanceTimer(t, since, now) {
			completed = true
			b.completeLocked(t, now)
		}
	})
	return completed
}

// completeLocked runs the completion handler unless the timer was already
// announced.
func (b *Board) completeLocked(t *models.Timer, now time.Time) {
	log.Info().Str("timer_id", t.ID).Str("label", t.Label).Msg("timer completed")
	if !t.Notified {
		b.alerts.AnnounceCompletion(t, false)
		return
	}
	if t.CompletedAt == nil {
		t.CompletedAt = &now
	}
}

// pruneLocked removes done timers past the prune delay, cancelling their
// reminders first.
func (b *Board) pruneLocked(now time.Time) bool {
	removed := b.registry.RemoveWhere(func(t *models.Timer) bool {
		if !isDone(t) || t.CompletedAt == nil {
			return false
		}
		if now.Sub(*t.CompletedAt) < b.cfg.PruneDelay {
			return false
		}
		b.alerts.ClearRepeat(t.ID)
		return true
	})
	for _, t := range removed {
		log.Debug().Str("timer_id", t.ID).Str("label", t.Label).Msg("pruned done timer")
	}
	return len(removed) > 0
}

// setArmedLocked records the loop state and nudges Run when it changes.
func (b *Board) setArmedLocked(armed bool) {
	if b.armed == armed {
		return
	}
	b.armed = armed
	select {
	case b.wakeCh <- struct{}{}:
	default:
	}
}
