package board

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// WatchSuspend detects host suspension. It ticks every heartbeat and, when the
// wall clock moved more than heartbeat+tolerance between two beats, calls
// onWake. It returns when ctx is done.
func WatchSuspend(ctx context.Context, clock clockwork.Clock, heartbeat, tolerance time.Duration, onWake func()) {
	ticker := clock.NewTicker(heartbeat)
	defer ticker.Stop()

	last := wallNow(clock.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			now := wallNow(clock.Now())
			gap := now.Sub(last)
			last = now
			if gap > heartbeat+tolerance {
				log.Info().Dur("gap", gap).Msg("resume detected, resyncing board")
				onWake()
			}
		}
	}
}
