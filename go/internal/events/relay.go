package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/prepboard/go/internal/board"
	"github.com/rs/zerolog/log"
)

type RelayConfig struct {
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		BufferSize: 64,
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
	}
}

// Relay turns board events into announcements and publishes them from its
// own goroutine. Observe never blocks the board; a full buffer drops the
// announcement with a warning.
type Relay struct {
	publisher Publisher
	config    RelayConfig
	clock     clockwork.Clock
	queue     chan Announcement
}

func NewRelay(publisher Publisher, cfg RelayConfig, clock clockwork.Clock) *Relay {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultRelayConfig().BufferSize
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Relay{
		publisher: publisher,
		config:    cfg,
		clock:     clock,
		queue:     make(chan Announcement, cfg.BufferSize),
	}
}

// Observe is a board.Subscriber.
func (r *Relay) Observe(ev board.Event) {
	a, ok, err := announcementFor(ev)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(ev.Type)).Msg("failed to build announcement")
		return
	}
	if !ok {
		return
	}

	select {
	case r.queue <- a:
	default:
		log.Warn().Str("event_type", a.EventType).Msg("announcement queue full, dropping")
	}
}

// Run publishes queued announcements until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	log.Info().Msg("announcement relay started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("announcement relay shutting down")
			return
		case a := <-r.queue:
			if err := r.publishWithRetry(ctx, a); err != nil {
				log.Error().
					Err(err).
					Str("event_id", a.ID.String()).
					Str("event_type", a.EventType).
					Msg("failed to publish announcement")
			}
		}
	}
}

func (r *Relay) publishWithRetry(ctx context.Context, a Announcement) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.clock.After(r.config.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := r.publisher.Publish(ctx, a); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Str("event_id", a.ID.String()).
				Int("attempt", attempt+1).
				Msg("failed to publish announcement, retrying")
			continue
		}
		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", r.config.MaxRetries+1, lastErr)
}

// announcementFor maps the board events worth announcing. Everything else is
// only interesting to live views.
func announcementFor(ev board.Event) (Announcement, bool, error) {
	var payload any
	switch ev.Type {
	case board.EventTimerCompleted, board.EventTimerReminder:
		p := TimerCompletedPayload{
			TimerID:     ev.TimerID,
			Label:       ev.Label,
			Message:     ev.Message,
			Repeat:      ev.Type == board.EventTimerReminder,
			AnnouncedAt: ev.At.UTC(),
		}
		for _, t := range ev.View.Timers {
			if t.ID == ev.TimerID && t.CompletedAt != nil {
				at := t.CompletedAt.UTC()
				p.CompletedAt = &at
			}
		}
		payload = p
	case board.EventToneFailed:
		payload = ToneFailedPayload{Message: ev.Message, FailedAt: ev.At.UTC()}
	default:
		return Announcement{}, false, nil
	}

	d := ev.View.Derived
	data, err := json.Marshal(envelope{
		Event: payload,
		Summary: BoardSummaryPayload{
			RunningCount:     d.RunningCount,
			DoneCount:        d.DoneCount,
			KitchenMood:      d.KitchenMood,
			NextCompleteCopy: d.NextCompleteCopy,
		},
	})
	if err != nil {
		return Announcement{}, false, fmt.Errorf("marshal announcement: %w", err)
	}

	return Announcement{
		ID:        uuid.New(),
		EventType: string(ev.Type),
		TimerID:   ev.TimerID,
		Payload:   data,
		CreatedAt: ev.At,
	}, true, nil
}
