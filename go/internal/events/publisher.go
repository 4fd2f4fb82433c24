package events

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Publisher delivers announcements somewhere outside the process.
type Publisher interface {
	Publish(ctx context.Context, a Announcement) error
	Close() error
}

// LogPublisher writes announcements to the log. Used when no broker is
// configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(_ context.Context, a Announcement) error {
	log.Info().
		Str("event_id", a.ID.String()).
		Str("event_type", a.EventType).
		Str("timer_id", a.TimerID).
		RawJSON("payload", a.Payload).
		Msg("announcement")
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
