package events

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/prepboard/go/internal/board"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// Subjects under the configured prefix:
//
//	<prefix>.timer.<timer id>.completed
//	<prefix>.timer.<timer id>.reminder
//	<prefix>.tone.failed
//	<prefix>.board.<event type>
//
// so a kitchen display can follow one timer with <prefix>.timer.<id>.>.
const (
	subjectTimer = "timer"
	subjectTone  = "tone"
	subjectBoard = "board"
)

type JetStreamConfig struct {
	URL           string
	StreamName    string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	MaxAge        time.Duration
	// MaxPerSubject caps the history kept per timer, which bounds how many
	// reminders a late consumer replays.
	MaxPerSubject   int64
	DuplicateWindow time.Duration
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:             nats.DefaultURL,
		StreamName:      "PREPBOARD_EVENTS",
		SubjectPrefix:   "prepboard.events",
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		MaxAge:          12 * time.Hour,
		MaxPerSubject:   10,
		DuplicateWindow: 2 * time.Minute,
	}
}

// JetStreamPublisher publishes announcements to a stream routed by timer.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
}

func NewJetStreamPublisher(ctx context.Context, cfg JetStreamConfig) (*JetStreamPublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("prepboard"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("lost NATS connection, announcements will retry")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	p := &JetStreamPublisher{nc: nc, js: js, config: cfg}
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}
	return p, nil
}

// ensureStream creates the announcement stream or brings an existing one in
// line with config.
func (p *JetStreamPublisher) ensureStream(ctx context.Context) error {
	want := streamConfig(p.config)

	stream, err := p.js.CreateOrUpdateStream(ctx, want)
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", want.Name, err)
	}
	info := stream.CachedInfo()
	if !streamMatches(info.Config, want) {
		log.Warn().Str("stream", want.Name).Msg("server adjusted the announcement stream config")
	}
	log.Info().
		Str("stream", info.Config.Name).
		Strs("subjects", info.Config.Subjects).
		Uint64("messages", info.State.Msgs).
		Msg("announcement stream ready")
	return nil
}

func (p *JetStreamPublisher) Publish(ctx context.Context, a Announcement) error {
	msg := buildMsg(p.config.SubjectPrefix, a)

	ack, err := p.js.PublishMsg(ctx, msg,
		jetstream.WithMsgID(a.ID.String()),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}

	log.Debug().
		Str("subject", msg.Subject).
		Str("timer_id", a.TimerID).
		Uint64("sequence", ack.Sequence).
		Bool("duplicate", ack.Duplicate).
		Msg("announcement published")
	return nil
}

func (p *JetStreamPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}

// subjectFor routes an announcement. Timer events land on a per-timer
// subject; anything else is filed under board.
func subjectFor(prefix string, a Announcement) string {
	switch board.EventType(a.EventType) {
	case board.EventTimerCompleted:
		return strings.Join([]string{prefix, subjectTimer, subjectToken(a.TimerID), "completed"}, ".")
	case board.EventTimerReminder:
		return strings.Join([]string{prefix, subjectTimer, subjectToken(a.TimerID), "reminder"}, ".")
	case board.EventToneFailed:
		return strings.Join([]string{prefix, subjectTone, "failed"}, ".")
	default:
		return strings.Join([]string{prefix, subjectBoard, a.EventType}, ".")
	}
}

// subjectToken makes a timer id safe as one subject token. Restored ids are
// user data and may hold dots, wildcards or spaces.
func subjectToken(id string) string {
	if id == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, id)
}

func buildMsg(prefix string, a Announcement) *nats.Msg {
	msg := nats.NewMsg(subjectFor(prefix, a))
	msg.Data = a.Payload
	msg.Header.Set("Event-Type", a.EventType)
	msg.Header.Set("Announced-At", a.CreatedAt.UTC().Format(time.RFC3339Nano))
	if a.TimerID != "" {
		msg.Header.Set("Timer-ID", a.TimerID)
		msg.Header.Set("Reminder", strconv.FormatBool(a.EventType == string(board.EventTimerReminder)))
	}
	return msg
}

func streamConfig(cfg JetStreamConfig) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "Kitchen board announcements",
		Subjects: []string{
			cfg.SubjectPrefix + "." + subjectTimer + ".*.*",
			cfg.SubjectPrefix + "." + subjectTone + ".>",
			cfg.SubjectPrefix + "." + subjectBoard + ".>",
		},
		Retention:         jetstream.LimitsPolicy,
		Discard:           jetstream.DiscardOld,
		MaxAge:            cfg.MaxAge,
		MaxMsgsPerSubject: cfg.MaxPerSubject,
		Storage:           jetstream.FileStorage,
		Replicas:          1,
		Duplicates:        cfg.DuplicateWindow,
	}
}

func streamMatches(got, want jetstream.StreamConfig) bool {
	return got.Name == want.Name &&
		slices.Equal(got.Subjects, want.Subjects) &&
		got.MaxAge == want.MaxAge &&
		got.MaxMsgsPerSubject == want.MaxMsgsPerSubject &&
		got.Duplicates == want.Duplicates
}
