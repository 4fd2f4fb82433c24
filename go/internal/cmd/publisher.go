package main

import (
	"context"
	"fmt"

	"github.com/mcdev12/prepboard/go/internal/events"
	"github.com/rs/zerolog/log"
)

func setupPublisher(ctx context.Context, cfg *Config) (events.Publisher, error) {
	if !cfg.NATS.Enabled {
		return events.NewLogPublisher(), nil
	}

	jsCfg := events.DefaultJetStreamConfig()
	if cfg.NATS.URL != "" {
		jsCfg.URL = cfg.NATS.URL
	}
	if cfg.NATS.Stream != "" {
		jsCfg.StreamName = cfg.NATS.Stream
	}
	if cfg.NATS.SubjectPrefix != "" {
		jsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
	}

	pub, err := events.NewJetStreamPublisher(ctx, jsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream publisher: %w", err)
	}
	log.Info().Str("url", jsCfg.URL).Str("stream", jsCfg.StreamName).Msg("Publishing board announcements to JetStream")
	return pub, nil
}
