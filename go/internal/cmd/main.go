package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/prepboard/go/internal/accents"
	"github.com/mcdev12/prepboard/go/internal/board"
	"github.com/mcdev12/prepboard/go/internal/console"
	"github.com/mcdev12/prepboard/go/internal/events"
	"github.com/mcdev12/prepboard/go/internal/gateway"
	"github.com/mcdev12/prepboard/go/internal/tone"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	interactive := flag.Bool("interactive", false, "run the readline console alongside the server")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := setupLogging(cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := setupStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up store")
	}
	defer closeStore()

	publisher, err := setupPublisher(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up publisher")
	}
	defer publisher.Close()

	var con *console.Console
	toneFactory, err := newToneFactory(cfg.Tone, func() io.Writer {
		// Bells go through readline's writer to keep the prompt intact.
		if con != nil {
			return con.Stdout()
		}
		return os.Stdout
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up tone")
	}

	clock := clockwork.NewRealClock()
	b := board.New(cfg.Board, board.Deps{
		Clock:   clock,
		Palette: accents.Default(),
		Store:   store,
		Tone:    toneFactory,
	})

	if *interactive {
		con, err = console.New(b)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start console")
		}
		b.Subscribe(con.Observe)
	}

	relay := events.NewRelay(publisher, events.DefaultRelayConfig(), clock)
	b.Subscribe(relay.Observe)
	go relay.Run(ctx)

	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig(), gateway.BoardCommands(b))
	b.Subscribe(cm.Observe)
	go cm.Start(ctx)

	if err := b.Hydrate(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to hydrate board")
	}

	go func() {
		if err := b.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Board loop stopped")
		}
	}()
	go board.WatchSuspend(ctx, clock, cfg.Suspend.Heartbeat, cfg.Suspend.Tolerance, b.Wake)

	server := setupServer(cfg, b, cm)
	go startServer(server)

	if con != nil {
		go con.Run(ctx, cancel)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGCONT)

	for running := true; running; {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGCONT {
				log.Info().Msg("Resumed, resyncing board")
				b.Wake()
				continue
			}
			log.Info().Str("signal", sig.String()).Msg("Shutting down")
			running = false
		case <-ctx.Done():
			running = false
		}
	}

	stopServer(server)
	cancel()
	b.Dispose()
	log.Info().Msg("Board stopped")
}

// newToneFactory validates kind up front and resolves the output writer on
// first use.
func newToneFactory(kind string, out func() io.Writer) (tone.Factory, error) {
	if _, err := tone.NewFactory(kind, nil); err != nil {
		return nil, err
	}
	return func() (tone.Player, error) {
		f, err := tone.NewFactory(kind, out())
		if err != nil {
			return nil, err
		}
		return f()
	}, nil
}
