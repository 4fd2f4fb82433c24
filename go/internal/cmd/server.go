package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mcdev12/prepboard/go/internal/board"
	"github.com/mcdev12/prepboard/go/internal/gateway"
	"github.com/rs/zerolog/log"
)

func setupServer(cfg *Config, b *board.Board, cm *gateway.ConnectionManager) *http.Server {
	api := gateway.NewAPI(b, b.Palette())
	ws := gateway.NewWebSocketHandler(cm, b)

	return gateway.NewServer(gateway.ServerConfig{
		Addr:           cfg.HTTP.Addr,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, api, ws)
}

func startServer(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("Starting board server")
	log.Info().Msg("Board API available at /api/board")
	log.Info().Msg("Board stream available at /ws/board")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func stopServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
}
