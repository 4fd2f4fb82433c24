package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mcdev12/prepboard/go/internal/board"
	"github.com/mcdev12/prepboard/go/internal/dbconfig"
	"github.com/mcdev12/prepboard/go/internal/kvstore"
	"github.com/rs/zerolog/log"
)

// setupStore opens the configured snapshot store. The returned func releases
// any underlying connection.
func setupStore(ctx context.Context, cfg *Config) (board.Store, func(), error) {
	noop := func() {}

	switch cfg.Store.Driver {
	case storeMemory:
		log.Info().Msg("Using in-memory store, board will not survive restarts")
		return kvstore.NewMemory(), noop, nil

	case storeFile:
		log.Info().Str("path", cfg.Store.Path).Msg("Using file store")
		return kvstore.NewFile(cfg.Store.Path), noop, nil

	case kvstore.DriverPostgres, kvstore.DriverPgx, kvstore.DriverSQLite:
		dsn, shown := cfg.Store.DSN, "configured dsn"
		if dsn == "" {
			if cfg.Store.Driver == kvstore.DriverSQLite {
				dsn = dbconfig.SQLiteDSN(getEnv("DB_PATH", "prepboard.db"))
				shown = dsn
			} else {
				pg := dbconfig.NewConfigFromEnv()
				dsn, shown = pg.DSN(), pg.Redacted()
			}
		}

		store, db, err := kvstore.OpenSQL(ctx, cfg.Store.Driver, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
		}
		log.Info().Str("driver", cfg.Store.Driver).Str("dsn", shown).Msg("Connected to database store")
		return store, closeDB(db), nil
	}

	return nil, nil, fmt.Errorf("%w: %s", kvstore.ErrUnknownDriver, cfg.Store.Driver)
}

func closeDB(db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}
}
