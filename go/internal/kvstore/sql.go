package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mcdev12/prepboard/go/internal/sqlutil"
	"github.com/rs/zerolog/log"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite3"
)

// ErrUnknownDriver is returned for a driver name SQL does not know.
var ErrUnknownDriver = errors.New("unknown kv store driver")

type dialect struct {
	schema []string
	get    string
	upsert string
	remove string
}

var postgresDialect = dialect{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS kv_store (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS kv_store_updated_at_idx ON kv_store (updated_at)`,
	},
	get: `SELECT value FROM kv_store WHERE key = $1`,
	upsert: `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
	remove: `DELETE FROM kv_store WHERE key = $1`,
}

var sqliteDialect = dialect{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS kv_store (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS kv_store_updated_at_idx ON kv_store (updated_at)`,
	},
	get: `SELECT value FROM kv_store WHERE key = ?`,
	upsert: `INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
	remove: `DELETE FROM kv_store WHERE key = ?`,
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverPostgres, DriverPgx:
		return postgresDialect, nil
	case DriverSQLite:
		return sqliteDialect, nil
	}
	return dialect{}, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}

// SQL stores values in the kv_store table of a database/sql database.
type SQL struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// NewSQL wraps an open database. driver selects the SQL dialect.
func NewSQL(db *sql.DB, driver string) (*SQL, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &SQL{db: db, dialect: d, now: time.Now}, nil
}

// OpenSQL opens and pings a database, then makes sure the schema exists.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQL, *sql.DB, error) {
	if _, err := dialectFor(driver); err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	if driver == DriverSQLite {
		// one writer avoids "database is locked" under concurrent flushes
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s, err := NewSQL(db, driver)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	log.Info().Str("driver", driver).Msg("connected to kv store database")
	return s, db, nil
}

// EnsureSchema creates the kv_store table if it is missing.
func (s *SQL) EnsureSchema(ctx context.Context) error {
	err := sqlutil.InTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, stmt := range s.dialect.schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create kv_store schema: %w", err)
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.dialect.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, key, value, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.remove, key); err != nil {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}
