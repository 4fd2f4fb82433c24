// Package dbconfig builds connection strings for the SQL snapshot stores from
// the environment.
package dbconfig

import (
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds Postgres connection settings. URL, when set from
// DATABASE_URL, wins over the individual DB_* fields.
type Config struct {
	URL            string
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	SSLMode        string
	ConnectTimeout time.Duration
}

const applicationName = "prepboard"

// NewConfigFromEnv reads DATABASE_URL or the DB_* variables.
func NewConfigFromEnv() Config {
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil || port <= 0 {
		port = 5432
	}
	timeout, err := time.ParseDuration(getEnv("DB_CONNECT_TIMEOUT", "5s"))
	if err != nil || timeout < time.Second {
		timeout = 5 * time.Second
	}

	return Config{
		URL:            os.Getenv("DATABASE_URL"),
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           port,
		User:           getEnv("DB_USER", "postgres"),
		Password:       getEnv("DB_PASSWORD", "postgres"),
		Database:       getEnv("DB_NAME", "prepboard"),
		SSLMode:        getEnv("DB_SSLMODE", "disable"),
		ConnectTimeout: timeout,
	}
}

// DSN returns a Postgres URL accepted by both lib/pq and the pgx stdlib
// driver. The board's connections are tagged with an application name so
// they can be told apart in pg_stat_activity.
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	q.Set("application_name", applicationName)
	q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout/time.Second)))

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + strconv.Itoa(c.Port),
		Path:     "/" + c.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Redacted is DSN with the password masked, for logs.
func (c Config) Redacted() string {
	u, err := url.Parse(c.DSN())
	if err != nil {
		return "<unparseable dsn>"
	}
	return u.Redacted()
}

// SQLiteDSN turns a file path into a go-sqlite3 DSN. The busy timeout lets a
// snapshot write wait out a concurrent reader instead of failing.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Set("_busy_timeout", "5000")
	q.Set("_journal_mode", "WAL")
	return "file:" + path + "?" + q.Encode()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
