package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/prepboard/go/internal/board"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	storeMemory = "memory"
	storeFile   = "file"
)

type Config struct {
	HTTP struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`

	Store struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		Path   string `yaml:"path"`
	} `yaml:"store"`

	NATS struct {
		Enabled       bool   `yaml:"enabled"`
		URL           string `yaml:"url"`
		Stream        string `yaml:"stream"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Suspend struct {
		Heartbeat time.Duration `yaml:"heartbeat"`
		Tolerance time.Duration `yaml:"tolerance"`
	} `yaml:"suspend"`

	Tone     string       `yaml:"tone"`
	LogLevel string       `yaml:"log_level"`
	Board    board.Config `yaml:"board"`
}

func defaultConfig() *Config {
	var cfg Config
	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.AllowedOrigins = []string{"*"}
	cfg.Store.Driver = storeFile
	cfg.Store.Path = "prepboard-state.json"
	cfg.Suspend.Heartbeat = 5 * time.Second
	cfg.Suspend.Tolerance = 5 * time.Second
	cfg.Tone = "bell"
	cfg.LogLevel = "info"
	cfg.Board = board.DefaultConfig()
	return &cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// loadConfig reads the optional YAML file over the defaults and then applies
// environment overrides.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		config.HTTP.Addr = ":" + port
	}
	config.HTTP.Addr = getEnv("HTTP_ADDR", config.HTTP.Addr)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.HTTP.AllowedOrigins = strings.Split(origins, ",")
	}

	config.Store.Driver = getEnv("STORE_DRIVER", config.Store.Driver)
	config.Store.DSN = getEnv("STORE_DSN", config.Store.DSN)
	config.Store.Path = getEnv("STORE_PATH", config.Store.Path)

	config.NATS.Enabled = getEnvAsBool("NATS_ENABLED", config.NATS.Enabled)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)

	config.Suspend.Heartbeat = getEnvAsDuration("SUSPEND_HEARTBEAT", config.Suspend.Heartbeat)
	config.Tone = getEnv("TONE", config.Tone)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)

	return config, nil
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	return nil
}
