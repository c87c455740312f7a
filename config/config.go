package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"library-circulation/library"
)

const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

// Config holds the settings shared by the CLI and the import tool.
type Config struct {
	Storage    string
	DataFile   string
	DBPath     string
	ExpiryDays int
	LogLevel   slog.Level
	LogFormat  string
}

// Load reads an optional .env file from the working directory and then the
// environment. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Storage:   strings.ToLower(withDefault(getenv("LIBRARY_STORAGE"), StorageJSON)),
		DataFile:  withDefault(getenv("LIBRARY_DATA_FILE"), "library.json"),
		DBPath:    withDefault(getenv("LIBRARY_DB_PATH"), "library.db"),
		LogFormat: strings.ToLower(withDefault(getenv("LOG_FORMAT"), "text")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	days := withDefault(getenv("RESERVATION_EXPIRY_DAYS"), "3")
	n, err := strconv.Atoi(days)
	if err != nil || n <= 0 || n > library.MaxExpiryDays {
		return nil, fmt.Errorf("RESERVATION_EXPIRY_DAYS must be an integer between 1 and %d, got %q", library.MaxExpiryDays, days)
	}
	cfg.ExpiryDays = n

	level := withDefault(getenv("LOG_LEVEL"), "info")
	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings that can also be changed by CLI flags.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageJSON, StorageSQLite:
	default:
		return fmt.Errorf("LIBRARY_STORAGE must be %q or %q, got %q", StorageJSON, StorageSQLite, c.Storage)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be \"text\" or \"json\", got %q", c.LogFormat)
	}
	return nil
}

// NewLogger builds the slog logger described by the config.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func withDefault(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
