package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends selectable through WEEKLY_EVENTS_STORAGE.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config captures environment driven configuration values for the weekly
// events service.
type Config struct {
	HTTPPort   int
	DataDir    string
	Storage    string
	SQLiteDSN  string
	SeedPath   string
	SessionTTL time.Duration
}

// Load parses configuration values from the current process environment.
//
// Every value has a default so the service starts with an empty
// environment; set values are validated and reported together.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:   8080,
		DataDir:    "data",
		Storage:    StorageFile,
		SQLiteDSN:  "file:weekly-events.db",
		SeedPath:   "data/events.seed.yaml",
		SessionTTL: 24 * time.Hour,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("WEEKLY_EVENTS_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "WEEKLY_EVENTS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dir := strings.TrimSpace(os.Getenv("WEEKLY_EVENTS_DATA_DIR")); dir != "" {
		cfg.DataDir = dir
	}

	if storage := strings.TrimSpace(os.Getenv("WEEKLY_EVENTS_STORAGE")); storage != "" {
		switch storage {
		case StorageFile, StorageSQLite:
			cfg.Storage = storage
		default:
			invalid = append(invalid, "WEEKLY_EVENTS_STORAGE")
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("WEEKLY_EVENTS_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if seed := strings.TrimSpace(os.Getenv("WEEKLY_EVENTS_SEED_PATH")); seed != "" {
		cfg.SeedPath = seed
	}

	if ttlValue := strings.TrimSpace(os.Getenv("WEEKLY_EVENTS_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "WEEKLY_EVENTS_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
