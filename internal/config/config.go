package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"energypulse/internal/model"
	"energypulse/internal/quality"
)

// AppConfig is the full runtime configuration. Invalid locations or
// thresholds fail Load before any store access.
type AppConfig struct {
	// DBPath is the SQLite database file.
	DBPath string

	// Locations to run the pipeline for; each must be in the supported set.
	Locations []string

	// RunInterval controls how often the scheduler runs the pipeline.
	RunInterval time.Duration

	// IngestSpan is how far back each ingest (and evaluation window) reaches.
	IngestSpan time.Duration

	// Thresholds for the quality check battery.
	Thresholds quality.Thresholds

	// SimulatorSeed makes the demand series reproducible.
	SimulatorSeed int64

	// HTTPTimeout bounds outbound weather API calls.
	HTTPTimeout time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.DBPath = getenvDefault("ENERGYPULSE_DB", "data/energypulse.db")
	cfg.Port = getenvDefault("PORT", "8080")

	interval, err := time.ParseDuration(getenvDefault("RUN_INTERVAL", "6h"))
	if err != nil {
		return nil, fmt.Errorf("invalid RUN_INTERVAL: %w", err)
	}
	cfg.RunInterval = interval

	days := getenvInt("INGEST_DAYS", 7)
	if days <= 0 {
		return nil, fmt.Errorf("INGEST_DAYS must be positive, got %d", days)
	}
	cfg.IngestSpan = time.Duration(days) * 24 * time.Hour

	httpTimeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = httpTimeout

	cfg.SimulatorSeed = int64(getenvInt("SIMULATOR_SEED", 42))

	locations, err := loadLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = locations

	thresholds, err := loadThresholds()
	if err != nil {
		return nil, err
	}
	cfg.Thresholds = thresholds

	return cfg, nil
}

func loadLocations() ([]string, error) {
	raw := getenvDefault("LOCATIONS", "new_york")
	var locations []string
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := model.LocationByName(name); err != nil {
			return nil, err
		}
		locations = append(locations, name)
	}
	if len(locations) == 0 {
		return nil, fmt.Errorf("no locations configured")
	}
	return locations, nil
}

func loadThresholds() (quality.Thresholds, error) {
	t := quality.DefaultThresholds()

	t.MinRecords = getenvInt("QUALITY_MIN_RECORDS", t.MinRecords)

	maxAge, err := time.ParseDuration(getenvDefault("QUALITY_MAX_AGE", t.MaxAge.String()))
	if err != nil {
		return quality.Thresholds{}, fmt.Errorf("invalid QUALITY_MAX_AGE: %w", err)
	}
	t.MaxAge = maxAge

	t.DemandMaxMWh = getenvFloat("QUALITY_DEMAND_MAX_MWH", t.DemandMaxMWh)
	t.MaxStepChangePct = getenvFloat("QUALITY_MAX_STEP_PCT", t.MaxStepChangePct)

	if err := t.Validate(); err != nil {
		return quality.Thresholds{}, fmt.Errorf("invalid quality thresholds: %w", err)
	}
	return t, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
