package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/docker/go-units"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all pipeline settings, populated from environment variables.
// It is built once and passed to every stage.
type Config struct {
	// Inputs.
	ObsCSV         string `validate:"required"`
	StationInfoCSV string `validate:"required"`

	// Artifacts.
	ObsParquet      string `validate:"required"`
	StationENCSV    string `validate:"required"`
	HolidaysCSV     string `validate:"required"`
	FeaturedParquet string `validate:"required"`
	FeatureTableCSV string `validate:"required"`
	GeocachePath    string `validate:"required"`
	WorkDir         string `validate:"required"`

	// Engine resources.
	Threads     int `validate:"min=1"`
	MemoryLimit int64

	// Holiday range.
	StartYear int `validate:"min=1980,max=2099"`
	EndYear   int `validate:"min=1980,max=2099,gtefield=StartYear"`

	// Reverse geocoding.
	GeocodeEnabled     bool
	GeocodeBaseURL     string        `validate:"required,url"`
	GeocodeUserAgent   string        `validate:"required"`
	GeocodeLanguage    string        `validate:"required"`
	GeocodeTimeout     time.Duration `validate:"gt=0"`
	GeocodeMinInterval time.Duration `validate:"gte=0"`

	// Observability.
	HTTPAddr        string
	MetricsTextfile string
	LogLevel        string `validate:"oneof=debug info warn warning error"`
	LogFormat       string `validate:"oneof=json text"`
	ShutdownTimeout time.Duration
}

var validate = validator.New()

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first when present;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	threads, err := parseInt("THREADS", runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	startYear, err := parseInt("START_YEAR", 2018)
	if err != nil {
		return nil, err
	}
	endYear, err := parseInt("END_YEAR", 2025)
	if err != nil {
		return nil, err
	}

	memoryLimit, err := parseMemoryLimit(os.Getenv("MEMORY_LIMIT"))
	if err != nil {
		return nil, err
	}

	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	minInterval, err := parseDuration("GEOCODE_MIN_INTERVAL", "1.1s")
	if err != nil {
		return nil, err
	}

	geocodeEnabled := true
	if v := os.Getenv("GEOCODE_ENABLED"); v != "" {
		geocodeEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid GEOCODE_ENABLED %q: %w", v, err)
		}
	}

	cfg := &Config{
		ObsCSV:          sharedcfg.EnvOrDefault("OBS_CSV", "datasets/hourly_observations.csv"),
		StationInfoCSV:  sharedcfg.EnvOrDefault("STATION_INFO_CSV", "datasets/station_info.csv"),
		ObsParquet:      sharedcfg.EnvOrDefault("OBS_PARQUET", "artifacts/obs.parquet"),
		StationENCSV:    sharedcfg.EnvOrDefault("STATION_EN_CSV", "artifacts/station_en.csv"),
		HolidaysCSV:     sharedcfg.EnvOrDefault("HOLIDAYS_CSV", "artifacts/jp_holidays.csv"),
		FeaturedParquet: sharedcfg.EnvOrDefault("FEATURED_PARQUET", "artifacts/featured.parquet"),
		FeatureTableCSV: sharedcfg.EnvOrDefault("FEATURE_TABLE_CSV", "artifacts/feature_table.csv"),
		GeocachePath:    sharedcfg.EnvOrDefault("GEOCACHE_PATH", "artifacts/geocache.sqlite"),
		WorkDir:         sharedcfg.EnvOrDefault("WORKDIR", "tmp"),

		Threads:     threads,
		MemoryLimit: memoryLimit,
		StartYear:   startYear,
		EndYear:     endYear,

		GeocodeEnabled:     geocodeEnabled,
		GeocodeBaseURL:     sharedcfg.EnvOrDefault("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocodeUserAgent:   sharedcfg.EnvOrDefault("GEOCODE_USER_AGENT", "jp-air-spatial-enrich"),
		GeocodeLanguage:    sharedcfg.EnvOrDefault("GEOCODE_LANGUAGE", "en"),
		GeocodeTimeout:     geocodeTimeout,
		GeocodeMinInterval: minInterval,

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		LogLevel:        strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

// parseMemoryLimit accepts human sizes such as "300GB" or "512MiB". Empty
// means no limit and returns 0.
func parseMemoryLimit(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid MEMORY_LIMIT %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid MEMORY_LIMIT %q: must be positive", s)
	}
	return n, nil
}
