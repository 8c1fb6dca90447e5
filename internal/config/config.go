package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
)

const (
	defaultAPIBaseURL    = "https://api.gallery.example/v1"
	defaultColumns       = 4
	defaultBackwardChunk = 25
)

// Config holds runtime settings for the CLI app.
type Config struct {
	APIBaseURL      string
	Token           string
	DBPath          string
	SourceMode      string
	LogPath         string
	LogLevel        string
	Columns         int
	BackwardChunk   int
	ExpandByDefault bool
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		APIBaseURL: os.Getenv("GALLERY_API_BASE_URL"),
		Token:      os.Getenv("GALLERY_TOKEN"),
		DBPath:     os.Getenv("GALLERY_DB_PATH"),
		SourceMode: os.Getenv("GALLERY_SOURCE_MODE"),
		LogPath:    os.Getenv("GALLERY_LOG_PATH"),
		LogLevel:   os.Getenv("GALLERY_LOG_LEVEL"),
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "gallery.db"
	}
	if cfg.SourceMode == "" {
		cfg.SourceMode = "api"
	}
	if cfg.LogPath == "" {
		cfg.LogPath = "gallery.log"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	var err error
	if cfg.Columns, err = intFromEnv("GALLERY_COLUMNS", defaultColumns); err != nil {
		return Config{}, err
	}
	if cfg.BackwardChunk, err = intFromEnv("GALLERY_BACKWARD_CHUNK", defaultBackwardChunk); err != nil {
		return Config{}, err
	}
	if raw := os.Getenv("GALLERY_EXPAND_BY_DEFAULT"); raw != "" {
		cfg.ExpandByDefault, err = strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("GALLERY_EXPAND_BY_DEFAULT must be a boolean: %s", raw)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func intFromEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %s", name, raw)
	}
	return n, nil
}

func (c Config) Validate() error {
	if c.SourceMode != "api" && c.SourceMode != "scrape" {
		return fmt.Errorf("SourceMode must be api or scrape: %s", c.SourceMode)
	}
	if c.Token == "" && c.SourceMode == "api" {
		return errors.New("GALLERY_TOKEN is required")
	}
	if c.APIBaseURL == "" {
		return errors.New("APIBaseURL is required")
	}
	if c.APIBaseURL[len(c.APIBaseURL)-1] == '/' {
		return fmt.Errorf("APIBaseURL must not end with '/': %s", c.APIBaseURL)
	}
	if c.DBPath == "" {
		return errors.New("DBPath is required")
	}
	if c.LogPath == "" {
		return errors.New("LogPath is required")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LogLevel is invalid: %s", c.LogLevel)
	}
	if c.Columns < 1 || c.Columns > 12 {
		return fmt.Errorf("Columns must be between 1 and 12: %d", c.Columns)
	}
	if c.BackwardChunk < 1 {
		return fmt.Errorf("BackwardChunk must be positive: %d", c.BackwardChunk)
	}
	return nil
}
