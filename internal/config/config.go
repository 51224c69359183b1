// Package config loads settings from .env, the environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jarredhawkins/cblocks/internal/parser"
	"github.com/jarredhawkins/cblocks/internal/report"
)

// ErrInvalidValue wraps every setting that fails to parse or validate
var ErrInvalidValue = errors.New("invalid config value")

const (
	DefaultWorkers    = 8
	DefaultCacheSize  = 1024
	DefaultDebounceMs = 100
)

// Config holds the resolved settings. Command-line flags are applied on top
// by the caller.
type Config struct {
	Root       string
	Mode       string
	LogFile    string
	Debug      bool
	Workers    int
	CacheSize  int
	DebounceMs int
	Format     string
}

// Load reads an optional .env file, then the CBLOCKS_* environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Root:       strings.TrimSpace(os.Getenv("CBLOCKS_ROOT")),
		Mode:       firstNonEmpty(strings.TrimSpace(os.Getenv("CBLOCKS_MODE")), parser.ModeAllBlocks.String()),
		LogFile:    strings.TrimSpace(os.Getenv("CBLOCKS_LOG")),
		Format:     firstNonEmpty(strings.TrimSpace(os.Getenv("CBLOCKS_FORMAT")), report.FormatText.String()),
		Workers:    DefaultWorkers,
		CacheSize:  DefaultCacheSize,
		DebounceMs: DefaultDebounceMs,
	}

	if cfg.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get current directory: %w", err)
		}
		cfg.Root = wd
	}

	var err error
	if cfg.Debug, err = envBool("CBLOCKS_DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.Workers, err = envInt("CBLOCKS_WORKERS", DefaultWorkers); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = envInt("CBLOCKS_CACHE_SIZE", DefaultCacheSize); err != nil {
		return nil, err
	}
	if cfg.DebounceMs, err = envInt("CBLOCKS_DEBOUNCE_MS", DefaultDebounceMs); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that flags may have overridden after Load
func (c *Config) Validate() error {
	if _, err := parser.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("%w: mode: %w", ErrInvalidValue, err)
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("%w: format: %w", ErrInvalidValue, err)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidValue, c.Workers)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("%w: cache size must be positive, got %d", ErrInvalidValue, c.CacheSize)
	}
	if c.DebounceMs <= 0 {
		return fmt.Errorf("%w: debounce must be positive, got %dms", ErrInvalidValue, c.DebounceMs)
	}
	return nil
}

// ScanMode returns the parsed Mode
func (c *Config) ScanMode() parser.Mode {
	mode, _ := parser.ParseMode(c.Mode)
	return mode
}

// OutputFormat returns the parsed report Format
func (c *Config) OutputFormat() report.Format {
	format, _ := report.ParseFormat(c.Format)
	return format
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, raw)
	}
	return v, nil
}

func envBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, raw)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
