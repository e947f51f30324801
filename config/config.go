// Package config handles configuration loading and validation for taskdeck.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"

	"taskdeck/pomodoro"
	"taskdeck/quote"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	Storage      StorageConfig      `yaml:"storage"`
	Quote        QuoteConfig        `yaml:"quote"`
	Pomodoro     PomodoroConfig     `yaml:"pomodoro"`
	Achievements AchievementsConfig `yaml:"achievements"`
	DataDir      string             `yaml:"-"` // set by caller, not from config file
}

// StorageConfig selects where task and preference slots live.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	// Backups is the number of rotating backups kept per slot by the file backend.
	Backups int `yaml:"backups"`
}

// QuoteConfig controls the motivational quote fetch.
type QuoteConfig struct {
	Enabled  *bool         `yaml:"enabled"` // nil = enabled
	URL      string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout"`
	Fallback string        `yaml:"fallback"`
}

// IsEnabled reports whether quotes should be fetched at all.
func (q QuoteConfig) IsEnabled() bool {
	return q.Enabled == nil || *q.Enabled
}

// Client converts the config into quote client settings.
func (q QuoteConfig) Client() quote.Config {
	return quote.Config{URL: q.URL, Fallback: q.Fallback, Timeout: q.Timeout}
}

// PomodoroConfig sets the timer lengths.
type PomodoroConfig struct {
	Work       time.Duration `yaml:"work"`
	ShortBreak time.Duration `yaml:"short_break"`
	LongBreak  time.Duration `yaml:"long_break"`
}

// Durations converts the config into timer durations.
func (p PomodoroConfig) Durations() pomodoro.Durations {
	return pomodoro.Durations{Work: p.Work, ShortBreak: p.ShortBreak, LongBreak: p.LongBreak}
}

// AchievementsConfig controls the achievement toast.
type AchievementsConfig struct {
	Toast time.Duration `yaml:"toast"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	d := pomodoro.DefaultDurations()
	return Config{
		Storage: StorageConfig{
			Backend: BackendFile,
			Backups: 10,
		},
		Quote: QuoteConfig{
			URL:      quote.DefaultURL,
			Timeout:  quote.DefaultTimeout,
			Fallback: quote.DefaultFallback,
		},
		Pomodoro: PomodoroConfig{
			Work:       d.Work,
			ShortBreak: d.ShortBreak,
			LongBreak:  d.LongBreak,
		},
		Achievements: AchievementsConfig{
			Toast: 5 * time.Second,
		},
	}
}

// Load reads configPath on top of the defaults. A missing file is not an error.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.Storage.Backups == 0 {
		c.Storage.Backups = defaults.Storage.Backups
	}
	if c.Quote.URL == "" {
		c.Quote.URL = defaults.Quote.URL
	}
	if c.Quote.Timeout == 0 {
		c.Quote.Timeout = defaults.Quote.Timeout
	}
	if c.Quote.Fallback == "" {
		c.Quote.Fallback = defaults.Quote.Fallback
	}
	if c.Pomodoro.Work == 0 {
		c.Pomodoro.Work = defaults.Pomodoro.Work
	}
	if c.Pomodoro.ShortBreak == 0 {
		c.Pomodoro.ShortBreak = defaults.Pomodoro.ShortBreak
	}
	if c.Pomodoro.LongBreak == 0 {
		c.Pomodoro.LongBreak = defaults.Pomodoro.LongBreak
	}
	if c.Achievements.Toast == 0 {
		c.Achievements.Toast = defaults.Achievements.Toast
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("data_dir", c.DataDir, notEmpty),
		criterio.Run("storage.backend", c.Storage.Backend, validBackend),
		criterio.Run("storage.backups", c.Storage.Backups, positiveInt),
		c.validateQuote(),
		criterio.Run("pomodoro.work", c.Pomodoro.Work, positiveDuration),
		criterio.Run("pomodoro.short_break", c.Pomodoro.ShortBreak, positiveDuration),
		criterio.Run("pomodoro.long_break", c.Pomodoro.LongBreak, positiveDuration),
		criterio.Run("achievements.toast", c.Achievements.Toast, positiveDuration),
	)
}

func (c *Config) validateQuote() error {
	var errs criterio.FieldErrorsBuilder
	if c.Quote.Timeout <= 0 {
		errs = errs.Append("quote.timeout", fmt.Errorf("must be positive, got %s", c.Quote.Timeout))
	}
	if c.Quote.IsEnabled() {
		u, err := url.Parse(c.Quote.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = errs.Append("quote.url", fmt.Errorf("must be an absolute http(s) URL, got %q", c.Quote.URL))
		}
	}
	return errs.ToError()
}

// SlotsDir is where the file backend keeps its slot files.
func (c *Config) SlotsDir() string {
	return c.DataDir
}

// DatabasePath is the SQLite file used by the sqlite backend.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "taskdeck.db")
}

func notEmpty(s string) error {
	if s == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func validBackend(s string) error {
	switch s {
	case BackendFile, BackendSQLite:
		return nil
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", s, BackendFile, BackendSQLite)
	}
}

func positiveInt(n int) error {
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

func positiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("must be positive, got %s", d)
	}
	return nil
}
