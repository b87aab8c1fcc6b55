package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	appLog "pscal/internal/log"
	"pscal/internal/schedule"
)

// Defaults applied by DefaultConfig and Normalize.
const (
	DefaultPath        = "/etc/pscal/config.yaml"
	DefaultListen      = "127.0.0.1:8080"
	DefaultTimezone    = "Europe/London"
	DefaultReminder    = "0 9 * * *"
	DefaultEventName   = "Pub Standards"
	DefaultFeedPast    = 12
	DefaultFeedFuture  = 24
	DefaultLogLevel    = "info"
	configTempFileGlob = ".pscal-config-*.tmp"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// FeedConfig controls the published iCalendar feed.
type FeedConfig struct {
	// Past and Future are the number of events before and after today
	// included in the expanded feed.
	Past   int `yaml:"past" json:"past"`
	Future int `yaml:"future" json:"future"`

	// Recurring publishes a single RRULE-based event instead of one
	// VEVENT per occurrence.
	Recurring bool `yaml:"recurring" json:"recurring"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone used to decide what "today" is. Event dates
	// themselves carry no timezone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Reminder is a cron schedule (standard 5 fields) on which the next
	// event is recomputed and event days are announced.
	Reminder string `yaml:"reminder" json:"reminder"`

	// EventName, Location and URL describe the event in feeds and responses.
	EventName string `yaml:"event_name" json:"event_name"`
	Location  string `yaml:"location" json:"location"`
	URL       string `yaml:"url" json:"url"`

	// Epoch is the date of event number 1.
	Epoch schedule.Date `yaml:"epoch" json:"epoch"`

	// Hiatuses must be listed in chronological order.
	Hiatuses []schedule.Hiatus `yaml:"hiatuses" json:"hiatuses"`

	Feed FeedConfig `yaml:"feed" json:"feed"`

	// BasicAuth, if set, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:    DefaultListen,
		Timezone:  DefaultTimezone,
		LogLevel:  DefaultLogLevel,
		Reminder:  DefaultReminder,
		EventName: DefaultEventName,
		Epoch:     schedule.Epoch,
		Hiatuses:  schedule.Default().Hiatuses(),
		Feed: FeedConfig{
			Past:   DefaultFeedPast,
			Future: DefaultFeedFuture,
		},
	}
}

// Normalize fills zero values with defaults. A nil Hiatuses list means
// "use the built-in list"; an explicit empty list disables hiatuses.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Reminder == "" {
		c.Reminder = DefaultReminder
	}
	if c.EventName == "" {
		c.EventName = DefaultEventName
	}
	if c.Epoch.IsZero() {
		c.Epoch = schedule.Epoch
	}
	if c.Hiatuses == nil {
		c.Hiatuses = schedule.Default().Hiatuses()
	}
	if c.Feed.Past < 0 {
		c.Feed.Past = 0
	}
	if c.Feed.Past == 0 && c.Feed.Future == 0 {
		c.Feed.Past = DefaultFeedPast
		c.Feed.Future = DefaultFeedFuture
	}
	if c.Feed.Future < 0 {
		c.Feed.Future = 0
	}
}

// Validate reports configuration errors that Normalize cannot repair.
func (c *Config) Validate() error {
	if _, ok := appLog.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	if _, err := cron.ParseStandard(c.Reminder); err != nil {
		return fmt.Errorf("config: invalid reminder schedule %q: %w", c.Reminder, err)
	}
	if _, err := c.Calendar(); err != nil {
		return err
	}
	return nil
}

// Calendar builds the event calendar described by c.
func (c *Config) Calendar() (*schedule.Calendar, error) {
	cal, err := schedule.NewCalendar(c.Epoch, c.Hiatuses)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cal, nil
}

// Load loads configuration from the given YAML path. A missing file is
// created with the defaults at 0600.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			appLog.Info("config not found; writing defaults", "path", path)
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config: path is empty")
	}
	if cfg == nil {
		return errors.New("config: nil config")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, configTempFileGlob)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience wrapper around the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
