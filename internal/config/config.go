// Package config loads and saves the weekgrid YAML configuration.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/daviddao/weekgrid/internal/layout"
	"github.com/daviddao/weekgrid/internal/timegrid"
)

const (
	DefaultRefresh   = "@every 30s"
	DefaultWeekStart = "monday"
	DefaultDayStart  = 8
	DefaultLogLevel  = "info"
)

// Config is the top-level application configuration.
type Config struct {
	// DB is an explicit database path. Empty means discovery.
	DB string `yaml:"db,omitempty" json:"db,omitempty"`

	// SlotMinutes is the grid granularity. It must divide a day.
	SlotMinutes int `yaml:"slot_minutes" json:"slot_minutes"`

	// SlotHeight is the height of one slot in rows.
	SlotHeight float64 `yaml:"slot_height" json:"slot_height"`

	// LaneWidth is the share of a day column used by cards (0, 1].
	LaneWidth float64 `yaml:"lane_width" json:"lane_width"`

	// TrailingFactor stretches all but the last lane of a cluster.
	TrailingFactor float64 `yaml:"trailing_factor" json:"trailing_factor"`

	// WeekStart is "monday" or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a cron spec (standard five fields or @every) for
	// periodic reloads in addition to file watching.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// DayStartHour is the hour the viewport scrolls to on launch.
	DayStartHour int `yaml:"day_start_hour" json:"day_start_hour"`

	// LogLevel is debug, info or error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		SlotMinutes:    timegrid.DefaultSlotMinutes,
		SlotHeight:     1,
		LaneWidth:      layout.DefaultWidth,
		TrailingFactor: layout.DefaultTrailingFactor,
		WeekStart:      DefaultWeekStart,
		RefreshCron:    DefaultRefresh,
		DayStartHour:   DefaultDayStart,
		LogLevel:       DefaultLogLevel,
	}
}

// DefaultPath returns ~/.weekgrid/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".weekgrid", "config.yaml"), nil
}

// Normalize fills in missing or invalid values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.SlotMinutes <= 0 || timegrid.MinutesPerDay%c.SlotMinutes != 0 {
		c.SlotMinutes = d.SlotMinutes
	}
	if c.SlotHeight <= 0 {
		c.SlotHeight = d.SlotHeight
	}
	if c.LaneWidth <= 0 || c.LaneWidth > 1 {
		c.LaneWidth = d.LaneWidth
	}
	if c.TrailingFactor <= 0 {
		c.TrailingFactor = d.TrailingFactor
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		c.WeekStart = d.WeekStart
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	} else if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		c.RefreshCron = d.RefreshCron
	}
	if c.DayStartHour < 0 || c.DayStartHour > 23 {
		c.DayStartHour = d.DayStartHour
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Mapper returns the coordinate mapper for these grid constants.
func (c *Config) Mapper() timegrid.Mapper {
	return timegrid.New(c.SlotMinutes, c.SlotHeight)
}

// Policy returns the lane geometry policy.
func (c *Config) Policy() layout.Policy {
	return layout.Policy{Width: c.LaneWidth, TrailingFactor: c.TrailingFactor}
}

// FirstWeekday returns the weekday that starts a displayed week.
func (c *Config) FirstWeekday() time.Weekday {
	if c.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}

// Schedule parses RefreshCron.
func (c *Config) Schedule() (cron.Schedule, error) {
	return cron.ParseStandard(c.RefreshCron)
}

// Load loads configuration from the given YAML path. A missing file is
// created with the defaults (0600) and the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path atomically via a temp file and rename. The parent
// directory is created 0700 and the file ends up 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
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

	tmp, err := os.CreateTemp(dir, ".weekgrid-config-*.tmp")
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
