package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultInputDir   = "data/NinjaTrader/TradePerformance"
	DefaultTimeLayout = "1/2/2006 3:04:05 PM"
)

type Config struct {
	InputDir   string `yaml:"input_dir"`
	OutputDir  string `yaml:"output_dir"`
	TimeLayout string `yaml:"time_layout"`
	Timezone   string `yaml:"timezone"`
	Journal    struct {
		Enabled       bool   `yaml:"enabled"`
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"journal"`
	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.InputDir == "" {
		c.InputDir = DefaultInputDir
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.TimeLayout == "" {
		c.TimeLayout = DefaultTimeLayout
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "logs"
	}
}

// ApplyEnv lets TRADES_INPUT_DIR and TRADES_OUTPUT_DIR override the file.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("TRADES_INPUT_DIR")); v != "" {
		c.InputDir = v
	}
	if v := strings.TrimSpace(os.Getenv("TRADES_OUTPUT_DIR")); v != "" {
		c.OutputDir = v
	}
}

// Location resolves Timezone; it is only valid after Validate succeeds.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.InputDir) == "" {
		return errors.New("input_dir cannot be empty")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("output_dir cannot be empty")
	}
	ref := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	if ref.Format(c.TimeLayout) == c.TimeLayout {
		return fmt.Errorf("time_layout %q has no time fields", c.TimeLayout)
	}
	if _, err := time.Parse(c.TimeLayout, ref.Format(c.TimeLayout)); err != nil {
		return fmt.Errorf("time_layout %q does not round-trip: %w", c.TimeLayout, err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	if c.Journal.RetentionDays < 0 {
		return fmt.Errorf("journal.retention_days must be >= 0, got %d", c.Journal.RetentionDays)
	}
	return nil
}

// LoadConfig reads path; a missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	c.applyDefaults()
	c.ApplyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
