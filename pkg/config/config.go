// Package config loads and saves the panel configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const DefaultConfigFile = "laserpanel.json"

// EnvPrefix prefixes every environment override, e.g. LASERPANEL_URL.
const EnvPrefix = "LASERPANEL"

// Config holds the panel configuration
type Config struct {
	URL       string        `json:"url" envconfig:"URL"`
	TimeoutMS int           `json:"timeout_ms" split_words:"true"`
	Jog       JogConfig     `json:"jog"`
	Cycle     CycleConfig   `json:"cycle"`
	Outputs   OutputsConfig `json:"outputs"`
	Stats     StatsConfig   `json:"stats"`
	Log       LogConfig     `json:"log"`
}

// JogConfig holds stepper jog settings
type JogConfig struct {
	Steps            int `json:"steps"`
	HoldDelayMS      int `json:"hold_delay_ms" split_words:"true"`
	RepeatIntervalMS int `json:"repeat_interval_ms" split_words:"true"`
	ReleaseAfterMS   int `json:"release_after_ms" split_words:"true"`
}

// CycleConfig holds table auto-cycle settings
type CycleConfig struct {
	PollIntervalMS    int `json:"poll_interval_ms" split_words:"true"`
	DwellMS           int `json:"dwell_ms" split_words:"true"`
	LegTimeoutMS      int `json:"leg_timeout_ms" split_words:"true"`
	SimulatedTravelMS int `json:"simulated_travel_ms" split_words:"true"`
	MaxCycles         int `json:"max_cycles" split_words:"true"`
}

// OutputsConfig holds the fan and red lights auto-off delays
type OutputsConfig struct {
	FanOffDelayMS    int `json:"fan_off_delay_ms" split_words:"true"`
	LightsOffDelayMS int `json:"lights_off_delay_ms" split_words:"true"`
}

// StatsConfig holds statistics settings
type StatsConfig struct {
	FireThresholdMS int `json:"fire_threshold_ms" split_words:"true"`
}

// LogConfig selects where and how the panel logs
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	// File is used by the full-screen views, which own the terminal.
	File string `json:"file"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		URL:       "http://127.0.0.1:5000",
		TimeoutMS: 10_000,
		Jog: JogConfig{
			Steps:            20,
			HoldDelayMS:      300,
			RepeatIntervalMS: 150,
			ReleaseAfterMS:   800,
		},
		Cycle: CycleConfig{
			PollIntervalMS:    200,
			DwellMS:           1000,
			LegTimeoutMS:      60_000,
			SimulatedTravelMS: 3000,
		},
		Outputs: OutputsConfig{
			FanOffDelayMS:    600_000,
			LightsOffDelayMS: 60_000,
		},
		Stats: StatsConfig{
			FireThresholdMS: 2000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			File:   "laserpanel.log",
		},
	}
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// Timeout returns the HTTP request timeout.
func (c *Config) Timeout() time.Duration { return ms(c.TimeoutMS) }

// HoldDelay returns how long a press lasts before it becomes a continuous jog.
func (j JogConfig) HoldDelay() time.Duration { return ms(j.HoldDelayMS) }

func (j JogConfig) RepeatInterval() time.Duration { return ms(j.RepeatIntervalMS) }

func (j JogConfig) ReleaseAfter() time.Duration { return ms(j.ReleaseAfterMS) }

func (c CycleConfig) PollInterval() time.Duration { return ms(c.PollIntervalMS) }

// Dwell returns the pause between legs. A zero dwell is returned as -1 so the
// cycle treats it as disabled rather than unset.
func (c CycleConfig) Dwell() time.Duration {
	if c.DwellMS == 0 {
		return -1
	}
	return ms(c.DwellMS)
}

func (c CycleConfig) LegTimeout() time.Duration { return ms(c.LegTimeoutMS) }

func (c CycleConfig) SimulatedTravel() time.Duration { return ms(c.SimulatedTravelMS) }

func (o OutputsConfig) FanOffDelay() time.Duration { return ms(o.FanOffDelayMS) }

func (o OutputsConfig) LightsOffDelay() time.Duration { return ms(o.LightsOffDelayMS) }

func (s StatsConfig) FireThreshold() time.Duration { return ms(s.FireThresholdMS) }

// Validate rejects values the panel cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.URL == "" {
		errs = append(errs, errors.New("url is empty"))
	}
	if c.Jog.Steps <= 0 {
		errs = append(errs, fmt.Errorf("jog.steps must be positive, got %d", c.Jog.Steps))
	}
	if c.Cycle.MaxCycles < 0 {
		errs = append(errs, fmt.Errorf("cycle.max_cycles must not be negative, got %d", c.Cycle.MaxCycles))
	}
	for name, v := range map[string]int{
		"timeout_ms":                  c.TimeoutMS,
		"jog.hold_delay_ms":           c.Jog.HoldDelayMS,
		"jog.repeat_interval_ms":      c.Jog.RepeatIntervalMS,
		"jog.release_after_ms":        c.Jog.ReleaseAfterMS,
		"cycle.poll_interval_ms":      c.Cycle.PollIntervalMS,
		"cycle.dwell_ms":              c.Cycle.DwellMS,
		"cycle.leg_timeout_ms":        c.Cycle.LegTimeoutMS,
		"cycle.simulated_travel_ms":   c.Cycle.SimulatedTravelMS,
		"outputs.fan_off_delay_ms":    c.Outputs.FanOffDelayMS,
		"outputs.lights_off_delay_ms": c.Outputs.LightsOffDelayMS,
		"stats.fire_threshold_ms":     c.Stats.FireThresholdMS,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, v))
		}
	}
	return errors.Join(errs...)
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom loads configuration from a specific file on top of the defaults.
// A missing file is not an error. Environment overrides are applied last.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv loads .env when present and overlays LASERPANEL_* variables.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("process environment configuration: %w", err)
	}
	return nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Exists returns true if the default config file exists
func Exists() bool {
	return ExistsAt(DefaultConfigFile)
}

// ExistsAt returns true if the config file at path exists
func ExistsAt(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
