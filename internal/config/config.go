// Package config provides configuration management for the backtest engine.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/ToonNaToon/thedata-backtesting-strategy/internal/backtest"
)

// Strategy defaults
const (
	// defaultDeltaCeiling is used when strategy.delta_ceiling is unset
	defaultDeltaCeiling = 0.20
	// defaultProfitTarget is used when strategy.profit_target is unset
	defaultProfitTarget = 0.10
	// defaultHardExitTime is used when strategy.hard_exit_time is unset
	defaultHardExitTime = "13:00"
	// defaultWorkers bounds concurrent trade-date simulations
	defaultWorkers = 4
)

// validWings lists the wing widths the strategy supports.
var validWings = map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 10: true, 15: true, 20: true}

// Config represents the complete application configuration.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Store       StoreConfig       `yaml:"store"`
	Strategy    StrategyConfig    `yaml:"strategy"`
	Backtest    BacktestConfig    `yaml:"backtest"`
}

// EnvironmentConfig defines the environment settings.
type EnvironmentConfig struct {
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// StoreConfig defines the quote database settings.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite
	Path   string `yaml:"path"`
}

// StrategyConfig defines the condor parameters for one sweep.
type StrategyConfig struct {
	Ticker           string          `yaml:"ticker"`
	WingWidth        int             `yaml:"wing_width"`
	DeltaCeiling     float64         `yaml:"delta_ceiling"`
	ProfitTarget     float64         `yaml:"profit_target"`
	EntryTimes       []string        `yaml:"entry_times"`    // "HH:MM"
	HardExitTime     string          `yaml:"hard_exit_time"` // "HH:MM"
	ExcludedWeekdays []string        `yaml:"excluded_weekdays"`
	DateRange        DateRangeConfig `yaml:"date_range"`
}

// DateRangeConfig bounds the sweep; empty fields mean unbounded.
type DateRangeConfig struct {
	Start string `yaml:"start"` // YYYY-MM-DD inclusive
	End   string `yaml:"end"`
}

// BacktestConfig defines execution settings.
type BacktestConfig struct {
	Workers int    `yaml:"workers"`
	Output  string `yaml:"output"`
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Strategy.DeltaCeiling == 0 {
		c.Strategy.DeltaCeiling = defaultDeltaCeiling
	}
	if c.Strategy.ProfitTarget == 0 {
		c.Strategy.ProfitTarget = defaultProfitTarget
	}
	if c.Strategy.HardExitTime == "" {
		c.Strategy.HardExitTime = defaultHardExitTime
	}
	if len(c.Strategy.EntryTimes) == 0 {
		c.Strategy.EntryTimes = []string{"10:00"}
	}
	if c.Backtest.Workers == 0 {
		c.Backtest.Workers = defaultWorkers
	}
	if c.Environment.LogLevel == "" {
		c.Environment.LogLevel = "info"
	}
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	// Store validation
	if c.Store.Driver != "" && c.Store.Driver != "sqlite" {
		return fmt.Errorf("store.driver must be 'sqlite'")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}

	// Strategy validation
	if c.Strategy.Ticker == "" {
		return fmt.Errorf("strategy.ticker is required")
	}
	if !validWings[c.Strategy.WingWidth] {
		return fmt.Errorf("strategy.wing_width must be one of 1,2,3,4,5,10,15,20")
	}
	if c.Strategy.DeltaCeiling <= 0 || c.Strategy.DeltaCeiling >= 1 {
		return fmt.Errorf("strategy.delta_ceiling must be in (0,1)")
	}
	if c.Strategy.ProfitTarget <= 0 || c.Strategy.ProfitTarget >= 1 {
		return fmt.Errorf("strategy.profit_target must be in (0,1)")
	}

	hardExit, err := time.Parse("15:04", c.Strategy.HardExitTime)
	if err != nil {
		return fmt.Errorf("strategy.hard_exit_time invalid: %w", err)
	}
	for _, entry := range c.Strategy.EntryTimes {
		t, err := time.Parse("15:04", entry)
		if err != nil {
			return fmt.Errorf("strategy.entry_times %q invalid: %w", entry, err)
		}
		if !t.Before(hardExit) {
			return fmt.Errorf("strategy.entry_times %q must precede hard_exit_time %s", entry, c.Strategy.HardExitTime)
		}
	}

	if _, err := c.ExcludedWeekdaySet(); err != nil {
		return err
	}

	start, end := c.Strategy.DateRange.Start, c.Strategy.DateRange.End
	for _, d := range []string{start, end} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("strategy.date_range date %q invalid: %w", d, err)
		}
	}
	if start != "" && end != "" && start > end {
		return fmt.Errorf("strategy.date_range start %s is after end %s", start, end)
	}

	// Backtest validation
	if c.Backtest.Workers <= 0 {
		return fmt.Errorf("backtest.workers must be > 0")
	}

	return nil
}

// ExcludedWeekdaySet parses strategy.excluded_weekdays into weekday values.
func (c *Config) ExcludedWeekdaySet() ([]time.Weekday, error) {
	names := map[string]time.Weekday{
		"Monday":    time.Monday,
		"Tuesday":   time.Tuesday,
		"Wednesday": time.Wednesday,
		"Thursday":  time.Thursday,
		"Friday":    time.Friday,
	}
	out := make([]time.Weekday, 0, len(c.Strategy.ExcludedWeekdays))
	for _, name := range c.Strategy.ExcludedWeekdays {
		wd, ok := names[name]
		if !ok {
			return nil, fmt.Errorf("strategy.excluded_weekdays %q must be a weekday name Monday..Friday", name)
		}
		out = append(out, wd)
	}
	return out, nil
}

// RunnerConfig translates the loaded file into the immutable parameter
// set the runner consumes.
func (c *Config) RunnerConfig() (backtest.Config, error) {
	excluded, err := c.ExcludedWeekdaySet()
	if err != nil {
		return backtest.Config{}, err
	}
	return backtest.Config{
		Ticker:           c.Strategy.Ticker,
		WingWidth:        c.Strategy.WingWidth,
		DeltaCeiling:     c.Strategy.DeltaCeiling,
		ProfitTarget:     c.Strategy.ProfitTarget,
		HardExitTime:     c.Strategy.HardExitTime,
		ExcludedWeekdays: excluded,
		StartDate:        c.Strategy.DateRange.Start,
		EndDate:          c.Strategy.DateRange.End,
		Workers:          c.Backtest.Workers,
	}, nil
}
