// Package config loads, validates and persists mealcarbon settings.
//
// Settings are read from $MEALCARBON_HOME/config.yaml (default
// ~/.mealcarbon/config.yaml), optionally overlaid by a project-local
// .mealcarbon/config.yaml, then adjusted by MEALCARBON_* environment
// variables. CLI flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rshade/mealcarbon/internal/batch"
	"github.com/rshade/mealcarbon/internal/logging"
	"github.com/rshade/mealcarbon/internal/report"
	"github.com/rshade/mealcarbon/internal/sampler"
	"github.com/rshade/mealcarbon/internal/simulation"
)

const (
	configFileName = "config.yaml"
	outputTypeFile = logging.OutputFile
)

// Environment variables that override file settings.
const (
	EnvHome       = "MEALCARBON_HOME"
	EnvProjectDir = "MEALCARBON_PROJECT_DIR"
	EnvTrials     = "MEALCARBON_TRIALS"
	EnvSeed       = "MEALCARBON_SEED"
	EnvWorkers    = "MEALCARBON_WORKERS"
	EnvLogLevel   = "MEALCARBON_LOG_LEVEL"
	EnvLogFormat  = "MEALCARBON_LOG_FORMAT"
)

// Config is the complete set of user settings.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation" json:"simulation"`
	Dataset    DatasetConfig    `yaml:"dataset" json:"dataset"`
	Output     OutputConfig     `yaml:"output" json:"output"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`

	configPath string
}

// SimulationConfig holds Monte Carlo run settings.
type SimulationConfig struct {
	Trials    int    `yaml:"trials" json:"trials"`
	Seed      uint64 `yaml:"seed" json:"seed"`
	Workers   int    `yaml:"workers" json:"workers"`
	BatchSize int    `yaml:"batch_size" json:"batch_size"`
	OnError   string `yaml:"on_error" json:"on_error"`
	LossRates string `yaml:"loss_rates" json:"loss_rates"`
	// Overrides replaces parameter distributions by name,
	// e.g. "meal_kit.transport_distance_km".
	Overrides map[string]sampler.DistSpec `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

// DatasetConfig points at a dataset file. An empty path selects the
// embedded default dataset.
type DatasetConfig struct {
	Path string `yaml:"path" json:"path"`
}

// OutputConfig holds report settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"`
	Precision     int    `yaml:"precision" json:"precision"`
	Unit          string `yaml:"unit" json:"unit"`
	Equivalencies bool   `yaml:"equivalencies" json:"equivalencies"`
}

// LoggingConfig holds logger settings. An empty File logs to stderr.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// Default returns a Config populated with default values and no backing file.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Trials:    simulation.DefaultTrials,
			Seed:      simulation.DefaultSeed,
			Workers:   simulation.DefaultWorkers,
			BatchSize: batch.DefaultBatchSize,
			OnError:   string(simulation.OnErrorAbort),
			LossRates: string(simulation.LossRatesSampled),
		},
		Output: OutputConfig{
			DefaultFormat: string(report.FormatTable),
			Precision:     report.DefaultPrecision,
			Unit:          string(report.UnitKg),
			Equivalencies: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatConsole,
		},
	}
}

// New returns the defaults overlaid by the global config file, if any, and
// the MEALCARBON_* environment overrides. Read or parse failures are logged
// and the defaults are kept.
func New() *Config {
	cfg := Default()

	dir, err := GetConfigDir()
	if err != nil {
		logger := GetLogger()
		logger.Warn().Str("component", "config").Err(err).Msg("cannot resolve config directory, using defaults")
		cfg.applyEnvOverrides()
		return cfg
	}
	cfg.configPath = filepath.Join(dir, configFileName)

	if err := cfg.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger := GetLogger()
		logger.Warn().
			Str("component", "config").
			Str("path", cfg.configPath).
			Err(err).
			Msg("failed to load config file, using defaults")
		path := cfg.configPath
		cfg = Default()
		cfg.configPath = path
	}

	cfg.applyEnvOverrides()
	return cfg
}

// LoadFile returns the defaults overlaid by the file at path and the
// environment overrides. Unlike New, a missing or invalid file is an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	cfg.configPath = path
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// ConfigPath returns the file Load and Save use.
func (c *Config) ConfigPath() string {
	return c.configPath
}

// SetConfigPath changes the file Load and Save use.
func (c *Config) SetConfigPath(path string) {
	c.configPath = path
}

// Load reads the config file onto c. Sections absent from the file keep
// their current values.
func (c *Config) Load() error {
	if c.configPath == "" {
		return errors.New("no config path set")
	}
	data, err := os.ReadFile(c.configPath)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", c.configPath, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", c.configPath, err)
	}
	return nil
}

// Save writes c to its config file, creating the parent directory.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("no config path set")
	}
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", c.configPath, err)
	}
	return nil
}

// Validate checks every section and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.SimulationOptions(); err != nil {
		errs = append(errs, fmt.Errorf("simulation: %w", err))
	}
	if _, err := c.Sampler(); err != nil {
		errs = append(errs, fmt.Errorf("simulation.overrides: %w", err))
	}
	if _, err := c.ReportOptions(); err != nil {
		errs = append(errs, fmt.Errorf("output: %w", err))
	}
	if err := c.Logging.validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	return errors.Join(errs...)
}

// SimulationOptions converts the simulation section into validated runner
// options.
func (c *Config) SimulationOptions() (simulation.Options, error) {
	s := c.Simulation
	opts := simulation.Options{
		Trials:    s.Trials,
		Seed:      s.Seed,
		Workers:   s.Workers,
		BatchSize: s.BatchSize,
		OnError:   simulation.ErrorPolicy(s.OnError),
		LossRates: simulation.LossRateSource(s.LossRates),
	}
	if err := opts.Validate(); err != nil {
		return simulation.Options{}, err
	}
	return opts, nil
}

// Sampler builds the parameter sampler with the configured overrides.
func (c *Config) Sampler() (*sampler.Sampler, error) {
	overrides := make(map[string]sampler.Distribution, len(c.Simulation.Overrides))
	for name, spec := range c.Simulation.Overrides {
		d, err := spec.Build(name)
		if err != nil {
			return nil, err
		}
		overrides[name] = d
	}
	return sampler.New(sampler.WithOverrides(overrides))
}

// ReportOptions converts the output section into report options.
func (c *Config) ReportOptions() (report.Options, error) {
	format, err := report.ParseFormat(c.Output.DefaultFormat)
	if err != nil {
		return report.Options{}, err
	}
	unit, err := report.ParseUnit(c.Output.Unit)
	if err != nil {
		return report.Options{}, err
	}
	if c.Output.Precision < 0 || c.Output.Precision > report.MaxPrecision {
		return report.Options{}, fmt.Errorf("precision must be between 0 and %d, got %d",
			report.MaxPrecision, c.Output.Precision)
	}
	return report.Options{
		Format:        format,
		Unit:          unit,
		Precision:     c.Output.Precision,
		Equivalencies: c.Output.Equivalencies,
	}, nil
}

func (lc LoggingConfig) validate() error {
	if lc.Level != "" {
		if _, err := zerologLevel(lc.Level); err != nil {
			return err
		}
	}
	switch strings.ToLower(lc.Format) {
	case "", logging.FormatJSON, logging.FormatConsole, logging.FormatText:
		return nil
	default:
		return fmt.Errorf("invalid log format %q (valid: json, console, text)", lc.Format)
	}
}

// applyEnvOverrides applies MEALCARBON_* variables. Unparseable values are
// logged and ignored.
func (c *Config) applyEnvOverrides() {
	logger := GetLogger()
	envInt := func(name string, dst *int) {
		v := os.Getenv(name)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			logger.Warn().Str("component", "config").Str("env", name).Str("value", v).Msg("ignoring non-integer override")
			return
		}
		*dst = n
	}
	envInt(EnvTrials, &c.Simulation.Trials)
	envInt(EnvWorkers, &c.Simulation.Workers)

	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			logger.Warn().Str("component", "config").Str("env", EnvSeed).Str("value", v).Msg("ignoring invalid seed override")
		} else {
			c.Simulation.Seed = seed
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
}
