// Package config provides configuration loading and access for a simulation run.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all run parameters for the particle transport core.
type Config struct {
	Run       RunConfig       `yaml:"run"`
	Physics   PhysicsConfig   `yaml:"physics"`
	LowFlux   LowFluxConfig   `yaml:"low_flux"`
	Reduction ReductionConfig `yaml:"reduction"`
	Caches    CachesConfig    `yaml:"caches"`
	Histogram HistogramConfig `yaml:"histogram"`
	Log       LogConfig       `yaml:"log"`

	// Derived values computed after loading.
	Derived DerivedConfig `yaml:"-"`
}

// RunConfig holds worker-pool and dispatch parameters.
type RunConfig struct {
	Threads          int    `yaml:"threads"`
	FixedSeed        bool   `yaml:"fixed_seed"`
	Seed             int64  `yaml:"seed"`
	StepsPerDispatch int    `yaml:"steps_per_dispatch"`
	DesorptionLimit  int64  `yaml:"desorption_limit"`
	MomentsFile      string `yaml:"moments_file"`
}

// PhysicsConfig holds world-level physical parameters.
type PhysicsConfig struct {
	GasMass               float64 `yaml:"gas_mass"`
	UseMaxwellDistribution bool   `yaml:"use_maxwell_distribution"`
	EnableDecay           bool    `yaml:"enable_decay"`
	HalfLife              float64 `yaml:"half_life"`
}

// LowFluxConfig holds weight-splitting variance-reduction parameters.
type LowFluxConfig struct {
	Enabled bool    `yaml:"enabled"`
	Cutoff  float64 `yaml:"cutoff"`
}

// ReductionConfig holds the timed-mutex merge parameters (§4.E).
type ReductionConfig struct {
	TimeoutMs    int `yaml:"timeout_ms"`
	RetryBackoffUs int `yaml:"retry_backoff_us"`
}

// CachesConfig holds ring-buffer capacities (§4.C).
type CachesConfig struct {
	HitCacheSize  int `yaml:"hit_cache_size"`
	LeakCacheSize int `yaml:"leak_cache_size"`
	ProfileSize   int `yaml:"profile_size"`
	ErrorLogCapBytes int `yaml:"error_log_cap_bytes"`
}

// HistogramConfig holds global-histogram bin sizing (§3).
type HistogramConfig struct {
	BounceBinSize   float64 `yaml:"bounce_bin_size"`
	BounceBinCount  int     `yaml:"bounce_bin_count"`
	DistanceBinSize float64 `yaml:"distance_bin_size"`
	DistanceBinCount int    `yaml:"distance_bin_count"`
	TimeBinSize     float64 `yaml:"time_bin_size"`
	TimeBinCount    int     `yaml:"time_bin_count"`
}

// LogConfig holds structured-logging options.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DerivedConfig holds values computed once after loading.
type DerivedConfig struct {
	ReductionTimeoutNs int64
}

var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

func (c *Config) computeDerived() {
	c.Derived.ReductionTimeoutNs = int64(c.Reduction.TimeoutMs) * 1_000_000
}
