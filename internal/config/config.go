package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	MinBins = 1
	MaxBins = 1000
)

// Config is the immutable job configuration. It is validated once before any
// task runs and handed to every task by value; nothing accumulates on it
// during the job.
type Config struct {
	Analysis    string   `env:"ANALYSIS"`
	ReportPaths []string `env:"REPORT_PATHS" envSeparator:","`
	OutputDir   string   `env:"OUTPUT_DIR" envDefault:"."`

	Bins          int     `env:"BINS" envDefault:"30"`
	MaxDurationNs int64   `env:"MAX_DURATION_NS" envDefault:"0"`
	Cumulative    bool    `env:"CUMULATIVE" envDefault:"false"`
	Divisor       int     `env:"DIVISOR" envDefault:"100"`
	Threshold     float64 `env:"THRESHOLD" envDefault:"50"`
	Decimals      int     `env:"DECIMALS" envDefault:"1"`

	Workers      int           `env:"WORKERS" envDefault:"0"`
	TaskTimeout  time.Duration `env:"TASK_TIMEOUT" envDefault:"0"`
	AbortOnError bool          `env:"ABORT_ON_ERROR" envDefault:"false"`
}

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every value the core depends on. A violation here is fatal
// at job start, before any task is dispatched.
func (c *Config) Validate() error {
	if c.Analysis == "" {
		return fmt.Errorf("no analysis selected")
	}
	if len(c.ReportPaths) == 0 {
		return fmt.Errorf("no report paths given")
	}
	if c.Bins < MinBins || c.Bins > MaxBins {
		return fmt.Errorf("bins must be in [%d, %d], got %d", MinBins, MaxBins, c.Bins)
	}
	if c.MaxDurationNs < 0 {
		return fmt.Errorf("max duration must not be negative, got %d", c.MaxDurationNs)
	}
	if c.Divisor < 1 {
		return fmt.Errorf("divisor must be a positive integer, got %d", c.Divisor)
	}
	if c.Threshold < 0 || c.Threshold > 100 {
		return fmt.Errorf("threshold must be a percentage in [0, 100], got %v", c.Threshold)
	}
	if c.Decimals < 0 {
		return fmt.Errorf("decimals must not be negative, got %d", c.Decimals)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.TaskTimeout < 0 {
		return fmt.Errorf("task timeout must not be negative, got %v", c.TaskTimeout)
	}
	return nil
}
