package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/localopt/internal/runner"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
		RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"60s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Optimization struct {
		// WorkerCount is the per-run batch evaluation concurrency
		WorkerCount     int           `env:"OPT_WORKER_COUNT" envDefault:"1"`
		MaxStepCount    int           `env:"OPT_MAX_STEP_COUNT" envDefault:"100000"`
		StepCount       int           `env:"OPT_DEFAULT_STEP_COUNT" envDefault:"100"`
		StepSize        float64       `env:"OPT_DEFAULT_STEP_SIZE" envDefault:"1"`
		DirectionsCount int           `env:"OPT_DEFAULT_DIRECTIONS" envDefault:"20"`
		Tolerance       float64       `env:"OPT_NEWTON_TOLERANCE" envDefault:"0.001"`
		MaxIterations   int           `env:"OPT_NEWTON_MAX_ITERATIONS" envDefault:"100"`
		JobRetention    time.Duration `env:"OPT_JOB_RETENTION" envDefault:"1h"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Logging.Level == "" {
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		} else {
			cfg.Logging.Level = "info"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values env parsing cannot
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTP.Port)
	}
	if c.Optimization.WorkerCount < 1 {
		return fmt.Errorf("OPT_WORKER_COUNT must be at least 1, got %d", c.Optimization.WorkerCount)
	}
	if c.Optimization.StepCount < 0 || c.Optimization.StepCount > c.Optimization.MaxStepCount {
		return fmt.Errorf("OPT_DEFAULT_STEP_COUNT must be in [0, %d], got %d", c.Optimization.MaxStepCount, c.Optimization.StepCount)
	}
	if !(c.Optimization.StepSize > 0) {
		return fmt.Errorf("OPT_DEFAULT_STEP_SIZE must be positive, got %v", c.Optimization.StepSize)
	}
	if !(c.Optimization.Tolerance > 0) {
		return fmt.Errorf("OPT_NEWTON_TOLERANCE must be positive, got %v", c.Optimization.Tolerance)
	}
	return nil
}

// RunDefaults returns the defaults applied to incomplete run specs
func (c *Config) RunDefaults() runner.Defaults {
	return runner.Defaults{
		StepCount:       c.Optimization.StepCount,
		StepSize:        c.Optimization.StepSize,
		DirectionsCount: c.Optimization.DirectionsCount,
		Tolerance:       c.Optimization.Tolerance,
		MaxIterations:   c.Optimization.MaxIterations,
		Workers:         c.Optimization.WorkerCount,
	}
}
