package main

import (
	"fmt"
	"os"
	"time"

	"github.com/adamkewley/jobson-systemtests/framework"
	"github.com/adamkewley/jobson-systemtests/testdef"

	"github.com/pelletier/go-toml/v2"
)

// runnerConfig holds the settings that can come from a config file as well as from flags.
// Durations are strings in time.ParseDuration format.
type runnerConfig struct {
	TestsFile         string  `toml:"tests_file"`
	PollInterval      string  `toml:"poll_interval"`
	MaxPollAttempts   int     `toml:"max_poll_attempts"`
	Parallel          int     `toml:"parallel"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	RequestTimeout    string  `toml:"request_timeout"`
	ReportFile        string  `toml:"report_file"`
}

func defaultRunnerConfig() runnerConfig {
	return runnerConfig{
		TestsFile:       testdef.DefaultTestsFileName,
		PollInterval:    framework.DefaultPollInterval.String(),
		MaxPollAttempts: framework.DefaultPollMaxAttempts,
		Parallel:        1,
		RequestTimeout:  "30s",
	}
}

// loadRunnerConfig overlays the settings in a TOML file onto config. Keys that are not in
// the file keep their current values.
func loadRunnerConfig(path string, config *runnerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (r runnerConfig) pollPolicy() (framework.PollPolicy, error) {
	interval, err := time.ParseDuration(r.PollInterval)
	if err != nil {
		return framework.PollPolicy{}, fmt.Errorf("invalid poll interval %q: %w", r.PollInterval, err)
	}
	if interval < 0 {
		return framework.PollPolicy{}, fmt.Errorf("poll interval cannot be negative")
	}
	if r.MaxPollAttempts < 1 {
		return framework.PollPolicy{}, fmt.Errorf("max poll attempts must be at least 1")
	}
	return framework.PollPolicy{Interval: interval, MaxAttempts: r.MaxPollAttempts}, nil
}

func (r runnerConfig) requestTimeout() (time.Duration, error) {
	if r.RequestTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid request timeout %q: %w", r.RequestTimeout, err)
	}
	return d, nil
}

func (r runnerConfig) validate() error {
	if _, err := r.pollPolicy(); err != nil {
		return err
	}
	if _, err := r.requestTimeout(); err != nil {
		return err
	}
	if r.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1")
	}
	if r.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative")
	}
	if r.TestsFile == "" {
		return fmt.Errorf("tests file name cannot be empty")
	}
	return nil
}
