// Package config loads corpusrun settings from flags and an optional config
// file, applies defaults and validates the result.
package config

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"time"
)

const (
	DefaultBatchSize      = 50
	DefaultHistoryLength  = 500
	DefaultFrame          = 50 * time.Millisecond
	DefaultFallbackWorker = 8
	DefaultFaultExitCode  = 70
)

type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

type Config struct {
	Lists          []string       `mapstructure:"lists"`
	Workers        int            `mapstructure:"workers"`
	DefaultWorkers int            `mapstructure:"default_workers"`
	BatchSize      int            `mapstructure:"batch_size"`
	HistoryLength  int            `mapstructure:"history_length"`
	Frame          time.Duration  `mapstructure:"frame"`
	Pipeline       PipelineConfig `mapstructure:"pipeline"`
	Output         OutputFormat   `mapstructure:"output"`
	TUI            bool           `mapstructure:"tui"`
	LogLevel       string         `mapstructure:"log_level"`
	LogFile        string         `mapstructure:"log_file"`
	Thresholds     []string       `mapstructure:"thresholds"`
	LockFile       string         `mapstructure:"lock_file"`
	Tracing        TracingConfig  `mapstructure:"tracing"`
	ConfigFile     string         `mapstructure:"-"`
}

type PipelineConfig struct {
	Scan              []string `mapstructure:"scan"`     // argv template for the scan stage
	Parse             []string `mapstructure:"parse"`    // argv template for the parse stage
	Generate          []string `mapstructure:"generate"` // argv template for the generate stage, run once per dialect
	PrimaryDialect    string   `mapstructure:"primary_dialect"`
	AlternateDialect  string   `mapstructure:"alternate_dialect"`
	AlternatePatterns []string `mapstructure:"alternate_patterns"` // path substrings selecting the alternate dialect
	MessagePath       string   `mapstructure:"message_path"`       // gjson path to a failure message in JSON stage output
	MessagePattern    string   `mapstructure:"message_pattern"`    // regexp selecting a failure message in stage output
	FaultExitCode     int      `mapstructure:"fault_exit_code"`
	Env               []string `mapstructure:"env"` // extra KEY=VALUE entries for stage processes
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`     // OTLP collector endpoint; empty disables tracing
	Protocol    string  `mapstructure:"protocol"`     // "grpc" (default) or "http"
	ServiceName string  `mapstructure:"service_name"` // defaults to OTEL_SERVICE_NAME or "corpusrun"
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Defaults returns a Config populated with the documented defaults.
func Defaults() *Config {
	return &Config{
		DefaultWorkers: DefaultFallbackWorker,
		BatchSize:      DefaultBatchSize,
		HistoryLength:  DefaultHistoryLength,
		Frame:          DefaultFrame,
		Output:         OutputText,
		LogLevel:       "warn",
		Pipeline: PipelineConfig{
			PrimaryDialect:   "a",
			AlternateDialect: "b",
			FaultExitCode:    DefaultFaultExitCode,
		},
		Tracing: TracingConfig{SampleRate: 1.0},
	}
}

var numCPU = runtime.NumCPU

// WorkerCount resolves the number of workers: the explicit setting if
// positive, else the number of CPUs, else the fallback default.
func (c Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	if n := numCPU(); n > 0 {
		return n
	}
	if c.DefaultWorkers > 0 {
		return c.DefaultWorkers
	}
	return DefaultFallbackWorker
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if c.Workers < 0 {
		issues = append(issues, "workers must be >= 0 (0 means one per CPU)")
	}
	if c.DefaultWorkers < 1 {
		issues = append(issues, "default_workers must be >= 1")
	}
	if c.BatchSize < 1 {
		issues = append(issues, "batch_size must be >= 1")
	}
	if c.HistoryLength < 1 {
		issues = append(issues, "history_length must be >= 1")
	}
	if c.Frame <= 0 {
		issues = append(issues, "frame must be > 0")
	}

	switch c.Output {
	case "", OutputText, OutputJSON, OutputYAML:
	default:
		issues = append(issues, fmt.Sprintf("output %q is not supported (use text, json or yaml)", c.Output))
	}
	if c.TUI && c.Output != "" && c.Output != OutputText {
		issues = append(issues, "tui and structured output are mutually exclusive")
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("log_level %q is not supported", c.LogLevel))
	}

	issues = append(issues, validatePipelineConfig(c.Pipeline)...)
	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validatePipelineConfig(p PipelineConfig) []string {
	var issues []string
	if len(p.Scan) == 0 {
		issues = append(issues, "pipeline.scan command is required")
	}
	if len(p.Parse) == 0 {
		issues = append(issues, "pipeline.parse command is required")
	}
	if len(p.Generate) == 0 {
		issues = append(issues, "pipeline.generate command is required")
	}
	if strings.TrimSpace(p.PrimaryDialect) == "" || strings.TrimSpace(p.AlternateDialect) == "" {
		issues = append(issues, "pipeline dialect names cannot be empty")
	} else if p.PrimaryDialect == p.AlternateDialect {
		issues = append(issues, "pipeline.primary_dialect and pipeline.alternate_dialect must differ")
	}
	if p.MessagePattern != "" {
		if _, err := regexp.Compile(p.MessagePattern); err != nil {
			issues = append(issues, fmt.Sprintf("pipeline.message_pattern: %v", err))
		}
	}
	if p.FaultExitCode < 0 || p.FaultExitCode > 255 {
		issues = append(issues, "pipeline.fault_exit_code must be between 0 and 255")
	}
	for _, kv := range p.Env {
		if !strings.Contains(kv, "=") {
			issues = append(issues, fmt.Sprintf("pipeline.env entry %q must be KEY=VALUE", kv))
		}
	}
	return issues
}

func validateTracingConfig(t TracingConfig) []string {
	if t.Endpoint == "" {
		return nil
	}
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing.protocol %q is not supported (use grpc or http)", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, "tracing.sample_rate must be between 0 and 1")
	}
	return issues
}
