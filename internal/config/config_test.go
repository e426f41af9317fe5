package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/torosent/corpusrun/internal/config"
)

func TestParseFlagsDefaults(t *testing.T) {
	loader := config.NewLoader()

	cfg, err := loader.Load([]string{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Lists) != 0 {
		t.Errorf("Lists = %v, want empty", cfg.Lists)
	}
	if cfg.Workers != 0 {
		t.Errorf("Workers = %d, want 0", cfg.Workers)
	}
	if cfg.DefaultWorkers != 8 {
		t.Errorf("DefaultWorkers = %d, want 8", cfg.DefaultWorkers)
	}
	if cfg.BatchSize != 50 {
		t.Errorf("BatchSize = %d, want 50", cfg.BatchSize)
	}
	if cfg.HistoryLength != 500 {
		t.Errorf("HistoryLength = %d, want 500", cfg.HistoryLength)
	}
	if cfg.Frame != 50*time.Millisecond {
		t.Errorf("Frame = %s, want 50ms", cfg.Frame)
	}
	if cfg.Output != config.OutputText {
		t.Errorf("Output = %q, want text", cfg.Output)
	}
	if cfg.Pipeline.FaultExitCode != 70 {
		t.Errorf("FaultExitCode = %d, want 70", cfg.Pipeline.FaultExitCode)
	}
	if cfg.Pipeline.PrimaryDialect != "a" || cfg.Pipeline.AlternateDialect != "b" {
		t.Errorf("dialects = %q/%q, want a/b", cfg.Pipeline.PrimaryDialect, cfg.Pipeline.AlternateDialect)
	}
}

func TestLoadPositionalListsAndFlags(t *testing.T) {
	cfg, err := config.NewLoader().Load([]string{
		"-w", "3",
		"--batch-size", "10",
		"--scan-cmd", "lexer --dialect {dialect} {path}",
		"--parse-cmd", "parser",
		"--generate-cmd", "emit --to {target}",
		"--alternate-pattern", "/ext/",
		"--alternate-pattern", "_ext.",
		"first.list", "second.list",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if strings.Join(cfg.Lists, ",") != "first.list,second.list" {
		t.Errorf("Lists = %v", cfg.Lists)
	}
	if cfg.Workers != 3 || cfg.BatchSize != 10 {
		t.Errorf("Workers/BatchSize = %d/%d, want 3/10", cfg.Workers, cfg.BatchSize)
	}
	if strings.Join(cfg.Pipeline.Scan, "|") != "lexer|--dialect|{dialect}|{path}" {
		t.Errorf("Scan = %q", cfg.Pipeline.Scan)
	}
	if strings.Join(cfg.Pipeline.Generate, "|") != "emit|--to|{target}" {
		t.Errorf("Generate = %q", cfg.Pipeline.Generate)
	}
	if len(cfg.Pipeline.AlternatePatterns) != 2 {
		t.Errorf("AlternatePatterns = %v", cfg.Pipeline.AlternatePatterns)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfigFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{
		"lists": ["corpus.list"],
		"workers": 6,
		"batch_size": 25,
		"frame": "100ms",
		"output": "json",
		"pipeline": {
			"scan": ["lexer", "{path}"],
			"parse": "parser --strict",
			"generate": ["emit", "{target}"],
			"alternate_patterns": ["/ext/"],
			"message_path": "error.message",
			"message_pattern": "error: (.+)",
			"fault_exit_code": 99
		},
		"tracing": {"endpoint": "localhost:4317", "insecure": true}
	}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path, "--workers", "2"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if strings.Join(cfg.Lists, ",") != "corpus.list" {
		t.Errorf("Lists = %v", cfg.Lists)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want flag override 2", cfg.Workers)
	}
	if cfg.BatchSize != 25 {
		t.Errorf("BatchSize = %d, want 25", cfg.BatchSize)
	}
	if cfg.Frame != 100*time.Millisecond {
		t.Errorf("Frame = %s, want 100ms", cfg.Frame)
	}
	if cfg.Output != config.OutputJSON {
		t.Errorf("Output = %q, want json", cfg.Output)
	}
	if strings.Join(cfg.Pipeline.Parse, "|") != "parser|--strict" {
		t.Errorf("Parse = %q", cfg.Pipeline.Parse)
	}
	if cfg.Pipeline.MessagePath != "error.message" {
		t.Errorf("MessagePath = %q", cfg.Pipeline.MessagePath)
	}
	if cfg.Pipeline.MessagePattern != "error: (.+)" {
		t.Errorf("MessagePattern = %q", cfg.Pipeline.MessagePattern)
	}
	if cfg.Pipeline.FaultExitCode != 99 {
		t.Errorf("FaultExitCode = %d, want 99", cfg.Pipeline.FaultExitCode)
	}
	if cfg.Tracing.Endpoint != "localhost:4317" || !cfg.Tracing.Insecure {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := strings.Join([]string{
		"lists:",
		"  - a.list",
		"  - b.list",
		"history_length: 200",
		"frame: 0.1",
		"thresholds:",
		"  - 'attempt_failed:rate < 0.1'",
		"pipeline:",
		"  scan: lexer {path}",
		"  parse: parser",
		"  generate: emit {target}",
		"  env:",
		"    LEXER_MODE: strict",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := config.NewLoader().Load([]string{"--config", path, "override.list"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if strings.Join(cfg.Lists, ",") != "override.list" {
		t.Errorf("Lists = %v, want positional override", cfg.Lists)
	}
	if cfg.HistoryLength != 200 {
		t.Errorf("HistoryLength = %d, want 200", cfg.HistoryLength)
	}
	if cfg.Frame != 100*time.Millisecond {
		t.Errorf("Frame = %s, want 100ms", cfg.Frame)
	}
	if len(cfg.Thresholds) != 1 {
		t.Errorf("Thresholds = %v", cfg.Thresholds)
	}
	if len(cfg.Pipeline.Env) != 1 || cfg.Pipeline.Env[0] != "LEXER_MODE=strict" {
		t.Errorf("Env = %v", cfg.Pipeline.Env)
	}
}

func TestLoadHelpRequested(t *testing.T) {
	_, err := config.NewLoader().Load([]string{"--help"})
	if err != config.ErrHelpRequested {
		t.Fatalf("Load(--help) error = %v, want ErrHelpRequested", err)
	}
}

func TestPrintUsage(t *testing.T) {
	var b strings.Builder
	config.PrintUsage(&b)
	out := b.String()
	if !strings.Contains(out, "LIST_FILE") || !strings.Contains(out, "--batch-size") {
		t.Fatalf("usage missing expected content:\n%s", out)
	}
}

func TestWorkerCount(t *testing.T) {
	cfg := config.Defaults()
	cfg.Workers = 5
	if got := cfg.WorkerCount(); got != 5 {
		t.Errorf("WorkerCount() = %d, want explicit 5", got)
	}
	cfg.Workers = 0
	if got := cfg.WorkerCount(); got < 1 {
		t.Errorf("WorkerCount() = %d, want at least 1", got)
	}
}

func TestConfigValidationErrors(t *testing.T) {
	valid := func() config.Config {
		cfg := *config.Defaults()
		cfg.Pipeline.Scan = []string{"lexer"}
		cfg.Pipeline.Parse = []string{"parser"}
		cfg.Pipeline.Generate = []string{"emit"}
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   []string
	}{
		{
			name:   "missing commands",
			mutate: func(c *config.Config) { c.Pipeline = config.PipelineConfig{PrimaryDialect: "a", AlternateDialect: "b"} },
			want:   []string{"pipeline.scan", "pipeline.parse", "pipeline.generate"},
		},
		{
			name: "bad numbers",
			mutate: func(c *config.Config) {
				c.Workers = -1
				c.BatchSize = 0
				c.HistoryLength = 0
				c.Frame = 0
				c.DefaultWorkers = 0
			},
			want: []string{"workers", "batch_size", "history_length", "frame", "default_workers"},
		},
		{
			name:   "unknown output",
			mutate: func(c *config.Config) { c.Output = "xml" },
			want:   []string{"output"},
		},
		{
			name:   "tui with json",
			mutate: func(c *config.Config) { c.TUI = true; c.Output = config.OutputJSON },
			want:   []string{"tui"},
		},
		{
			name:   "same dialects",
			mutate: func(c *config.Config) { c.Pipeline.AlternateDialect = "a" },
			want:   []string{"must differ"},
		},
		{
			name:   "bad message pattern",
			mutate: func(c *config.Config) { c.Pipeline.MessagePattern = "(oops" },
			want:   []string{"pipeline.message_pattern"},
		},
		{
			name:   "bad env",
			mutate: func(c *config.Config) { c.Pipeline.Env = []string{"NOEQUALS"} },
			want:   []string{"KEY=VALUE"},
		},
		{
			name: "bad tracing",
			mutate: func(c *config.Config) {
				c.Tracing = config.TracingConfig{Endpoint: "x:1", Protocol: "thrift", SampleRate: 2}
			},
			want: []string{"tracing.protocol", "sample_rate"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() error = nil, want error")
			}
			for _, want := range tc.want {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Validate() error %q missing %q", err.Error(), want)
				}
			}
		})
	}

	cfg := valid()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() on valid config error = %v", err)
	}
}
