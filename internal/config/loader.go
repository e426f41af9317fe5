package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
// Positional arguments are list files; they replace any lists named in the
// config file.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	if cfg.Output == "" {
		cfg.Output = OutputText
	}
	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "lists"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("lists: %w", err)
		}
		cfg.Lists = val
	}

	if raw, ok := lookupSetting(settings, "workers"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("workers: %w", err)
		}
		cfg.Workers = val
	}

	if raw, ok := lookupSetting(settings, "defaultworkers", "default_workers", "default-workers"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("defaultWorkers: %w", err)
		}
		cfg.DefaultWorkers = val
	}

	if raw, ok := lookupSetting(settings, "batchsize", "batch_size", "batch-size"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("batchSize: %w", err)
		}
		cfg.BatchSize = val
	}

	if raw, ok := lookupSetting(settings, "historylength", "history_length", "history-length"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("historyLength: %w", err)
		}
		cfg.HistoryLength = val
	}

	if raw, ok := lookupSetting(settings, "frame"); ok {
		dur, err := asFrameDuration(raw)
		if err != nil {
			return fmt.Errorf("frame: %w", err)
		}
		cfg.Frame = dur
	}

	if raw, ok := lookupSetting(settings, "tui"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("tui: %w", err)
		}
		cfg.TUI = val
	}

	if raw, ok := lookupSetting(settings, "output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
		cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}

	if raw, ok := lookupSetting(settings, "loglevel", "log_level", "log-level"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("logLevel: %w", err)
		}
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}

	if raw, ok := lookupSetting(settings, "logfile", "log_file", "log-file"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("logFile: %w", err)
		}
		cfg.LogFile = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		thresholds, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = thresholds
	}

	if raw, ok := lookupSetting(settings, "lockfile", "lock_file", "lock-file"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("lockFile: %w", err)
		}
		cfg.LockFile = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "pipeline"); ok {
		if err := applyPipelineSettings(&cfg.Pipeline, raw); err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := applyTracingSettings(&cfg.Tracing, raw); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}

	return nil
}

func applyPipelineSettings(p *PipelineConfig, value interface{}) error {
	if value == nil {
		return nil
	}
	settings, err := toStringKeyMap(value)
	if err != nil {
		return err
	}

	for _, stage := range []struct {
		key    string
		target *[]string
	}{
		{"scan", &p.Scan},
		{"parse", &p.Parse},
		{"generate", &p.Generate},
	} {
		raw, ok := lookupSetting(settings, stage.key)
		if !ok {
			continue
		}
		argv, err := asCommand(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", stage.key, err)
		}
		*stage.target = argv
	}

	if raw, ok := lookupSetting(settings, "primarydialect", "primary_dialect", "primary-dialect"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("primary_dialect: %w", err)
		}
		p.PrimaryDialect = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "alternatedialect", "alternate_dialect", "alternate-dialect"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("alternate_dialect: %w", err)
		}
		p.AlternateDialect = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "alternatepatterns", "alternate_patterns", "alternate-patterns"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("alternate_patterns: %w", err)
		}
		p.AlternatePatterns = val
	}
	if raw, ok := lookupSetting(settings, "messagepath", "message_path", "message-path"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("message_path: %w", err)
		}
		p.MessagePath = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "messagepattern", "message_pattern", "message-pattern"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("message_pattern: %w", err)
		}
		p.MessagePattern = val
	}
	if raw, ok := lookupSetting(settings, "faultexitcode", "fault_exit_code", "fault-exit-code"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("fault_exit_code: %w", err)
		}
		p.FaultExitCode = val
	}
	if raw, ok := lookupSetting(settings, "env"); ok {
		env, err := asEnv(raw)
		if err != nil {
			return fmt.Errorf("env: %w", err)
		}
		p.Env = env
	}
	return nil
}

func applyTracingSettings(t *TracingConfig, value interface{}) error {
	if value == nil {
		return nil
	}
	settings, err := toStringKeyMap(value)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
		t.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("protocol: %w", err)
		}
		t.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(settings, "servicename", "service_name", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("service_name: %w", err)
		}
		t.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("insecure: %w", err)
		}
		t.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "samplerate", "sample_rate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("sample_rate: %w", err)
		}
		t.SampleRate = val
	}
	return nil
}
