package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const usageLine = "corpusrun [flags] LIST_FILE [LIST_FILE...]"

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           usageLine,
		Short:         "Run the scan/parse/generate toolchain over every file in one or more path lists",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Pool flags
	flags.IntP("workers", "w", 0, "Number of parallel workers (0 means one per CPU)")
	flags.Int("default-workers", DefaultFallbackWorker, "Worker count used when the CPU count cannot be detected")
	flags.Int("batch-size", DefaultBatchSize, "Number of paths handed to a worker at a time")

	// Progress flags
	flags.Int("history-length", DefaultHistoryLength, "Number of frames kept for the rate estimate")
	flags.Duration("frame", DefaultFrame, "Progress refresh interval")
	flags.Bool("tui", false, "Show an interactive progress bar instead of the plain status line")

	// Pipeline flags
	flags.String("scan-cmd", "", "Scan stage command; {path}, {dialect} and {target} are substituted")
	flags.String("parse-cmd", "", "Parse stage command; reads the scan output on stdin")
	flags.String("generate-cmd", "", "Generate stage command; reads the parse output on stdin, runs once per dialect")
	flags.String("primary-dialect", "a", "Dialect assumed for paths matching no alternate pattern")
	flags.String("alternate-dialect", "b", "Dialect used for paths matching an alternate pattern")
	flags.StringSlice("alternate-pattern", nil, "Path substring selecting the alternate dialect (repeatable)")
	flags.String("message-path", "", "gjson path of the failure message in JSON stage output")
	flags.String("message-pattern", "", "Regular expression selecting the failure message in stage output")
	flags.Int("fault-exit-code", DefaultFaultExitCode, "Stage exit status that signals an internal crash")

	// Output flags
	flags.StringP("output", "o", string(OutputText), "Summary format: text, json or yaml")
	flags.String("log-level", "warn", "Log level: debug, info, warn or error")
	flags.String("log-file", "", "Write structured logs to this file instead of stderr")
	flags.StringSlice("threshold", nil, "Summary assertion (repeatable, e.g. 'attempt_failed:rate < 0.05')")
	flags.String("lock-file", "", "Hold an exclusive lock on this file for the duration of the run")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing flags
	flags.String("otlp-endpoint", "", "OTLP collector endpoint for attempt spans")
	flags.String("otlp-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Bool("otlp-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("trace-sample-rate", 1.0, "Fraction of attempts to trace (0.0-1.0)")
}

// PrintUsage writes the usage line and flag defaults to w.
func PrintUsage(w io.Writer) {
	cmd := newFlagCommand()
	cmd.SetOut(w)
	displayHelp(cmd)
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if args := fs.Args(); len(args) > 0 {
		cfg.Lists = append([]string(nil), args...)
	}
	if fs.Changed("workers") {
		val, err := fs.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Workers = val
	}
	if fs.Changed("default-workers") {
		val, err := fs.GetInt("default-workers")
		if err != nil {
			return err
		}
		cfg.DefaultWorkers = val
	}
	if fs.Changed("batch-size") {
		val, err := fs.GetInt("batch-size")
		if err != nil {
			return err
		}
		cfg.BatchSize = val
	}
	if fs.Changed("history-length") {
		val, err := fs.GetInt("history-length")
		if err != nil {
			return err
		}
		cfg.HistoryLength = val
	}
	if fs.Changed("frame") {
		val, err := fs.GetDuration("frame")
		if err != nil {
			return err
		}
		cfg.Frame = val
	}
	if fs.Changed("tui") {
		val, err := fs.GetBool("tui")
		if err != nil {
			return err
		}
		cfg.TUI = val
	}
	if fs.Changed("scan-cmd") {
		val, err := fs.GetString("scan-cmd")
		if err != nil {
			return err
		}
		cfg.Pipeline.Scan = splitCommand(val)
	}
	if fs.Changed("parse-cmd") {
		val, err := fs.GetString("parse-cmd")
		if err != nil {
			return err
		}
		cfg.Pipeline.Parse = splitCommand(val)
	}
	if fs.Changed("generate-cmd") {
		val, err := fs.GetString("generate-cmd")
		if err != nil {
			return err
		}
		cfg.Pipeline.Generate = splitCommand(val)
	}
	if fs.Changed("primary-dialect") {
		val, err := fs.GetString("primary-dialect")
		if err != nil {
			return err
		}
		cfg.Pipeline.PrimaryDialect = strings.TrimSpace(val)
	}
	if fs.Changed("alternate-dialect") {
		val, err := fs.GetString("alternate-dialect")
		if err != nil {
			return err
		}
		cfg.Pipeline.AlternateDialect = strings.TrimSpace(val)
	}
	if fs.Changed("alternate-pattern") {
		val, err := fs.GetStringSlice("alternate-pattern")
		if err != nil {
			return err
		}
		cfg.Pipeline.AlternatePatterns = val
	}
	if fs.Changed("message-path") {
		val, err := fs.GetString("message-path")
		if err != nil {
			return err
		}
		cfg.Pipeline.MessagePath = strings.TrimSpace(val)
	}
	if fs.Changed("message-pattern") {
		val, err := fs.GetString("message-pattern")
		if err != nil {
			return err
		}
		cfg.Pipeline.MessagePattern = val
	}
	if fs.Changed("fault-exit-code") {
		val, err := fs.GetInt("fault-exit-code")
		if err != nil {
			return err
		}
		cfg.Pipeline.FaultExitCode = val
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("log-file") {
		val, err := fs.GetString("log-file")
		if err != nil {
			return err
		}
		cfg.LogFile = strings.TrimSpace(val)
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}
	if fs.Changed("lock-file") {
		val, err := fs.GetString("lock-file")
		if err != nil {
			return err
		}
		cfg.LockFile = strings.TrimSpace(val)
	}
	if fs.Changed("otlp-endpoint") {
		val, err := fs.GetString("otlp-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("otlp-protocol") {
		val, err := fs.GetString("otlp-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("otlp-insecure") {
		val, err := fs.GetBool("otlp-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("trace-sample-rate") {
		val, err := fs.GetFloat64("trace-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	return nil
}

// splitCommand turns a command line into an argv template. Arguments are
// separated by whitespace; quoting is not interpreted.
func splitCommand(line string) []string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
