// Package harness drives one verification run: it loads the path lists,
// fans the paths out to the worker pool, watches progress, and reports.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/torosent/corpusrun/internal/config"
	"github.com/torosent/corpusrun/internal/listfile"
	"github.com/torosent/corpusrun/internal/metrics"
	"github.com/torosent/corpusrun/internal/output"
	"github.com/torosent/corpusrun/internal/pipeline"
	"github.com/torosent/corpusrun/internal/progress"
	"github.com/torosent/corpusrun/internal/queue"
	"github.com/torosent/corpusrun/internal/runner"
	"github.com/torosent/corpusrun/internal/threshold"
	"github.com/torosent/corpusrun/internal/tracing"
)

var (
	// ErrNoInput is returned when no list file was given.
	ErrNoInput = errors.New("no list files given")
	// ErrLocked is returned when another run holds the lock file.
	ErrLocked = errors.New("another run holds the lock")
	// ErrThresholdsFailed is returned when a configured threshold did not pass.
	ErrThresholdsFailed = errors.New("thresholds failed")
)

const tracingShutdownTimeout = 5 * time.Second

// Deps are the collaborators a run uses. Zero values select the defaults:
// os.Stdout, os.Stderr, a no-op logger, the command pipeline built from the
// config, and a console or TUI sink.
type Deps struct {
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *zap.Logger
	Pipeline pipeline.Pipeline
	Sink     output.Sink
}

func (d *Deps) normalize() {
	if d.Stdout == nil {
		d.Stdout = os.Stdout
	}
	if d.Stderr == nil {
		d.Stderr = os.Stderr
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
}

// Run executes a run and returns the process exit code. A non-nil error
// explains a non-zero code.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (int, error) {
	deps.normalize()

	if len(cfg.Lists) == 0 {
		config.PrintUsage(deps.Stderr)
		return 1, ErrNoInput
	}
	if err := cfg.Validate(); err != nil {
		return 1, err
	}

	if cfg.LockFile != "" {
		lock := flock.New(cfg.LockFile)
		ok, err := lock.TryLock()
		if err != nil {
			return 1, fmt.Errorf("lock %s: %w", cfg.LockFile, err)
		}
		if !ok {
			return 1, fmt.Errorf("%w: %s", ErrLocked, cfg.LockFile)
		}
		defer lock.Unlock()
	}

	runID := ulid.Make().String()
	logger := deps.Logger.With(zap.String("run_id", runID))

	paths, err := listfile.Load(cfg.Lists...)
	if err != nil {
		return 1, err
	}
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return 1, err
	}

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return 1, err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	pipe := deps.Pipeline
	if pipe == nil {
		cp, err := pipeline.NewCommandPipeline(commandConfig(cfg.Pipeline))
		if err != nil {
			return 1, err
		}
		pipe = cp
	}
	if tp.Enabled() {
		pipe = pipeline.WithTracing(pipe, tp.Tracer())
	}

	workers := cfg.WorkerCount()
	q := queue.New()
	items := queue.Fill(q, paths, cfg.BatchSize, workers)
	total := int64(len(paths))
	logger.Info("run starting",
		zap.Strings("lists", cfg.Lists),
		zap.Int64("paths", total),
		zap.Int("workers", workers),
		zap.Int("queue_items", items),
	)

	sink := deps.Sink
	if sink == nil {
		sink = newSink(cfg, deps)
	}
	defer sink.Close()

	state := metrics.NewRunState()
	collector := metrics.NewCollector()
	pool := runner.New(runner.Options{
		Workers:     workers,
		Queue:       q,
		Pipeline:    pipe,
		State:       state,
		Collector:   collector,
		Diagnostics: sink,
		Logger:      logger,
	})
	monitor := &progress.Monitor{
		State:   state,
		Total:   total,
		Frame:   cfg.Frame,
		Sampler: progress.NewSampler(cfg.HistoryLength, cfg.Frame),
		Sink:    sink,
		Abort:   pool.Abort,
		Logger:  logger,
	}

	start := time.Now()
	collector.Start()
	pool.Start(ctx)

	if err := monitor.Run(ctx); err != nil {
		pool.Abort()
		sink.Close()
		if errors.Is(err, progress.ErrCrashed) {
			logger.Error("run crashed", zap.Int64("completed", state.Completed()), zap.Int64("paths", total))
			return 1, err
		}
		logger.Warn("run interrupted", zap.Error(err))
		return 1, fmt.Errorf("run interrupted: %w", err)
	}
	if err := pool.Join(); err != nil {
		sink.Close()
		return 1, fmt.Errorf("run interrupted: %w", err)
	}
	elapsed := time.Since(start)
	sink.Close()

	stats := collector.Stats(elapsed)
	summary := output.NewSummary(runID, cfg.Lists, workers, total, state.Completed(), elapsed, stats)
	summary.Thresholds = threshold.NewEvaluator(thresholds).Evaluate(stats)
	if err := writeSummary(deps.Stdout, cfg.Output, summary); err != nil {
		return 1, err
	}
	logger.Info("run finished",
		zap.Int64("completed", summary.Completed),
		zap.Int64("failures", stats.Failures),
		zap.Duration("elapsed", elapsed),
	)

	if !threshold.AllPassed(summary.Thresholds) {
		return 1, ErrThresholdsFailed
	}
	return 0, nil
}

func newSink(cfg *config.Config, deps Deps) output.Sink {
	// Keep stdout clean for structured summaries.
	w := deps.Stdout
	if cfg.Output == config.OutputJSON || cfg.Output == config.OutputYAML {
		w = deps.Stderr
	}
	if cfg.TUI {
		return output.NewTUISink(w)
	}
	return output.NewConsoleSink(w)
}

func writeSummary(w io.Writer, format config.OutputFormat, s output.Summary) error {
	switch format {
	case config.OutputJSON:
		return output.PrintJSONSummary(w, s)
	case config.OutputYAML:
		return output.PrintYAMLSummary(w, s)
	default:
		output.PrintSummary(w, s)
		return nil
	}
}

func commandConfig(p config.PipelineConfig) pipeline.CommandConfig {
	return pipeline.CommandConfig{
		Scan:              p.Scan,
		Parse:             p.Parse,
		Generate:          p.Generate,
		PrimaryDialect:    p.PrimaryDialect,
		AlternateDialect:  p.AlternateDialect,
		AlternatePatterns: p.AlternatePatterns,
		MessagePath:       p.MessagePath,
		MessagePattern:    p.MessagePattern,
		FaultExitCode:     p.FaultExitCode,
		Env:               p.Env,
	}
}
