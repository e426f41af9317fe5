package runner

import (
	"go.uber.org/zap"

	"github.com/torosent/corpusrun/internal/metrics"
	"github.com/torosent/corpusrun/internal/pipeline"
	"github.com/torosent/corpusrun/internal/queue"
)

// DiagnosticWriter receives one complete line per failed attempt.
type DiagnosticWriter interface {
	Diagnostic(line string)
}

// Options configure the Pool.
type Options struct {
	Workers     int               // number of worker goroutines
	Queue       *queue.Queue      // filled by the caller, including one Stop per worker
	Pipeline    pipeline.Pipeline // attempted on every path (required)
	State       *metrics.RunState // shared with the progress monitor
	Collector   *metrics.Collector
	Diagnostics DiagnosticWriter
	Logger      *zap.Logger
}

type discardDiagnostics struct{}

func (discardDiagnostics) Diagnostic(string) {}

func (o *Options) normalize() {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Queue == nil {
		o.Queue = queue.New()
	}
	if o.State == nil {
		o.State = metrics.NewRunState()
	}
	if o.Collector == nil {
		o.Collector = metrics.NewCollector()
	}
	if o.Diagnostics == nil {
		o.Diagnostics = discardDiagnostics{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}
