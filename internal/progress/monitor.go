package progress

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/torosent/corpusrun/internal/output"
)

// ErrCrashed is returned by Monitor.Run when a worker reported an
// unrecoverable fault. The pool has already been aborted when it is returned.
var ErrCrashed = errors.New("progress: run crashed")

// RunState is the read side of the shared run counters.
type RunState interface {
	Completed() int64
	Crashed() bool
}

// Renderer draws one status frame.
type Renderer interface {
	Render(output.Status)
}

// Monitor samples run progress once per frame, renders it, and aborts the run
// as soon as a crash is observed.
type Monitor struct {
	State   RunState
	Total   int64
	Frame   time.Duration
	Sampler *Sampler
	Sink    Renderer
	// Abort is called once, before Run returns ErrCrashed.
	Abort  func()
	Logger *zap.Logger
}

// Run blocks until every item completed, a crash was observed, or ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	frame := m.Frame
	if frame <= 0 {
		frame = 50 * time.Millisecond
	}
	sampler := m.Sampler
	if sampler == nil {
		sampler = NewSampler(500, frame)
	}
	logger := m.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debugEvery := rate.Sometimes{Interval: time.Second}

	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	var last int64
	for {
		done := m.State.Completed()
		sampler.Record(done - last)
		last = done

		spi := sampler.SecondsPerItem()
		left := max(m.Total-done, 0)
		status := output.Status{
			Done:           done,
			Total:          m.Total,
			Remaining:      time.Duration(float64(left) * spi * float64(time.Second)),
			SecondsPerItem: spi,
		}
		if m.Sink != nil {
			m.Sink.Render(status)
		}
		debugEvery.Do(func() {
			logger.Debug("progress",
				zap.Int64("completed", done),
				zap.Int64("total", m.Total),
				zap.Float64("seconds_per_item", spi),
				zap.Int("samples", sampler.Len()),
			)
		})

		if m.State.Crashed() {
			logger.Warn("crash observed, aborting workers", zap.Int64("completed", done))
			if m.Abort != nil {
				m.Abort()
			}
			return ErrCrashed
		}
		if done >= m.Total {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
