package runner

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/torosent/corpusrun/internal/pipeline"
)

// Pool runs a fixed set of workers that drain the queue until each draws a
// Stop item.
type Pool struct {
	opt    Options
	group  *errgroup.Group
	cancel context.CancelFunc
}

// New creates a pool from opt, filling in defaults. Workers do not run until
// Start is called.
func New(opt Options) *Pool {
	opt.normalize()
	return &Pool{opt: opt}
}

// Workers reports the normalized worker count.
func (p *Pool) Workers() int {
	return p.opt.Workers
}

// Start launches the workers. It does not block.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.group, ctx = errgroup.WithContext(ctx)
	for i := 0; i < p.opt.Workers; i++ {
		id := i
		p.group.Go(func() error {
			return p.work(ctx, id)
		})
	}
	p.opt.Logger.Debug("workers started", zap.Int("workers", p.opt.Workers))
}

// Join blocks until every worker has drawn its Stop item. It returns the
// context error if the pool was aborted instead. Join on a pool that was
// never started returns nil.
func (p *Pool) Join() error {
	if p.group == nil {
		return nil
	}
	defer p.cancel()
	return p.group.Wait()
}

// Abort cancels the pool context and returns immediately. Running pipeline
// stages are killed, idle workers wake from Dequeue, and whatever item each
// worker was holding is abandoned.
func (p *Pool) Abort() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Pool) work(ctx context.Context, id int) error {
	log := p.opt.Logger.With(zap.Int("worker", id))
	for {
		item, err := p.opt.Queue.Dequeue(ctx)
		if err != nil {
			return err
		}
		if item.IsStop() {
			log.Debug("worker stopping")
			return nil
		}
		for _, path := range item.Batch() {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.process(ctx, log, path)
		}
	}
}

func (p *Pool) process(ctx context.Context, log *zap.Logger, path string) {
	start := time.Now()
	out := p.attempt(ctx, path)
	if ctx.Err() != nil {
		// Aborted mid-attempt: drop the result.
		return
	}
	latency := time.Since(start)

	if !out.OK() {
		p.opt.Diagnostics.Diagnostic(out.Diagnostic(path))
		log.Debug("attempt failed",
			zap.String("path", path),
			zap.Stringer("outcome", out.Kind),
			zap.String("dialect", out.Dialect),
			zap.Duration("latency", latency),
		)
	}
	if out.Fault() {
		log.Error("uncaught fault", zap.String("path", path))
		p.opt.State.MarkCrashed()
	}
	p.opt.Collector.RecordAttempt(latency, out.Kind.String(), out.OK())
	p.opt.State.Complete()
}

func (p *Pool) attempt(ctx context.Context, path string) (out pipeline.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = pipeline.Failed(pipeline.UncaughtFault, "unknown", fmt.Sprintf("panic: %v\n%s", r, debug.Stack()))
		}
	}()
	return p.opt.Pipeline.Attempt(ctx, path)
}
