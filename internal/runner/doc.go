// Package runner provides the worker pool that attempts every queued path.
//
// Workers share one queue. Each draws an item, and for a batch attempts every
// path in order, writes a diagnostic for anything that did not succeed, and
// bumps the shared completion counter. A worker exits when it draws a Stop
// item, so the caller enqueues exactly one Stop per worker after all batches:
//
//	q := queue.New()
//	queue.Fill(q, paths, 50, workers)
//	pool := runner.New(runner.Options{
//		Workers:     workers,
//		Queue:       q,
//		Pipeline:    pipe,
//		State:       state,
//		Diagnostics: sink,
//	})
//	pool.Start(ctx)
//	err := pool.Join()
//
// # Faults
//
// An UncaughtFault outcome, or a panic escaping the pipeline, sets the crash
// flag on the shared state. The worker keeps draining its batch; deciding to
// stop the run belongs to the progress monitor, which calls [Pool.Abort].
//
// # Shutdown
//
// [Pool.Join] is the graceful path and waits for every Stop. [Pool.Abort]
// is the forced path: it cancels the pool context and returns at once. An
// attempt interrupted by Abort is not counted.
package runner
