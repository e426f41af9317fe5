// Package progress estimates remaining time from a moving window of
// per-frame completion counts and drives the status display.
//
// A [Monitor] polls the shared run state once per frame. Each frame it feeds
// the completion delta to a [Sampler], renders done/total, percentage,
// estimated time remaining and seconds per item, then checks the crash flag.
// A crash triggers the abort callback within one frame:
//
//	mon := &progress.Monitor{
//		State:   state,
//		Total:   int64(len(paths)),
//		Frame:   50 * time.Millisecond,
//		Sampler: progress.NewSampler(500, 50*time.Millisecond),
//		Sink:    sink,
//		Abort:   pool.Abort,
//	}
//	if err := mon.Run(ctx); errors.Is(err, progress.ErrCrashed) {
//		// workers are being torn down
//	}
package progress
