// Package metrics holds the counters shared between workers and the progress
// monitor, and aggregates per-attempt statistics for the run summary.
//
// # Run State
//
// [RunState] carries the two values every worker updates:
//
//	state := metrics.NewRunState()
//	state.Complete()     // one path processed, whatever the outcome
//	state.MarkCrashed()  // an unrecoverable fault was seen
//
// Mutations are serialized by a mutex. [RunState.Completed] and
// [RunState.Crashed] are lock-free snapshots, so the monitor can poll them
// every frame without contending with workers.
//
// # Collector
//
// The [Collector] type aggregates attempt latencies and outcome counts:
//
//	collector := metrics.NewCollector()
//	collector.Start()
//	collector.RecordAttempt(latency, "parse_failure", false)
//	stats := collector.Stats(collector.Elapsed())
//
// Latencies are stored in an HDR histogram, so percentiles stay accurate
// across millions of attempts.
package metrics
