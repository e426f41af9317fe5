// Package pipeline defines the contract between the harness and the
// scan/parse/generate toolchain under test.
//
// The harness only ever calls [Pipeline.Attempt] and inspects the returned
// [Outcome]. [CommandPipeline] is the stock implementation: it runs each stage
// as an external command, feeding one stage's stdout into the next stage's
// stdin. Tests and embedders can supply any function through [Func].
//
// # Outcomes
//
// Scan, parse and generate failures are expected results and never stop a
// run. [UncaughtFault] is reserved for the toolchain crashing (a stage killed
// by a signal, a stage exiting with the configured fault code, or a stage
// that cannot be started) and makes the harness abort every worker.
package pipeline
