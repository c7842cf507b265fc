// Package metrics aggregates the report records of a run.
//
// The central [Collector] type implements report.Sink, so it can be handed to
// the runner directly or combined with other sinks via report.Multi:
//
//	collector := metrics.NewCollector()
//	r := runner.New(runner.Options{Sink: collector})
//	r.Run(ctx, root)
//	stats := collector.Stats(collector.Elapsed())
//
// # Statistics
//
// The [Stats] type provides:
//   - Record counts (total, successes, failures) over primary records
//   - Latency-to-headers percentiles (P50, P90, P95, P99) from an HDR histogram
//   - Requests per second
//   - Status buckets per channel, with side-channel sequences such as
//     authentication subrequests counted apart from primary records
//   - Per-action breakdowns
//   - Transport errors grouped by [ErrorClass]
//
// # Thread Safety
//
// Records arrive on the run loop while progress reporters read Stats from
// their own goroutine; a mutex guards all state.
package metrics
