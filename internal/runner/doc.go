// Package runner hosts scenario action trees and is the runtime they report
// to.
//
// The runner package provides:
//   - A single event loop executing all action-tree code
//   - Admission control capping simultaneous exchanges
//   - Rate limiting of exchange admissions (uniform or Poisson arrivals)
//   - Users running the root blueprint concurrently, each for a number of iterations
//   - Duration-based termination
//
// # Basic Usage
//
//	r := runner.New(runner.Options{
//		MaxConnections: 100,
//		RatePerSecond:  50,
//		Users:          10,
//		Iterations:     5,
//		Sink:           collector,
//	})
//	result := r.Run(ctx, root)
//
// # Event Loop
//
// Actions never block. Network I/O and timers are started with [Runner.Spawn]
// and [Runner.After]; their results are delivered back to the loop goroutine,
// so action state, cookie stores and report sinks need no locking.
//
// # Middleware
//
// [WithLogging] wraps a report sink to log failed exchanges.
package runner
