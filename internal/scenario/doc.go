// Package scenario provides the composition engine for load scenarios.
//
// A scenario is a tree of blueprints. Leaves perform work (HTTP exchanges,
// callbacks, think time); containers decide how their children are scheduled:
//   - [NewQueue] runs children strictly one after another
//   - [NewGroup] starts every child at once and joins on all of them
//
// # Blueprints and Instances
//
// Blueprints are defined once, before any run. Running a blueprint produces a
// fresh [Action] tree with isolated state, so the same blueprint can be run
// repeatedly:
//
//	login := scenario.NewQueue("login")
//	login.Push(httpaction.Get("http://example.com/", httpaction.Options{}, nil))
//
//	browse := login.Derive("browse") // snapshot of login's children
//	browse.Push(scenario.Wait(time.Second))
//
//	action := scenario.Run(runtime, browse)
//
// # Context
//
// Every action holds a reference to the [Context] of its run. Contexts form a
// chain from the run root to the nearest container that introduced settings.
// [Lookup] returns the nearest definition of a key; [Layers] returns every
// definition from the root outward so callers can merge them. Writes through
// [Update] only ever touch the written level.
//
// # Concurrency
//
// All action code runs on the runtime's single loop goroutine. Work that must
// block (network I/O, timers) is handed to [Runtime.Spawn] or [Runtime.After]
// and resumes on the loop through continuations.
package scenario
