package scenario

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/stampede/internal/report"
)

// Work runs off the loop goroutine. post delivers fn to the loop; events posted
// by one Work are delivered in order. The returned continuation, if non-nil,
// runs on the loop after every posted event.
type Work func(ctx context.Context, post func(fn func())) (then func())

// Runtime is the host an action tree runs against.
type Runtime interface {
	report.Sink

	// Spawn schedules work subject to the runtime's admission control.
	Spawn(work Work)
	// After runs fn on the loop once d has elapsed.
	After(d time.Duration, fn func())
	// Logger returns the runtime logger.
	Logger() *slog.Logger
	// Tracer returns the tracer used for exchange spans.
	Tracer() trace.Tracer
	// PropagateTrace reports whether W3C trace headers should be injected.
	PropagateTrace() bool
}
