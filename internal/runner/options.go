package runner

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/torosent/stampede/internal/report"
	"github.com/torosent/stampede/internal/scenario"
)

// DefaultMaxConnections caps simultaneous exchanges when no limit is given.
const DefaultMaxConnections = 10000

// ArrivalModel selects how exchange admissions are spaced.
type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

// Options configure the Runner.
type Options struct {
	MaxConnections int           // simultaneous exchanges admitted (admission control)
	RatePerSecond  int           // exchange admissions per second (0 means unlimited)
	ArrivalModel   ArrivalModel  // uniform or poisson pacing of admissions
	Users          int           // independent concurrent runs of the root blueprint
	Iterations     int           // sequential runs per user
	Duration       time.Duration // overall time limit (0 means no duration cap)
	Sink           report.Sink   // receives every report record on the loop
	Logger         *slog.Logger
	Tracer         trace.Tracer
	PropagateTrace bool

	// Prepare runs against the root context of every run before the root
	// action starts.
	Prepare func(root *scenario.Context)

	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
	PoissonSampler func() float64              // optional injection for tests
	RandomSeed     int64
}

func (o *Options) normalize() {
	if o.MaxConnections <= 0 {
		o.MaxConnections = DefaultMaxConnections
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.ArrivalModel == "" {
		o.ArrivalModel = ArrivalModelUniform
	}
	if o.Users <= 0 {
		o.Users = 1
	}
	if o.Iterations <= 0 {
		o.Iterations = 1
	}
	if o.Sink == nil {
		o.Sink = report.Discard
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.RandomSeed == 0 {
		o.RandomSeed = time.Now().UnixNano()
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
