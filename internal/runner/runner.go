package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/stampede/internal/report"
	"github.com/torosent/stampede/internal/scenario"
)

// Result captures execution summary.
type Result struct {
	Started  int // runs of the root blueprint started
	Finished int // runs that reached the finished state
	Canceled bool
	Duration time.Duration
}

// Runner hosts action trees on a single event loop. It implements
// scenario.Runtime.
type Runner struct {
	opt    Options
	pacer  pacer
	tracer trace.Tracer

	// Set per Run.
	ctx      context.Context
	events   chan func()
	permits  chan struct{}
	ready    []func()
	pending  int
	active   int
	started  int
	finished int
}

var _ scenario.Runtime = (*Runner)(nil)

func New(opt Options) *Runner {
	opt.normalize()
	tracer := opt.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("stampede")
	}
	return &Runner{opt: opt, pacer: newPacer(opt), tracer: tracer}
}

// Run executes bp once per iteration for every user and returns when all runs
// finished and no spawned work is pending, or when ctx ends. The loop runs on
// the calling goroutine.
func (r *Runner) Run(ctx context.Context, bp scenario.Blueprint) Result {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if r.opt.Duration > 0 {
		deadlineCtx, deadlineCancel := context.WithTimeout(ctx, r.opt.Duration)
		ctx = deadlineCtx
		defer deadlineCancel()
	}

	r.ctx = ctx
	r.events = make(chan func(), 1024)
	r.permits = make(chan struct{}, r.opt.MaxConnections)
	r.ready = nil
	r.pending, r.active, r.started, r.finished = 0, 0, 0, 0

	for user := 0; user < r.opt.Users; user++ {
		r.startRun(bp, user, 0)
	}

	canceled := false
	for {
		r.drainReady()
		if r.active == 0 && r.pending == 0 {
			break
		}
		select {
		case fn := <-r.events:
			fn()
		case <-ctx.Done():
			canceled = true
		}
		if canceled {
			break
		}
	}

	return Result{
		Started:  r.started,
		Finished: r.finished,
		Canceled: canceled,
		Duration: time.Since(start),
	}
}

func (r *Runner) drainReady() {
	for len(r.ready) > 0 {
		fn := r.ready[0]
		r.ready = r.ready[1:]
		fn()
	}
}

// startRun starts one run of bp against a fresh root context.
func (r *Runner) startRun(bp scenario.Blueprint, user, iteration int) {
	if r.ctx.Err() != nil {
		return
	}
	root := scenario.NewContext(r)
	runID := ulid.Make().String()
	root.SetLogger(r.opt.Logger.With("run_id", runID, "user", user, "iteration", iteration))
	if r.opt.Prepare != nil {
		r.opt.Prepare(root)
	}

	r.active++
	r.started++
	a := scenario.RunIn(root, bp)
	a.OnFinish(func() {
		r.active--
		r.finished++
		if iteration+1 < r.opt.Iterations {
			r.ready = append(r.ready, func() { r.startRun(bp, user, iteration+1) })
		}
	})
}

// poster returns a function delivering fn to the current loop unless the run
// ended.
func (r *Runner) poster() func(fn func()) {
	ctx, events := r.ctx, r.events
	return func(fn func()) {
		select {
		case events <- fn:
		case <-ctx.Done():
		}
	}
}

// Spawn runs work on its own goroutine once an admission permit is available
// and the arrival model allows it.
func (r *Runner) Spawn(work scenario.Work) {
	r.pending++
	ctx, permits, post := r.ctx, r.permits, r.poster()
	go func() {
		if !r.admit(ctx, permits) {
			return
		}
		then := work(ctx, post)
		<-permits
		post(func() {
			r.pending--
			if then != nil {
				then()
			}
		})
	}()
}

func (r *Runner) admit(ctx context.Context, permits chan struct{}) bool {
	if err := r.pacer.admit(ctx); err != nil {
		return false
	}
	select {
	case permits <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

// After runs fn on the loop once d has elapsed.
func (r *Runner) After(d time.Duration, fn func()) {
	r.pending++
	post := r.poster()
	time.AfterFunc(d, func() {
		post(func() {
			r.pending--
			fn()
		})
	})
}

func (r *Runner) Report(rec report.Record) {
	r.opt.Sink.Report(rec)
}

func (r *Runner) ReportSequence(key string, rec report.Record) {
	r.opt.Sink.ReportSequence(key, rec)
}

func (r *Runner) Logger() *slog.Logger { return r.opt.Logger }

func (r *Runner) Tracer() trace.Tracer { return r.tracer }

func (r *Runner) PropagateTrace() bool { return r.opt.PropagateTrace }
