package scenario

import (
	"time"
)

// State is the lifecycle position of an action.
type State int

const (
	Pending State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Hook runs immediately before an action starts.
type Hook func(a Action)

// Blueprint describes a unit of work. New returns a fresh instance with its
// own state each time it is called.
type Blueprint interface {
	Name() string
	New() Action
}

// Action is a running instance of a blueprint. Implementations embed Base and
// provide Start.
type Action interface {
	Name() string
	Context() *Context
	State() State
	Finished() bool
	Done() <-chan struct{}
	OnFinish(fn func())
	Finish()
	Elapsed() time.Duration

	// Start begins the action's work. It may call Finish before returning.
	Start()

	core() *Base
}

// Base carries the lifecycle shared by every action.
type Base struct {
	name    string
	ctx     *Context
	state   State
	hooks   []Hook
	done    chan struct{}
	waiters []func()
	started time.Time
}

// NewBase returns the lifecycle state for a new pending action.
func NewBase(name string, hooks []Hook) Base {
	return Base{
		name:  name,
		hooks: append([]Hook(nil), hooks...),
		done:  make(chan struct{}),
	}
}

func (b *Base) Name() string { return b.name }

// Context returns the context the action was started in.
func (b *Base) Context() *Context { return b.ctx }

func (b *Base) State() State { return b.state }

func (b *Base) Finished() bool { return b.state == Finished }

// Done is closed when the action finishes.
func (b *Base) Done() <-chan struct{} { return b.done }

// Elapsed returns the time since the action started.
func (b *Base) Elapsed() time.Duration {
	if b.started.IsZero() {
		return 0
	}
	return time.Since(b.started)
}

// OnFinish registers fn to run when the action finishes. If it already has,
// fn runs immediately.
func (b *Base) OnFinish(fn func()) {
	if b.state == Finished {
		fn()
		return
	}
	b.waiters = append(b.waiters, fn)
}

// Finish marks the action finished and notifies waiters in registration
// order. Subsequent calls do nothing.
func (b *Base) Finish() {
	if b.state == Finished {
		return
	}
	b.state = Finished
	close(b.done)
	if b.ctx != nil {
		b.ctx.Logger().Debug("action finished", "action", b.name, "elapsed", b.Elapsed())
	}
	waiters := b.waiters
	b.waiters = nil
	for _, fn := range waiters {
		fn()
	}
}

func (b *Base) core() *Base { return b }

// launch attaches a to ctx, runs its hooks and starts it. Actions that already
// left the pending state are not restarted.
func launch(a Action, ctx *Context) {
	b := a.core()
	if b.state != Pending {
		return
	}
	b.ctx = ctx
	b.state = Running
	b.started = time.Now()
	ctx.Logger().Debug("action started", "action", b.name)
	for _, hook := range b.hooks {
		hook(a)
	}
	a.Start()
}

// Run instantiates bp against a new root context on rt and starts it. Actions
// without asynchronous work are finished when Run returns.
func Run(rt Runtime, bp Blueprint) Action {
	return RunIn(NewContext(rt), bp)
}

// RunIn instantiates bp and starts it in ctx.
func RunIn(ctx *Context, bp Blueprint) Action {
	a := bp.New()
	launch(a, ctx)
	return a
}
