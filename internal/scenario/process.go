package scenario

import (
	"fmt"
)

// Mode selects how a process schedules its children.
type Mode int

const (
	// Sequential runs children in push order, each after the previous finished.
	Sequential Mode = iota
	// Parallel starts all children together and finishes when all have.
	Parallel
)

func (m Mode) String() string {
	switch m {
	case Sequential:
		return "queue"
	case Parallel:
		return "group"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

type scheduler interface {
	schedule(p *ProcessAction)
}

// Process is a container blueprint: an ordered list of child blueprints plus
// hooks and settings applied to every run.
type Process struct {
	name     string
	mode     Mode
	children []Blueprint
	hooks    []Hook
	settings map[any]any
}

// NewQueue returns an empty sequential process.
func NewQueue(name string) *Process {
	return newProcess(name, Sequential)
}

// NewGroup returns an empty parallel process.
func NewGroup(name string) *Process {
	return newProcess(name, Parallel)
}

func newProcess(name string, mode Mode) *Process {
	if name == "" {
		name = mode.String()
	}
	return &Process{name: name, mode: mode, settings: map[any]any{}}
}

func (p *Process) Name() string { return p.name }

func (p *Process) Mode() Mode { return p.mode }

// Push appends child blueprints. Processes derived earlier are unaffected.
func (p *Process) Push(children ...Blueprint) *Process {
	p.children = append(p.children, children...)
	return p
}

// Children returns a copy of the registered child blueprints.
func (p *Process) Children() []Blueprint {
	return append([]Blueprint(nil), p.children...)
}

// BeforeStart registers a hook run before every instance of p starts.
func (p *Process) BeforeStart(h Hook) *Process {
	p.hooks = append(p.hooks, h)
	return p
}

// Derive returns a new process of the same mode holding a snapshot of p's
// children, hooks and settings. Later changes to either side stay private.
func (p *Process) Derive(name string) *Process {
	if name == "" {
		name = p.name
	}
	d := &Process{
		name:     name,
		mode:     p.mode,
		children: append([]Blueprint(nil), p.children...),
		hooks:    append([]Hook(nil), p.hooks...),
		settings: make(map[any]any, len(p.settings)),
	}
	for k, v := range p.settings {
		d.settings[k] = v
	}
	return d
}

func (p *Process) load(key any) (any, bool) {
	v, ok := p.settings[key]
	return v, ok
}

func (p *Process) store(key any, value any) {
	p.settings[key] = value
}

// New instantiates p and, recursively, one fresh instance per child.
func (p *Process) New() Action {
	a := &ProcessAction{
		Base:     NewBase(p.name, p.hooks),
		settings: make(map[any]any, len(p.settings)),
		children: make([]Action, 0, len(p.children)),
	}
	for k, v := range p.settings {
		a.settings[k] = v
	}
	switch p.mode {
	case Parallel:
		a.sched = group{}
	default:
		a.sched = queue{}
	}
	for _, child := range p.children {
		a.children = append(a.children, child.New())
	}
	return a
}

// ProcessAction is a running process.
type ProcessAction struct {
	Base
	sched    scheduler
	settings map[any]any
	children []Action
	scope    *Context
}

// Children returns the child instances of this run.
func (a *ProcessAction) Children() []Action {
	return append([]Action(nil), a.children...)
}

// Scope returns the context children are started in. It is a new level when
// the blueprint carried settings, otherwise the process's own context.
func (a *ProcessAction) Scope() *Context {
	return a.scope
}

func (a *ProcessAction) Start() {
	a.scope = a.Context()
	if len(a.settings) > 0 {
		a.scope = a.scope.Child()
		for k, v := range a.settings {
			a.scope.store(k, v)
		}
	}
	a.sched.schedule(a)
}
