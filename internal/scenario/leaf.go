package scenario

import (
	"fmt"
	"time"
)

// Leaf is a blueprint for a callback action.
type Leaf struct {
	name  string
	fn    func(a Action)
	hooks []Hook
}

// Func returns a leaf that calls fn when started. fn is responsible for
// calling a.Finish, either before returning or later from a continuation.
func Func(name string, fn func(a Action)) *Leaf {
	if name == "" {
		name = "func"
	}
	return &Leaf{name: name, fn: fn}
}

// Wait returns a leaf that finishes after d without doing any work.
func Wait(d time.Duration) *Leaf {
	return Func(fmt.Sprintf("wait %s", d), func(a Action) {
		if d <= 0 {
			a.Finish()
			return
		}
		a.Context().Runtime().After(d, a.Finish)
	})
}

func (l *Leaf) Name() string { return l.name }

// BeforeStart registers a hook run before every instance of l starts.
func (l *Leaf) BeforeStart(h Hook) *Leaf {
	l.hooks = append(l.hooks, h)
	return l
}

func (l *Leaf) New() Action {
	return &leafAction{Base: NewBase(l.name, l.hooks), fn: l.fn}
}

type leafAction struct {
	Base
	fn func(a Action)
}

func (a *leafAction) Start() {
	if a.fn == nil {
		a.Finish()
		return
	}
	a.fn(a)
}
