package scenario

import (
	"log/slog"
)

// Key identifies a typed value stored in a Context or in blueprint settings.
// Keys with the same name but different value types are distinct.
type Key[T any] struct {
	name string
}

// NewKey returns a key for values of type T.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

func (k Key[T]) String() string {
	return k.name
}

// Store is a single level of typed values: a Context level or the settings of
// a Process blueprint.
type Store interface {
	load(key any) (any, bool)
	store(key any, value any)
}

// Context is one level of the chained configuration and state store shared by
// the actions of a run.
type Context struct {
	parent  *Context
	runtime Runtime
	logger  *slog.Logger
	values  map[any]any
}

// NewContext returns the root context of a run.
func NewContext(rt Runtime) *Context {
	return &Context{runtime: rt, values: map[any]any{}}
}

// Child returns a new level whose lookups fall back to c.
func (c *Context) Child() *Context {
	return &Context{parent: c, values: map[any]any{}}
}

// Parent returns the enclosing level, or nil at the root.
func (c *Context) Parent() *Context {
	return c.parent
}

// Root returns the run's root level.
func (c *Context) Root() *Context {
	for c.parent != nil {
		c = c.parent
	}
	return c
}

// Runtime returns the runtime the run is attached to.
func (c *Context) Runtime() Runtime {
	return c.Root().runtime
}

// SetLogger attaches a logger to this level and every level below it.
func (c *Context) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// Logger returns the nearest attached logger, falling back to the runtime
// logger and finally to a discarding logger.
func (c *Context) Logger() *slog.Logger {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.logger != nil {
			return cur.logger
		}
	}
	if rt := c.Runtime(); rt != nil {
		if l := rt.Logger(); l != nil {
			return l
		}
	}
	return slog.New(slog.DiscardHandler)
}

func (c *Context) load(key any) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *Context) store(key any, value any) {
	c.values[key] = value
}

// Lookup returns the nearest definition of k, walking from c to the root.
func Lookup[T any](c *Context, k Key[T]) (T, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if v, ok := cur.values[k]; ok {
			return v.(T), true
		}
	}
	var zero T
	return zero, false
}

// Layers returns every definition of k ordered from the root to c.
func Layers[T any](c *Context, k Key[T]) []T {
	var out []T
	for cur := c; cur != nil; cur = cur.parent {
		if v, ok := cur.values[k]; ok {
			out = append(out, v.(T))
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Own returns the value of k defined at exactly this level.
func Own[T any](s Store, k Key[T]) (T, bool) {
	v, ok := s.load(k)
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Set defines k at this level, shadowing any ancestor definition.
func Set[T any](s Store, k Key[T], value T) {
	s.store(k, value)
}

// Update replaces the value of k at this level with fn(current). Values
// defined by ancestors are never passed to fn and are never modified.
func Update[T any](s Store, k Key[T], fn func(current T, ok bool) T) T {
	cur, ok := Own(s, k)
	next := fn(cur, ok)
	s.store(k, next)
	return next
}

// Ensure returns the value of k at this level, creating it on first use.
func Ensure[T any](s Store, k Key[T], create func() T) T {
	if v, ok := Own(s, k); ok {
		return v
	}
	v := create()
	s.store(k, v)
	return v
}

// Merge returns a new map holding base's entries overridden by over's.
// Neither argument is modified.
func Merge[K comparable, V any](base, over map[K]V) map[K]V {
	out := make(map[K]V, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
