package utpl

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// NativeFunc is the signature of a host function callable from templates.
// Returning a non-nil error aborts the render with a runtime error carrying
// the call site; modules that prefer the soft last-error style wrap their
// functions with WithLastError instead.
type NativeFunc func(call *CallContext) (Value, error)

// CallContext carries the arguments and render state of one native call.
type CallContext struct {
	exec *Execution
	name string
	args []Value
	pos  Position
}

// Name reports the name the function was registered under.
func (c *CallContext) Name() string { return c.name }

// NumArgs reports how many arguments the caller supplied.
func (c *CallContext) NumArgs() int { return len(c.args) }

// Arg returns the i-th argument, or null when the caller supplied fewer.
func (c *CallContext) Arg(i int) Value {
	if i < 0 || i >= len(c.args) {
		return NewNull()
	}
	return c.args[i]
}

// Args returns the argument list. Callers must not mutate it.
func (c *CallContext) Args() []Value { return c.args }

// Context returns the context the render was started with.
func (c *CallContext) Context() context.Context {
	if c.exec.ctx != nil {
		return c.exec.ctx
	}
	return context.Background()
}

// Output is the render output stream. Builtins like print write here so
// their output interleaves correctly with surrounding template text.
func (c *CallContext) Output() io.Writer { return c.exec.out }

// Errorf builds a runtime error located at the call site.
func (c *CallContext) Errorf(format string, args ...any) error {
	return c.exec.errorAt(c.pos, format, args...)
}

// Call invokes a template value as a function, so native code can run
// callbacks passed in as arguments.
func (c *CallContext) Call(fn Value, args ...Value) (Value, error) {
	switch fn.Kind() {
	case KindFunction:
		return c.exec.callFunction(fn.Function(), args, c.pos)
	case KindBuiltin:
		return c.exec.callBuiltin(fn.Builtin(), args, c.pos)
	default:
		return NewNull(), c.Errorf("%s value is not callable", fn.Kind())
	}
}

// Provider contributes a named module object to the global scope of every
// render. Values returns the module's functions and constants; it is called
// once at engine construction, so the returned object is shared between
// renders and must be treated as read-only by templates.
type Provider interface {
	ModuleName() string
	Values() map[string]NativeFunc
}

// WithLastError adapts a set of native functions to the soft-failure module
// style: instead of aborting the render, a failing function stores its error
// in a per-module slot and returns null, and the module gains a synthesized
// error() accessor that returns and clears the stored message. Calls that
// succeed clear the slot. The slot lives on the engine, not the render: it
// is synchronized, and concurrent renders observe each other's messages.
func WithLastError(fns map[string]NativeFunc) map[string]NativeFunc {
	slot := new(lastError)
	wrapped := make(map[string]NativeFunc, len(fns)+1)
	for name, fn := range fns {
		wrapped[name] = slot.wrap(fn)
	}
	wrapped["error"] = slot.take
	return wrapped
}

type lastError struct {
	mu      sync.Mutex
	message string
	set     bool
}

func (l *lastError) wrap(fn NativeFunc) NativeFunc {
	return func(call *CallContext) (Value, error) {
		val, err := fn(call)
		l.mu.Lock()
		defer l.mu.Unlock()
		if err != nil {
			l.message = err.Error()
			l.set = true
			return NewNull(), nil
		}
		l.set = false
		return val, nil
	}
}

func (l *lastError) take(call *CallContext) (Value, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.set {
		return NewNull(), nil
	}
	l.set = false
	return NewString(l.message), nil
}

func moduleObject(p Provider) (Value, error) {
	fns := p.Values()
	if len(fns) == 0 {
		return NewNull(), fmt.Errorf("module %s exports nothing", p.ModuleName())
	}
	names := make([]string, 0, len(fns))
	for name := range fns {
		names = append(names, name)
	}
	sort.Strings(names)

	obj := newObject()
	for _, name := range names {
		obj.Set(name, NewBuiltin(p.ModuleName()+"."+name, fns[name]))
	}
	return Value{kind: KindObject, data: obj}, nil
}
