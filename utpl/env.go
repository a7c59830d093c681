package utpl

// Env is one frame of the lexical scope chain. A frame is created for the
// global scope, per function call, and per loop that declares a local
// iteration variable. Closures hold their declaration frame by reference,
// so mutations made after closure creation stay visible.
type Env struct {
	parent *Env
	values map[string]Value
}

func newEnv(parent *Env) *Env {
	return &Env{parent: parent, values: make(map[string]Value)}
}

func (e *Env) Get(name string) (Value, bool) {
	if val, ok := e.values[name]; ok {
		return val, true
	}
	if e.parent != nil {
		return e.parent.Get(name)
	}
	return Value{}, false
}

// Define binds name in this frame, shadowing any outer binding. It backs
// the local keyword and parameter binding.
func (e *Env) Define(name string, val Value) {
	e.values[name] = val
}

// Assign mutates the innermost existing binding for name. When no frame in
// the chain holds the name, a new binding is created in the global
// (outermost) frame.
func (e *Env) Assign(name string, val Value) {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.values[name]; ok {
			env.values[name] = val
			return
		}
		if env.parent == nil {
			env.values[name] = val
			return
		}
	}
}
