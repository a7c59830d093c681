package utpl

type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindArray
	KindObject
	KindFunction
	KindBuiltin
)

// Value is the tagged variant the evaluator operates on. Arrays and objects
// are reference types: copying a Value copies the reference, and mutation is
// visible through every holder.
type Value struct {
	kind ValueKind
	data any
}

// Array is a growable ordered sequence of values.
type Array struct {
	Items []Value
}

// Object is an ordered string-keyed mapping. Keys keep insertion order;
// re-adding an existing key replaces its value in place.
type Object struct {
	keys    []string
	entries map[string]Value
}

func newObject() *Object {
	return &Object{entries: make(map[string]Value)}
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.entries[key]
	return v, ok
}

func (o *Object) Set(key string, val Value) {
	if _, ok := o.entries[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.entries[key] = val
}

// Keys returns the keys in insertion order. The returned slice is a copy, so
// callers may iterate while the object mutates.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

func (o *Object) Len() int {
	return len(o.keys)
}

// Function is a closure: the shared declaration data paired with the scope
// frame captured at the declaration site.
type Function struct {
	Name   string
	Params []string
	Body   Statement
	Env    *Env
}

// Builtin is a natively implemented function exposed through the module
// registry or registered directly on the engine.
type Builtin struct {
	Name string
	Fn   NativeFunc
}
