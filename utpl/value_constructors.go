package utpl

func NewNull() Value            { return Value{kind: KindNull} }
func NewBool(b bool) Value      { return Value{kind: KindBool, data: b} }
func NewInt(i int64) Value      { return Value{kind: KindInt, data: i} }
func NewDouble(f float64) Value { return Value{kind: KindDouble, data: f} }
func NewString(s string) Value  { return Value{kind: KindString, data: s} }

func NewArray(items []Value) Value {
	return Value{kind: KindArray, data: &Array{Items: items}}
}

func NewObject() Value {
	return Value{kind: KindObject, data: newObject()}
}

// NewObjectOf builds an object from pairs in argument order.
func NewObjectOf(pairs ...ObjectEntry) Value {
	obj := newObject()
	for _, pair := range pairs {
		obj.Set(pair.Key, pair.Value)
	}
	return Value{kind: KindObject, data: obj}
}

// ObjectEntry is a key/value pair for NewObjectOf.
type ObjectEntry struct {
	Key   string
	Value Value
}

func NewFunction(fn *Function) Value {
	return Value{kind: KindFunction, data: fn}
}

func NewBuiltin(name string, fn NativeFunc) Value {
	return Value{kind: KindBuiltin, data: &Builtin{Name: name, Fn: fn}}
}
