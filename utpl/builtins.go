package utpl

import "math"

func registerCoreBuiltins(engine *Engine) {
	engine.RegisterBuiltin("print", builtinPrint)
	engine.RegisterBuiltin("length", builtinLength)
	engine.RegisterBuiltin("type", builtinType)
	engine.RegisterBuiltin("keys", builtinKeys)
	engine.RegisterBuiltin("values", builtinValues)
	engine.RegisterBuiltin("substr", builtinSubstr)
	engine.RegisterBuiltin("int", builtinInt)
	engine.RegisterBuiltin("push", builtinPush)
	engine.RegisterBuiltin("pop", builtinPop)
}

// builtinPrint stringifies each argument and writes it to the render output.
// Unlike emit blocks, print renders null arguments as "null". Returns the
// number of bytes written.
func builtinPrint(call *CallContext) (Value, error) {
	written := 0
	for _, arg := range call.Args() {
		text := arg.String()
		if err := call.exec.write(text, call.pos); err != nil {
			return NewNull(), err
		}
		written += len(text)
	}
	return NewInt(int64(written)), nil
}

// builtinLength reports byte length for strings, element count for arrays,
// and key count for objects. Any other argument yields null.
func builtinLength(call *CallContext) (Value, error) {
	arg := call.Arg(0)
	switch arg.Kind() {
	case KindString:
		return NewInt(int64(len(arg.Str()))), nil
	case KindArray:
		return NewInt(int64(len(arg.Array().Items))), nil
	case KindObject:
		return NewInt(int64(arg.Object().Len())), nil
	default:
		return NewNull(), nil
	}
}

// builtinType names the argument's type. Null yields null rather than the
// string "null", and native builtins report as plain functions.
func builtinType(call *CallContext) (Value, error) {
	arg := call.Arg(0)
	switch arg.Kind() {
	case KindNull:
		return NewNull(), nil
	case KindBuiltin:
		return NewString("function"), nil
	default:
		return NewString(arg.Kind().String()), nil
	}
}

func builtinKeys(call *CallContext) (Value, error) {
	arg := call.Arg(0)
	if arg.Kind() != KindObject {
		return NewNull(), nil
	}
	keys := arg.Object().Keys()
	items := make([]Value, len(keys))
	for i, key := range keys {
		items[i] = NewString(key)
	}
	return NewArray(items), nil
}

func builtinValues(call *CallContext) (Value, error) {
	arg := call.Arg(0)
	if arg.Kind() != KindObject {
		return NewNull(), nil
	}
	obj := arg.Object()
	keys := obj.Keys()
	items := make([]Value, len(keys))
	for i, key := range keys {
		items[i], _ = obj.Get(key)
	}
	return NewArray(items), nil
}

// builtinSubstr extracts a byte range from a string. A negative offset counts
// from the end; a negative length leaves that many bytes off the end.
func builtinSubstr(call *CallContext) (Value, error) {
	arg := call.Arg(0)
	if arg.Kind() != KindString {
		return NewNull(), nil
	}
	s := arg.Str()
	size := int64(len(s))

	off := toInt64(call.Arg(1))
	if off < 0 {
		off += size
		if off < 0 {
			off = 0
		}
	} else if off > size {
		off = size
	}

	end := size
	if call.NumArgs() > 2 {
		length := toInt64(call.Arg(2))
		if length < 0 {
			end = size + length
		} else {
			end = off + length
		}
		if end > size {
			end = size
		}
		if end < off {
			end = off
		}
	}
	return NewString(s[off:end]), nil
}

// builtinInt converts the argument to an integer, truncating toward zero.
// Values with no leading numeric prefix convert to NaN, not zero.
func builtinInt(call *CallContext) (Value, error) {
	num := toNumber(call.Arg(0))
	if num.Kind() == KindDouble {
		d := num.Double()
		if math.IsNaN(d) {
			return NewDouble(d), nil
		}
		return NewInt(toInt64(num)), nil
	}
	return num, nil
}

// builtinPush appends each remaining argument to the array and returns the
// last value pushed. A non-array first argument yields null.
func builtinPush(call *CallContext) (Value, error) {
	arg := call.Arg(0)
	if arg.Kind() != KindArray {
		return NewNull(), nil
	}
	arr := arg.Array()
	last := NewNull()
	for i := 1; i < call.NumArgs(); i++ {
		last = call.Arg(i)
		arr.Items = append(arr.Items, last)
	}
	return last, nil
}

// builtinPop removes and returns the last element. Empty arrays and
// non-array arguments yield null.
func builtinPop(call *CallContext) (Value, error) {
	arg := call.Arg(0)
	if arg.Kind() != KindArray {
		return NewNull(), nil
	}
	arr := arg.Array()
	if len(arr.Items) == 0 {
		return NewNull(), nil
	}
	last := arr.Items[len(arr.Items)-1]
	arr.Items = arr.Items[:len(arr.Items)-1]
	return last, nil
}
