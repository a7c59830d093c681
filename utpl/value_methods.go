package utpl

import (
	"fmt"
	"math"
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	case KindBuiltin:
		return "function"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Truthy implements the truthiness table: null, false, zero of either
// numeric kind, the empty string, and empty containers are falsy. NaN is
// truthy (it is not zero).
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.data.(bool)
	case KindInt:
		return v.data.(int64) != 0
	case KindDouble:
		return v.data.(float64) != 0
	case KindString:
		return v.data.(string) != ""
	case KindArray:
		return len(v.Array().Items) > 0
	case KindObject:
		return v.Object().Len() > 0
	default:
		return true
	}
}

// Equal implements the == operator. Integers and doubles compare
// numerically; strings byte-wise; arrays, objects, and functions by
// reference identity. Values of otherwise different kinds are unequal, and
// NaN is unequal to everything including itself.
func (v Value) Equal(other Value) bool {
	if isNumeric(v) && isNumeric(other) {
		if v.kind == KindInt && other.kind == KindInt {
			return v.Int() == other.Int()
		}
		a, b := v.Double(), other.Double()
		if math.IsNaN(a) || math.IsNaN(b) {
			return false
		}
		return a == b
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool() == other.Bool()
	case KindString:
		return v.Str() == other.Str()
	default:
		// Reference types compare by identity.
		return v.data == other.data
	}
}

func isNumeric(v Value) bool {
	return v.kind == KindInt || v.kind == KindDouble
}
