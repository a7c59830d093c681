package utpl

import (
	"math"
)

func (exec *Execution) evalUnaryExpr(e *UnaryExpr, env *Env) (Value, error) {
	right, err := exec.evalExpression(e.Right, env)
	if err != nil {
		return NewNull(), err
	}

	switch e.Operator {
	case tokenBang:
		return NewBool(!right.Truthy()), nil
	case tokenTilde:
		return NewInt(^toInt64(right)), nil
	case tokenPlus:
		return toNumber(right), nil
	case tokenMinus:
		return negateNumber(toNumber(right)), nil
	default:
		return NewNull(), exec.errorAt(e.Pos(), "unsupported unary operator %s", e.Operator)
	}
}

func negateNumber(num Value) Value {
	if num.Kind() == KindInt {
		n := num.Int()
		if n == math.MinInt64 {
			return NewDouble(-float64(n))
		}
		return NewInt(-n)
	}
	return NewDouble(-num.Double())
}

func (exec *Execution) evalBinaryExpr(e *BinaryExpr, env *Env) (Value, error) {
	// Logical operators short-circuit and yield the deciding operand.
	switch e.Operator {
	case tokenAnd:
		left, err := exec.evalExpression(e.Left, env)
		if err != nil {
			return NewNull(), err
		}
		if !left.Truthy() {
			return left, nil
		}
		return exec.evalExpression(e.Right, env)
	case tokenOr:
		left, err := exec.evalExpression(e.Left, env)
		if err != nil {
			return NewNull(), err
		}
		if left.Truthy() {
			return left, nil
		}
		return exec.evalExpression(e.Right, env)
	}

	left, err := exec.evalExpression(e.Left, env)
	if err != nil {
		return NewNull(), err
	}
	right, err := exec.evalExpression(e.Right, env)
	if err != nil {
		return NewNull(), err
	}

	return applyBinaryOp(e.Operator, left, right), nil
}

// applyBinaryOp implements every non-logical binary operator. All coercion
// failures resolve to NaN; binary operators never error.
func applyBinaryOp(op TokenType, left, right Value) Value {
	switch op {
	case tokenPlus:
		return addValues(left, right)
	case tokenMinus:
		return arithmetic(left, right, subInts, func(a, b float64) float64 { return a - b })
	case tokenAsterisk:
		return arithmetic(left, right, mulInts, func(a, b float64) float64 { return a * b })
	case tokenSlash:
		return divideValues(left, right)
	case tokenPercent:
		return moduloValues(left, right)
	case tokenLShift:
		return NewInt(toInt64(left) << (uint64(toInt64(right)) & 63))
	case tokenRShift:
		return NewInt(toInt64(left) >> (uint64(toInt64(right)) & 63))
	case tokenAmp:
		return NewInt(toInt64(left) & toInt64(right))
	case tokenCaret:
		return NewInt(toInt64(left) ^ toInt64(right))
	case tokenPipe:
		return NewInt(toInt64(left) | toInt64(right))
	case tokenEQ:
		return NewBool(left.Equal(right))
	case tokenNotEQ:
		return NewBool(!left.Equal(right))
	case tokenLT:
		return compareValues(left, right, func(c int) bool { return c < 0 })
	case tokenLTE:
		return compareValues(left, right, func(c int) bool { return c <= 0 })
	case tokenGT:
		return compareValues(left, right, func(c int) bool { return c > 0 })
	case tokenGTE:
		return compareValues(left, right, func(c int) bool { return c >= 0 })
	default:
		return NewNull()
	}
}

// addValues: if either operand is a string, both are stringified and
// concatenated; otherwise both coerce to number and sum, staying int64 only
// when both operands were integral and the sum does not overflow.
func addValues(left, right Value) Value {
	if left.Kind() == KindString || right.Kind() == KindString {
		return NewString(left.String() + right.String())
	}
	return arithmetic(left, right, addInts, func(a, b float64) float64 { return a + b })
}

func addInts(a, b int64) (int64, bool) {
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		return 0, false
	}
	return sum, true
}

func subInts(a, b int64) (int64, bool) {
	diff := a - b
	if (a >= 0 && b < 0 && diff < 0) || (a < 0 && b > 0 && diff >= 0) {
		return 0, false
	}
	return diff, true
}

func mulInts(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	prod := a * b
	if prod/a != b {
		return 0, false
	}
	return prod, true
}

// arithmetic coerces both operands and applies the integer op when both are
// integral, promoting to double on overflow or when either side is a double.
func arithmetic(left, right Value, intOp func(a, b int64) (int64, bool), floatOp func(a, b float64) float64) Value {
	a, b := toNumber(left), toNumber(right)
	if a.Kind() == KindInt && b.Kind() == KindInt {
		if result, ok := intOp(a.Int(), b.Int()); ok {
			return NewInt(result)
		}
		return NewDouble(floatOp(a.Double(), b.Double()))
	}
	return NewDouble(floatOp(a.Double(), b.Double()))
}

// divideValues keeps integer division for integral operands; division by
// integer zero promotes to double, so 1/0 is Infinity and 0/0 is NaN rather
// than a trap.
func divideValues(left, right Value) Value {
	a, b := toNumber(left), toNumber(right)
	if a.Kind() == KindInt && b.Kind() == KindInt {
		if b.Int() == 0 {
			return NewDouble(a.Double() / b.Double())
		}
		return NewInt(a.Int() / b.Int())
	}
	return NewDouble(a.Double() / b.Double())
}

func moduloValues(left, right Value) Value {
	a, b := toNumber(left), toNumber(right)
	if a.Kind() == KindInt && b.Kind() == KindInt {
		if b.Int() == 0 {
			return NewDouble(math.NaN())
		}
		return NewInt(a.Int() % b.Int())
	}
	return NewDouble(math.Mod(a.Double(), b.Double()))
}

// compareValues orders two values: byte-wise when both are strings,
// numerically otherwise. Comparisons involving NaN are false.
func compareValues(left, right Value, accept func(c int) bool) Value {
	if left.Kind() == KindString && right.Kind() == KindString {
		a, b := left.Str(), right.Str()
		switch {
		case a < b:
			return NewBool(accept(-1))
		case a > b:
			return NewBool(accept(1))
		default:
			return NewBool(accept(0))
		}
	}

	a, b := toNumber(left), toNumber(right)
	if a.Kind() == KindInt && b.Kind() == KindInt {
		switch {
		case a.Int() < b.Int():
			return NewBool(accept(-1))
		case a.Int() > b.Int():
			return NewBool(accept(1))
		default:
			return NewBool(accept(0))
		}
	}

	x, y := a.Double(), b.Double()
	if math.IsNaN(x) || math.IsNaN(y) {
		return NewBool(false)
	}
	switch {
	case x < y:
		return NewBool(accept(-1))
	case x > y:
		return NewBool(accept(1))
	default:
		return NewBool(accept(0))
	}
}
