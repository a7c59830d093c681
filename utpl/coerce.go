package utpl

import (
	"math"
	"strconv"
)

// toNumber coerces a value for arithmetic. The result is always KindInt or
// KindDouble; coercion failures yield NaN, never an error.
func toNumber(v Value) Value {
	switch v.kind {
	case KindInt, KindDouble:
		return v
	case KindNull:
		return NewInt(0)
	case KindBool:
		if v.data.(bool) {
			return NewInt(1)
		}
		return NewInt(0)
	case KindString:
		return parseNumericPrefix(v.data.(string))
	default:
		return NewDouble(math.NaN())
	}
}

// parseNumericPrefix parses the longest leading numeric token of s: optional
// sign, then a decimal, hexadecimal (0x), or octal (leading 0) integer or a
// floating form with optional fraction and exponent. A string with no valid
// leading numeric token parses to NaN.
func parseNumericPrefix(s string) Value {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}

	negative := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		negative = s[i] == '-'
		i++
	}

	if i >= len(s) || !isDigitByte(s[i]) {
		return NewDouble(math.NaN())
	}

	// Hexadecimal.
	if s[i] == '0' && i+2 < len(s) && (s[i+1] == 'x' || s[i+1] == 'X') && isHexByte(s[i+2]) {
		j := i + 2
		for j < len(s) && isHexByte(s[j]) {
			j++
		}
		val, err := strconv.ParseUint(s[i+2:j], 16, 64)
		if err != nil {
			return NewDouble(math.NaN())
		}
		n := int64(val)
		if negative {
			n = -n
		}
		return NewInt(n)
	}

	start := i
	for i < len(s) && isDigitByte(s[i]) {
		i++
	}
	intEnd := i

	isDouble := false
	if i < len(s) && s[i] == '.' {
		isDouble = true
		i++
		for i < len(s) && isDigitByte(s[i]) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigitByte(s[j]) {
			isDouble = true
			for j < len(s) && isDigitByte(s[j]) {
				j++
			}
			i = j
		}
	}

	if isDouble {
		f, err := strconv.ParseFloat(s[start:i], 64)
		if err != nil {
			return NewDouble(math.NaN())
		}
		if negative {
			f = -f
		}
		return NewDouble(f)
	}

	digits := s[start:intEnd]
	if len(digits) > 1 && digits[0] == '0' {
		// Octal: consume the leading octal digit run only.
		j := 1
		for j < len(digits) && digits[j] >= '0' && digits[j] <= '7' {
			j++
		}
		val, err := strconv.ParseInt(digits[:j], 8, 64)
		if err != nil {
			return NewDouble(math.NaN())
		}
		if negative {
			val = -val
		}
		return NewInt(val)
	}

	val, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		// Out of int64 range; fall back to double precision.
		f, ferr := strconv.ParseFloat(digits, 64)
		if ferr != nil {
			return NewDouble(math.NaN())
		}
		if negative {
			f = -f
		}
		return NewDouble(f)
	}
	if negative {
		val = -val
	}
	return NewInt(val)
}

// toInt64 truncates a value toward zero and converts it to a signed 64-bit
// integer, the operand form of every bitwise operator.
func toInt64(v Value) int64 {
	num := toNumber(v)
	if num.kind == KindInt {
		return num.data.(int64)
	}
	f := num.data.(float64)
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

func isDigitByte(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexByte(c byte) bool {
	return isDigitByte(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
