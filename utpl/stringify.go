package utpl

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// String renders a value for print, string concatenation, and implicit
// string contexts. Containers render as their literal syntax with canonical
// spacing and double-quoted string keys and values, so stringifying a
// JSON-representable value and re-parsing it round-trips.
//
// Null renders as the literal token null here; the {{ }} emit context
// instead suppresses null output entirely (see Execution.emit).
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.data.(string)
	default:
		var sb strings.Builder
		renderValue(&sb, v, make(map[any]struct{}))
		return sb.String()
	}
}

func renderValue(sb *strings.Builder, v Value, seen map[any]struct{}) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		if v.data.(bool) {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.data.(int64), 10))
	case KindDouble:
		sb.WriteString(formatDouble(v.data.(float64)))
	case KindString:
		writeQuoted(sb, v.data.(string))
	case KindArray:
		arr := v.Array()
		if _, ok := seen[any(arr)]; ok {
			// Cyclic back-reference; render as null rather than recursing.
			sb.WriteString("null")
			return
		}
		seen[any(arr)] = struct{}{}
		defer delete(seen, any(arr))

		if len(arr.Items) == 0 {
			sb.WriteString("[ ]")
			return
		}
		sb.WriteString("[ ")
		for i, item := range arr.Items {
			if i > 0 {
				sb.WriteString(", ")
			}
			renderValue(sb, item, seen)
		}
		sb.WriteString(" ]")
	case KindObject:
		obj := v.Object()
		if _, ok := seen[any(obj)]; ok {
			sb.WriteString("null")
			return
		}
		seen[any(obj)] = struct{}{}
		defer delete(seen, any(obj))

		if obj.Len() == 0 {
			sb.WriteString("{ }")
			return
		}
		sb.WriteString("{ ")
		for i, key := range obj.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeQuoted(sb, key)
			sb.WriteString(": ")
			val, _ := obj.Get(key)
			renderValue(sb, val, seen)
		}
		sb.WriteString(" }")
	case KindFunction:
		fn := v.Function()
		fmt.Fprintf(sb, "function %s(%s) { ... }", fn.Name, strings.Join(fn.Params, ", "))
	case KindBuiltin:
		fmt.Fprintf(sb, "function %s(...) { ... }", v.Builtin().Name)
	}
}

// formatDouble renders a double compactly, with the fixed spellings
// Infinity, -Infinity, and NaN for non-finite values.
func formatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return fmt.Sprintf("%.14g", f)
	}
}

// writeQuoted writes s as a double-quoted JSON string. encoding/json is not
// used here: its HTML escaping would change the canonical rendering.
func writeQuoted(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			if r < 0x20 {
				fmt.Fprintf(sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
}
