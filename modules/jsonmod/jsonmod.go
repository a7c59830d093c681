// Package jsonmod exposes strict JSON parsing and serialization to templates
// as the json module.
//
// Like yamlmod it uses the soft-failure style: json.parse and json.stringify
// return null on bad input and record the failure, and json.error() returns
// and clears the last recorded message.
package jsonmod

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aparcar/utpl/utpl"
)

// maxPayloadBytes caps both parse input and stringify output, keeping a
// single template from holding pathological documents.
const maxPayloadBytes = 8 << 20

type Module struct{}

func New() *Module { return &Module{} }

func (m *Module) ModuleName() string { return "json" }

func (m *Module) Values() map[string]utpl.NativeFunc {
	return utpl.WithLastError(map[string]utpl.NativeFunc{
		"parse":     parse,
		"stringify": stringify,
	})
}

func parse(call *utpl.CallContext) (utpl.Value, error) {
	arg := call.Arg(0)
	if arg.Kind() != utpl.KindString {
		return utpl.NewNull(), fmt.Errorf("json.parse expects a string, got %s", arg.Kind())
	}
	raw := arg.Str()
	if len(raw) > maxPayloadBytes {
		return utpl.NewNull(), fmt.Errorf("json.parse: input exceeds %d bytes", maxPayloadBytes)
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	val, err := decodeValue(dec)
	if err != nil {
		return utpl.NewNull(), fmt.Errorf("json.parse: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return utpl.NewNull(), fmt.Errorf("json.parse: trailing data after document")
	}
	return val, nil
}

func stringify(call *utpl.CallContext) (utpl.Value, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, call.Arg(0), make(map[any]struct{})); err != nil {
		return utpl.NewNull(), err
	}
	if buf.Len() > maxPayloadBytes {
		return utpl.NewNull(), fmt.Errorf("json.stringify: output exceeds %d bytes", maxPayloadBytes)
	}
	return utpl.NewString(buf.String()), nil
}

// decodeValue consumes one value from the token stream. Walking tokens
// instead of unmarshaling into a map keeps object key order, which the
// ordered object type preserves on the template side.
func decodeValue(dec *json.Decoder) (utpl.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return utpl.NewNull(), err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (utpl.Value, error) {
	switch node := tok.(type) {
	case nil:
		return utpl.NewNull(), nil
	case bool:
		return utpl.NewBool(node), nil
	case string:
		return utpl.NewString(node), nil
	case json.Number:
		return decodeNumber(node), nil
	case json.Delim:
		switch node {
		case '[':
			var items []utpl.Value
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return utpl.NewNull(), err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return utpl.NewNull(), err
			}
			return utpl.NewArray(items), nil
		case '{':
			var entries []utpl.ObjectEntry
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return utpl.NewNull(), err
				}
				key, ok := keyTok.(string)
				if !ok {
					return utpl.NewNull(), fmt.Errorf("object key is not a string")
				}
				val, err := decodeValue(dec)
				if err != nil {
					return utpl.NewNull(), err
				}
				entries = append(entries, utpl.ObjectEntry{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return utpl.NewNull(), err
			}
			return utpl.NewObjectOf(entries...), nil
		}
	}
	return utpl.NewNull(), fmt.Errorf("unexpected token %v", tok)
}

// decodeNumber keeps integral numbers as ints when they fit; everything
// else becomes a double.
func decodeNumber(num json.Number) utpl.Value {
	if !strings.ContainsAny(num.String(), ".eE") {
		if n, err := num.Int64(); err == nil {
			return utpl.NewInt(n)
		}
	}
	f, err := num.Float64()
	if err != nil {
		return utpl.NewNull()
	}
	return utpl.NewDouble(f)
}

// encodeValue writes v as strict JSON. Insertion order of object keys is
// preserved; functions, non-finite numbers, and cyclic containers are
// serialization errors.
func encodeValue(buf *bytes.Buffer, v utpl.Value, seen map[any]struct{}) error {
	switch v.Kind() {
	case utpl.KindNull:
		buf.WriteString("null")
	case utpl.KindBool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case utpl.KindInt:
		buf.WriteString(strconv.FormatInt(v.Int(), 10))
	case utpl.KindDouble:
		f := v.Double()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return fmt.Errorf("json.stringify: cannot serialize non-finite number")
		}
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case utpl.KindString:
		encoded, err := json.Marshal(v.Str())
		if err != nil {
			return fmt.Errorf("json.stringify: %v", err)
		}
		buf.Write(encoded)
	case utpl.KindArray:
		arr := v.Array()
		if _, ok := seen[any(arr)]; ok {
			return fmt.Errorf("json.stringify: cannot serialize cyclic structure")
		}
		seen[any(arr)] = struct{}{}
		defer delete(seen, any(arr))

		buf.WriteByte('[')
		for i, item := range arr.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item, seen); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case utpl.KindObject:
		obj := v.Object()
		if _, ok := seen[any(obj)]; ok {
			return fmt.Errorf("json.stringify: cannot serialize cyclic structure")
		}
		seen[any(obj)] = struct{}{}
		defer delete(seen, any(obj))

		buf.WriteByte('{')
		for i, key := range obj.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodedKey, err := json.Marshal(key)
			if err != nil {
				return fmt.Errorf("json.stringify: %v", err)
			}
			buf.Write(encodedKey)
			buf.WriteByte(':')
			entry, _ := obj.Get(key)
			if err := encodeValue(buf, entry, seen); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("json.stringify: cannot serialize %s value", v.Kind())
	}
	return nil
}
