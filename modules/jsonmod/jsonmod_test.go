package jsonmod

import (
	"context"
	"strings"
	"testing"

	"github.com/aparcar/utpl/utpl"
)

func renderTemplate(t *testing.T, source string) string {
	t.Helper()

	engine, err := utpl.NewEngine(utpl.Config{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := engine.RegisterProvider(New()); err != nil {
		t.Fatalf("RegisterProvider: %v", err)
	}
	tmpl, err := engine.Compile(source)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out, err := tmpl.RenderString(context.Background(), utpl.RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return out
}

func TestParseScalars(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"string", `{{ json.parse("\"hi\"") }}`, "hi"},
		{"int stays int", `{{ type(json.parse("42")) }}`, "int"},
		{"int arithmetic", `{{ json.parse("41") + 1 }}`, "42"},
		{"float", `{{ type(json.parse("1.5")) }}`, "double"},
		{"exponent", `{{ json.parse("1e3") }}`, "1000"},
		{"big int overflows to double", `{{ type(json.parse("99999999999999999999")) }}`, "double"},
		{"bool", `{{ json.parse("true") ? "on" : "off" }}`, "on"},
		{"null", `{{ type(json.parse("null")) }}`, ""},
		{"array index", `{{ json.parse("[10, 20, 30]")[1] }}`, "20"},
		{"nested member", `{{ json.parse("{\"a\": {\"b\": 7}}").a.b }}`, "7"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := renderTemplate(t, tc.template); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParsePreservesKeyOrder(t *testing.T) {
	out := renderTemplate(t,
		`{% local doc = json.parse("{\"charlie\": 3, \"alpha\": 1, \"bravo\": 2}"); `+
			`for (key in doc) print(key, " "); %}`)
	if out != "charlie alpha bravo " {
		t.Fatalf("key order not preserved: %q", out)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"invalid document", `{{ json.parse("{nope") }}{{ json.error() }}`, "json.parse"},
		{"trailing data", `{{ json.parse("1 2") }}{{ json.error() }}`, "json.parse: trailing data after document"},
		{"wrong argument type", `{{ json.parse(42) }}{{ json.error() }}`, "json.parse expects a string, got int"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := renderTemplate(t, tc.template)
			if !strings.Contains(got, tc.want) {
				t.Fatalf("got %q, want substring %q", got, tc.want)
			}
		})
	}
}

func TestErrorClearsAfterRead(t *testing.T) {
	out := renderTemplate(t, `{{ json.parse("{") }}[{{ type(json.error()) }}][{{ type(json.error()) }}]`)
	if out != "[string][]" {
		t.Fatalf("error slot did not clear: %q", out)
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"scalars", `{{ json.stringify([ null, true, 3, 1.5, "x" ]) }}`, `[null,true,3,1.5,"x"]`},
		{"object order", `{{ json.stringify({ "b": 1, "a": 2 }) }}`, `{"b":1,"a":2}`},
		{"string escaping", `{{ json.stringify("a\"b") }}`, `"a\"b"`},
		{"empty containers", `{{ json.stringify([ ]) }}{{ json.stringify({ }) }}`, `[]{}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := renderTemplate(t, tc.template); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStringifyRejectsUnserializable(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"function", `{% json.stringify(function() 1); %}{{ json.error() }}`, "cannot serialize function value"},
		{"non-finite", `{% json.stringify(1.0 / 0); %}{{ json.error() }}`, "cannot serialize non-finite number"},
		{"cycle", `{% local a = [ 1 ]; push(a, a); json.stringify(a); %}{{ json.error() }}`, "cannot serialize cyclic structure"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := renderTemplate(t, tc.template)
			if !strings.Contains(got, tc.want) {
				t.Fatalf("got %q, want substring %q", got, tc.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	out := renderTemplate(t,
		`{{ json.stringify(json.parse("{\"servers\": [{\"host\": \"a\", \"port\": 80}]}")) }}`)
	if out != `{"servers":[{"host":"a","port":80}]}` {
		t.Fatalf("round trip changed document: %q", out)
	}
}
