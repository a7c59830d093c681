package yamlmod

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
		{"string", `{{ yaml.parse("value: hello").value }}`, "hello"},
		{"int", `{{ yaml.parse("count: 42").count + 1 }}`, "43"},
		{"double", `{{ yaml.parse("ratio: 1.5").ratio * 2 }}`, "3"},
		{"bool", `{{ yaml.parse("flag: true").flag ? "on" : "off" }}`, "on"},
		{"null member", `{{ type(yaml.parse("empty: null").empty) }}`, ""},
		{"nested list", `{{ yaml.parse("items: [a, b, c]").items[1] }}`, "b"},
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
	out := renderTemplate(t, strings.Join([]string{
		`{% local doc = yaml.parse("charlie: 3\nalpha: 1\nbravo: 2"); %}`,
		`{% for (key in doc): %}{{ key }} {% endfor %}`,
	}, ""))
	if out != "charlie alpha bravo " {
		t.Fatalf("key order not preserved: %q", out)
	}
}

func TestParseFailureSetsError(t *testing.T) {
	out := renderTemplate(t, `{% local doc = yaml.parse("[unclosed"); %}`+
		`{{ doc == null ? "failed" : "parsed" }}:{{ yaml.error() != null ? "set" : "clear" }}`)
	if out != "failed:set" {
		t.Fatalf("expected soft failure with error set, got %q", out)
	}
}

func TestErrorClearsAfterRead(t *testing.T) {
	out := renderTemplate(t, `{% yaml.parse("[unclosed"); yaml.error(); %}`+
		`{{ yaml.error() == null ? "cleared" : "sticky" }}`)
	if out != "cleared" {
		t.Fatalf("expected error slot to clear after read, got %q", out)
	}
}

func TestErrorClearsAfterSuccess(t *testing.T) {
	out := renderTemplate(t, `{% yaml.parse("[unclosed"); yaml.parse("ok: 1"); %}`+
		`{{ yaml.error() == null ? "cleared" : "sticky" }}`)
	if out != "cleared" {
		t.Fatalf("expected success to clear the error slot, got %q", out)
	}
}

func TestStringifyPreservesOrder(t *testing.T) {
	out := renderTemplate(t, `{{ yaml.stringify({ zulu: 1, alpha: [ 2, 3 ] }) }}`)
	if !strings.HasPrefix(out, "zulu: 1\nalpha:") {
		t.Fatalf("stringify did not keep insertion order: %q", out)
	}
}

func TestStringifyRejectsCycles(t *testing.T) {
	out := renderTemplate(t, `{% local a = []; push(a, a); yaml.stringify(a); %}`+
		`{{ yaml.error() != null ? "cycle" : "ok" }}`)
	if out != "cycle" {
		t.Fatalf("expected cycle rejection, got %q", out)
	}
}

func TestRoundTrip(t *testing.T) {
	out := renderTemplate(t, `{% local doc = yaml.parse(yaml.stringify({ name: "eth0", mtu: 1500 })); %}`+
		`{{ doc.name }}/{{ doc.mtu }}`)
	if out != "eth0/1500" {
		t.Fatalf("round trip mismatch: %q", out)
	}
}

func TestParsePlainBooleanSpellings(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"yes", `{{ type(yaml.parse("v: yes").v) }}={{ yaml.parse("v: yes").v ? 1 : 0 }}`, "bool=1"},
		{"on", `{{ type(yaml.parse("v: on").v) }}={{ yaml.parse("v: on").v ? 1 : 0 }}`, "bool=1"},
		{"no", `{{ type(yaml.parse("v: no").v) }}={{ yaml.parse("v: no").v ? 1 : 0 }}`, "bool=0"},
		{"off", `{{ type(yaml.parse("v: off").v) }}={{ yaml.parse("v: off").v ? 1 : 0 }}`, "bool=0"},
		{"mixed case", `{{ type(yaml.parse("v: Yes").v) }}={{ yaml.parse("v: OFF").v ? 1 : 0 }}`, "bool=0"},
		{"quoted yes stays string", `{{ type(yaml.parse("v: \"yes\"").v) }}`, "string"},
		{"single quoted no stays string", `{{ type(yaml.parse("v: 'no'").v) }}`, "string"},
		{"tilde is null", `{{ type(yaml.parse("v: ~").v) }}`, ""},
		{"inf", `{{ yaml.parse("v: .inf").v }}`, "Infinity"},
		{"hex int", `{{ yaml.parse("v: 0x1F").v }}`, "31"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := renderTemplate(t, tc.template); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseAliasesAndBlockScalars(t *testing.T) {
	out := renderTemplate(t, `{% local doc = yaml.parse("base: &b [1, 2]\ncopy: *b\ntext: |\n  yes\n"); %}`+
		`{{ doc.copy[1] }}/{{ type(doc.text) }}`)
	if out != "2/string" {
		t.Fatalf("got %q", out)
	}
}
