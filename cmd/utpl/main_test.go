package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aparcar/utpl/utpl"
)

func writeTemplate(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.ut")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return path
}

func TestRunCommandCheckOnly(t *testing.T) {
	path := writeTemplate(t, `{% for (i in [1, 2, 3]): %}{{ i }}{% endfor %}`)

	cmd := &runCmd{Check: true, Template: path}
	if err := cmd.Run(&cli{}); err != nil {
		t.Fatalf("check failed: %v", err)
	}
}

func TestRunCommandCompileError(t *testing.T) {
	path := writeTemplate(t, `{% if (x): %}`)

	cmd := &runCmd{Check: true, Template: path}
	err := cmd.Run(&cli{})
	if err == nil {
		t.Fatalf("expected compile error for unterminated block")
	}
	if !strings.Contains(err.Error(), "compile failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunCommandRendersToFile(t *testing.T) {
	path := writeTemplate(t, `Hello, {{ name }}! You have {{ count }} messages.`)
	outPath := filepath.Join(t.TempDir(), "out.txt")

	cmd := &runCmd{
		Template: path,
		Output:   outPath,
		Global:   []string{"name=world", "count=3"},
	}
	if err := cmd.Run(&cli{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if got := string(out); got != "Hello, world! You have 3 messages." {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestParseGlobalsTypes(t *testing.T) {
	globals, err := parseGlobals([]string{"n=42", "pi=3.14", "on=true", "off=false", "nothing=null", "s=plain"})
	if err != nil {
		t.Fatalf("parseGlobals: %v", err)
	}

	tests := []struct {
		name string
		kind utpl.ValueKind
	}{
		{"n", utpl.KindInt},
		{"pi", utpl.KindDouble},
		{"on", utpl.KindBool},
		{"off", utpl.KindBool},
		{"nothing", utpl.KindNull},
		{"s", utpl.KindString},
	}
	for _, tc := range tests {
		if got := globals[tc.name].Kind(); got != tc.kind {
			t.Errorf("global %s: got kind %v, want %v", tc.name, got, tc.kind)
		}
	}
}

func TestParseGlobalsRejectsMalformed(t *testing.T) {
	if _, err := parseGlobals([]string{"novalue"}); err == nil {
		t.Fatalf("expected error for flag without =")
	}
	if _, err := parseGlobals([]string{"=5"}); err == nil {
		t.Fatalf("expected error for empty name")
	}
}
