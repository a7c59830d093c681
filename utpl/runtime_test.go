package utpl

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func renderErr(t *testing.T, engine *Engine, source string) error {
	t.Helper()
	tmpl, err := engine.Compile(source)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	_, err = tmpl.RenderString(context.Background(), RenderOptions{})
	if err == nil {
		t.Fatalf("expected runtime error")
	}
	return err
}

func TestStepQuotaExceeded(t *testing.T) {
	engine := MustNewEngine(Config{StepQuota: 200})
	err := renderErr(t, engine, `{% for (;;) ; %}`)
	if !strings.Contains(err.Error(), "step quota exceeded") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecursionLimitExceeded(t *testing.T) {
	engine := MustNewEngine(Config{RecursionLimit: 3})
	err := renderErr(t, engine, `{% function recurse(n) { return recurse(n + 1); } recurse(0); %}`)

	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("expected RuntimeError, got %T", err)
	}
	if !strings.Contains(err.Error(), "call stack depth exceeded (3)") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecursionWithinLimit(t *testing.T) {
	engine := MustNewEngine(Config{RecursionLimit: 40})
	tmpl, err := engine.Compile(`{% function down(n) { return n <= 0 ? "done" : down(n - 1); } %}{{ down(30) }}`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	out, err := tmpl.RenderString(context.Background(), RenderOptions{})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if out != "done" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestMemoryQuotaExceeded(t *testing.T) {
	engine := MustNewEngine(Config{MemoryQuotaBytes: 4096})
	err := renderErr(t, engine, `{% a = []; for (;;) push(a, "xxxxxxxxxxxxxxxx" + length(a)); %}`)
	if !strings.Contains(err.Error(), "memory quota exceeded") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestControlFlowOutsideContext(t *testing.T) {
	engine := MustNewEngine(Config{})
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"break", `{% break; %}`, "break used outside of loop"},
		{"continue", `{% continue; %}`, "continue used outside of loop"},
		{"return", `{% return 1; %}`, "return used outside of function"},
		{"break in function called from loop", `{% function f() { break; } for (local i in [ 1 ]) f(); %}`, "break used outside of loop"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := renderErr(t, engine, tc.source)
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %v, want substring %q", err, tc.want)
			}
		})
	}
}

func TestNotCallable(t *testing.T) {
	engine := MustNewEngine(Config{})
	err := renderErr(t, engine, `{% x = 5; x(); %}`)
	if !strings.Contains(err.Error(), "int value is not callable") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAssignToNonObjectProperty(t *testing.T) {
	engine := MustNewEngine(Config{})
	err := renderErr(t, engine, `{% x = 5; x.field = 1; %}`)
	if !strings.Contains(err.Error(), "cannot assign to property of int value") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRuntimeErrorCarriesStack(t *testing.T) {
	engine := MustNewEngine(Config{})
	err := renderErr(t, engine, `{% function inner() { missing(); }
function outer() { inner(); }
outer(); %}`)

	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("expected RuntimeError, got %T", err)
	}

	msg := err.Error()
	innerAt := strings.Index(msg, "at inner")
	outerAt := strings.Index(msg, "at outer")
	if innerAt < 0 || outerAt < 0 {
		t.Fatalf("stack frames missing from error:\n%s", msg)
	}
	if innerAt > outerAt {
		t.Fatalf("frames not innermost-first:\n%s", msg)
	}
	if !strings.Contains(msg, "-->") {
		t.Fatalf("code frame excerpt missing:\n%s", msg)
	}
}

func TestTopLevelErrorNamesTemplate(t *testing.T) {
	engine := MustNewEngine(Config{})
	err := renderErr(t, engine, `{% x = 1; x(); %}`)
	if !strings.Contains(err.Error(), "at <template>") {
		t.Fatalf("expected top-level frame, got: %v", err)
	}
}

func TestContextCancellationStopsRender(t *testing.T) {
	engine := MustNewEngine(Config{StepQuota: 1 << 30})
	tmpl, err := engine.Compile(`{% for (;;) ; %}`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tmpl.RenderString(ctx, RenderOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPartialOutputRetainedOnError(t *testing.T) {
	engine := MustNewEngine(Config{})
	tmpl, err := engine.Compile(`before {{ 1 }} {% x = null; x(); %} after`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	out, err := tmpl.RenderString(context.Background(), RenderOptions{})
	if err == nil {
		t.Fatalf("expected runtime error")
	}
	if out != "before 1 " {
		t.Fatalf("partial output mismatch: %q", out)
	}
}

func TestLoopControlDoesNotEscapeCalls(t *testing.T) {
	engine := MustNewEngine(Config{})
	tmpl, err := engine.Compile(`{% function noop() { for (local i in [ 1, 2 ]) break; return "ok"; }
for (local x in [ 1, 2 ]) print(noop()); %}`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	out, err := tmpl.RenderString(context.Background(), RenderOptions{})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if out != "okok" {
		t.Fatalf("unexpected output: %q", out)
	}
}
