package utpl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Config controls template execution bounds.
type Config struct {
	StepQuota        int
	MemoryQuotaBytes int
	RecursionLimit   int
}

// Engine compiles templates and executes them with deterministic limits.
// Registered builtins and module providers are visible to every template the
// engine renders.
type Engine struct {
	config   Config
	builtins map[string]Value
}

// NewEngine constructs an Engine with sane defaults and registers the core
// builtins.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.StepQuota <= 0 {
		cfg.StepQuota = 100000
	}
	if cfg.MemoryQuotaBytes <= 0 {
		cfg.MemoryQuotaBytes = 256 * 1024
	}
	if cfg.RecursionLimit <= 0 {
		cfg.RecursionLimit = 64
	}

	engine := &Engine{
		config:   cfg,
		builtins: make(map[string]Value),
	}
	registerCoreBuiltins(engine)
	return engine, nil
}

// MustNewEngine constructs an Engine or panics if the config is invalid.
func MustNewEngine(cfg Config) *Engine {
	engine, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return engine
}

// RegisterBuiltin registers a callable global available to templates,
// replacing any previous binding of the same name.
func (e *Engine) RegisterBuiltin(name string, fn NativeFunc) {
	e.builtins[name] = NewBuiltin(name, fn)
}

// RegisterProvider binds a module provider's object as a global named after
// the module.
func (e *Engine) RegisterProvider(p Provider) error {
	name := p.ModuleName()
	if name == "" {
		return errors.New("module name must be non-empty")
	}
	obj, err := moduleObject(p)
	if err != nil {
		return err
	}
	e.builtins[name] = obj
	return nil
}

// Builtins returns a copy of the registered global map.
func (e *Engine) Builtins() map[string]Value {
	out := make(map[string]Value, len(e.builtins))
	for name, val := range e.builtins {
		out[name] = val
	}
	return out
}

// ConfigSummary provides a human-readable description of the engine limits.
func (e *Engine) ConfigSummary() string {
	return fmt.Sprintf("steps=%d memory=%dB recursion=%d", e.config.StepQuota, e.config.MemoryQuotaBytes, e.config.RecursionLimit)
}

// Template is a compiled template, reusable across renders and safe for
// concurrent rendering: evaluation state lives in the per-render Execution,
// and the one piece of engine-level mutable state, a module's WithLastError
// slot, is synchronized (concurrent renders then share that slot, so a
// message recorded by one render may be read by another).
type Template struct {
	engine *Engine
	prog   *Program
	source string
}

// RenderOptions carries per-render inputs.
type RenderOptions struct {
	// Globals are bound in the root scope before execution, shadowing any
	// engine builtin of the same name.
	Globals map[string]Value
}

// Compile scans, lexes, and parses source. A malformed template compiles to
// nothing: any syntax error fails the whole compilation and no partial
// template is returned.
func (e *Engine) Compile(source string) (*Template, error) {
	segs, err := newScanner(source).scan()
	if err != nil {
		return nil, err
	}
	tokens, err := lexSegments(segs)
	if err != nil {
		return nil, err
	}
	prog, parseErrors := newParser(tokens).parseProgram()
	if len(parseErrors) > 0 {
		return nil, combineErrors(parseErrors)
	}
	return &Template{engine: e, prog: prog, source: source}, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	msg := ""
	for _, err := range errs {
		if msg != "" {
			msg += "\n\n"
		}
		msg += err.Error()
	}
	return errors.New(msg)
}

// Render executes the template, writing output to out as it is produced.
// Output already written before a runtime error stays written; callers that
// need all-or-nothing output should render into a buffer.
func (t *Template) Render(ctx context.Context, out io.Writer, opts RenderOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	root := newEnv(nil)
	for name, val := range t.engine.builtins {
		root.Define(name, val)
	}
	for name, val := range opts.Globals {
		root.Define(name, val)
	}

	exec := &Execution{
		engine:       t.engine,
		template:     t,
		ctx:          ctx,
		out:          out,
		quota:        t.engine.config.StepQuota,
		memoryQuota:  t.engine.config.MemoryQuotaBytes,
		recursionCap: t.engine.config.RecursionLimit,
		callStack:    make([]callFrame, 0, 8),
		root:         root,
	}

	if err := exec.checkMemory(); err != nil {
		return err
	}
	return exec.run(t.prog, root)
}

// RenderString renders into a string. On error the partial output produced
// before the failure is returned alongside the error.
func (t *Template) RenderString(ctx context.Context, opts RenderOptions) (string, error) {
	var sb strings.Builder
	err := t.Render(ctx, &sb, opts)
	return sb.String(), err
}
