package utpl

import (
	"context"
	"fmt"
	"io"
)

type callFrame struct {
	Function string
	Pos      Position
}

// Execution is the state of one template render: the scope chain, call
// stack, output writer, and the step/recursion/memory bounds.
type Execution struct {
	engine   *Engine
	template *Template
	ctx      context.Context
	out      io.Writer

	quota        int
	memoryQuota  int
	recursionCap int
	steps        int

	callStack []callFrame
	root      *Env
	loopDepth int
}

var errStepQuotaExceeded = fmt.Errorf("step quota exceeded")

func (exec *Execution) step() error {
	exec.steps++
	if exec.quota > 0 && exec.steps > exec.quota {
		return fmt.Errorf("%w (%d)", errStepQuotaExceeded, exec.quota)
	}
	if exec.memoryQuota > 0 && (exec.steps&63) == 0 {
		if err := exec.checkMemory(); err != nil {
			return err
		}
	}
	if exec.ctx != nil {
		select {
		case <-exec.ctx.Done():
			return exec.ctx.Err()
		default:
		}
	}
	return nil
}

func (exec *Execution) errorAt(pos Position, format string, args ...any) error {
	return exec.newRuntimeError(fmt.Sprintf(format, args...), pos)
}

func (exec *Execution) newRuntimeError(message string, pos Position) error {
	frames := make([]StackFrame, 0, len(exec.callStack)+1)

	if len(exec.callStack) > 0 {
		// The innermost frame carries the error position; each stored frame's
		// Pos is the call site inside the caller, so it belongs to the caller's
		// name in the trace.
		current := exec.callStack[len(exec.callStack)-1]
		frames = append(frames, StackFrame{Function: current.Function, Pos: pos})
		for i := len(exec.callStack) - 1; i >= 0; i-- {
			caller := "<template>"
			if i > 0 {
				caller = exec.callStack[i-1].Function
			}
			frames = append(frames, StackFrame{Function: caller, Pos: exec.callStack[i].Pos})
		}
	} else {
		frames = append(frames, StackFrame{Function: "<template>", Pos: pos})
	}

	codeFrame := ""
	if exec.template != nil {
		codeFrame = formatCodeFrame(exec.template.source, pos)
	}
	return &RuntimeError{Message: message, CodeFrame: codeFrame, Frames: frames}
}

func (exec *Execution) wrapError(err error, pos Position) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*RuntimeError); ok {
		return err
	}
	return exec.newRuntimeError(err.Error(), pos)
}

func (exec *Execution) pushFrame(name string, pos Position) error {
	if len(exec.callStack) >= exec.recursionCap {
		return exec.errorAt(pos, "call stack depth exceeded (%d)", exec.recursionCap)
	}
	exec.callStack = append(exec.callStack, callFrame{Function: name, Pos: pos})
	return nil
}

func (exec *Execution) popFrame() {
	exec.callStack = exec.callStack[:len(exec.callStack)-1]
}

func (exec *Execution) run(prog *Program, env *Env) error {
	for _, stmt := range prog.Statements {
		_, returned, err := exec.evalStatement(stmt, env)
		if err != nil {
			return err
		}
		if returned {
			return exec.errorAt(stmt.Pos(), "return used outside of function")
		}
	}
	return nil
}

func (exec *Execution) evalStatements(stmts []Statement, env *Env) (Value, bool, error) {
	for _, stmt := range stmts {
		val, returned, err := exec.evalStatement(stmt, env)
		if err != nil {
			return NewNull(), false, err
		}
		if returned {
			return val, true, nil
		}
	}
	return NewNull(), false, nil
}

func (exec *Execution) evalStatement(stmt Statement, env *Env) (Value, bool, error) {
	if err := exec.step(); err != nil {
		return NewNull(), false, err
	}

	switch s := stmt.(type) {
	case *TextStmt:
		if err := exec.write(s.Text, s.Pos()); err != nil {
			return NewNull(), false, err
		}
		return NewNull(), false, nil
	case *EmitStmt:
		val, err := exec.evalExpression(s.Expr, env)
		if err != nil {
			return NewNull(), false, err
		}
		return NewNull(), false, exec.emit(val, s.Pos())
	case *ExprStmt:
		_, err := exec.evalExpression(s.Expr, env)
		return NewNull(), false, err
	case *BlockStmt:
		return exec.evalStatements(s.Statements, env)
	case *LocalStmt:
		for _, decl := range s.Decls {
			val := NewNull()
			if decl.Value != nil {
				var err error
				val, err = exec.evalExpression(decl.Value, env)
				if err != nil {
					return NewNull(), false, err
				}
			}
			env.Define(decl.Name, val)
		}
		return NewNull(), false, nil
	case *IfStmt:
		cond, err := exec.evalExpression(s.Condition, env)
		if err != nil {
			return NewNull(), false, err
		}
		if cond.Truthy() {
			return exec.evalStatement(s.Consequent, env)
		}
		if s.Alternate != nil {
			return exec.evalStatement(s.Alternate, env)
		}
		return NewNull(), false, nil
	case *ForStmt:
		return exec.evalForStatement(s, env)
	case *ForInStmt:
		return exec.evalForInStatement(s, env)
	case *FunctionStmt:
		fn := &Function{Name: s.Name, Params: s.Params, Body: s.Body, Env: env}
		env.Define(s.Name, NewFunction(fn))
		return NewNull(), false, nil
	case *ReturnStmt:
		if len(exec.callStack) == 0 {
			return NewNull(), false, exec.errorAt(s.Pos(), "return used outside of function")
		}
		val := NewNull()
		if s.Value != nil {
			var err error
			val, err = exec.evalExpression(s.Value, env)
			if err != nil {
				return NewNull(), false, err
			}
		}
		return val, true, nil
	case *BreakStmt:
		if exec.loopDepth == 0 {
			return NewNull(), false, exec.errorAt(s.Pos(), "break used outside of loop")
		}
		return NewNull(), false, errLoopBreak
	case *ContinueStmt:
		if exec.loopDepth == 0 {
			return NewNull(), false, exec.errorAt(s.Pos(), "continue used outside of loop")
		}
		return NewNull(), false, errLoopContinue
	default:
		return NewNull(), false, exec.errorAt(stmt.Pos(), "unsupported statement")
	}
}

// write copies a literal region to the output verbatim.
func (exec *Execution) write(text string, pos Position) error {
	if _, err := io.WriteString(exec.out, text); err != nil {
		return exec.wrapError(err, pos)
	}
	return nil
}

// emit writes the stringification of an expression-block result. A null
// result produces no output; this deliberately differs from print, which
// renders null as the literal token null.
func (exec *Execution) emit(val Value, pos Position) error {
	if val.IsNull() {
		return nil
	}
	return exec.write(val.String(), pos)
}
