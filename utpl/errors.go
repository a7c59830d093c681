package utpl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError reports a lexical or syntax problem with its source position.
// Any syntax error aborts the whole compile unit; no partial AST is ever
// evaluated.
type SyntaxError struct {
	Pos     Position
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// StackFrame is one entry of a runtime error's call stack.
type StackFrame struct {
	Function string
	Pos      Position
}

// RuntimeError aborts evaluation of the current template. Output emitted
// before the error is retained by the caller's writer.
type RuntimeError struct {
	Message   string
	CodeFrame string
	Frames    []StackFrame
}

func (re *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(re.Message)
	if re.CodeFrame != "" {
		b.WriteString("\n")
		b.WriteString(re.CodeFrame)
	}
	for _, frame := range re.Frames {
		if frame.Pos.Line > 0 {
			fmt.Fprintf(&b, "\n  at %s (%d:%d)", frame.Function, frame.Pos.Line, frame.Pos.Column)
		} else {
			fmt.Fprintf(&b, "\n  at %s", frame.Function)
		}
	}
	return b.String()
}

// Loop and return control flow travels as sentinel errors internal to the
// evaluator; they never escape Render.
var (
	errLoopBreak    = errors.New("loop break")
	errLoopContinue = errors.New("loop continue")
)

// formatCodeFrame excerpts the offending template line with a caret under
// the error column.
func formatCodeFrame(source string, pos Position) string {
	if source == "" || pos.Line <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if pos.Line > len(lines) {
		return ""
	}

	lineText := lines[pos.Line-1]
	lineRunes := []rune(lineText)

	column := pos.Column
	if column <= 0 {
		column = 1
	}
	if column > len(lineRunes)+1 {
		column = len(lineRunes) + 1
	}

	lineLabel := strconv.Itoa(pos.Line)
	gutterPad := strings.Repeat(" ", len(lineLabel))
	caretPad := strings.Repeat(" ", column-1)

	return fmt.Sprintf(
		"  --> line %d, column %d\n %s | %s\n %s | %s^",
		pos.Line,
		column,
		lineLabel,
		lineText,
		gutterPad,
		caretPad,
	)
}
