package utpl

import (
	"strings"
	"testing"
)

func parseSource(t *testing.T, src string) *Program {
	t.Helper()
	segs, err := newScanner(src).scan()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	toks, err := lexSegments(segs)
	if err != nil {
		t.Fatalf("lex failed: %v", err)
	}
	prog, errs := newParser(toks).parseProgram()
	if len(errs) > 0 {
		t.Fatalf("parse failed: %v", errs)
	}
	return prog
}

func parseExpr(t *testing.T, code string) Expression {
	t.Helper()
	prog := parseSource(t, "{% "+code+"; %}")
	if len(prog.Statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(prog.Statements))
	}
	stmt, ok := prog.Statements[0].(*ExprStmt)
	if !ok {
		t.Fatalf("expected expression statement, got %T", prog.Statements[0])
	}
	return stmt.Expr
}

func TestParsePrecedence(t *testing.T) {
	// a + b * c groups the product under the sum.
	expr := parseExpr(t, "a + b * c")
	sum, ok := expr.(*BinaryExpr)
	if !ok || sum.Operator != tokenPlus {
		t.Fatalf("expected + at root, got %#v", expr)
	}
	product, ok := sum.Right.(*BinaryExpr)
	if !ok || product.Operator != tokenAsterisk {
		t.Fatalf("expected * on right, got %#v", sum.Right)
	}
}

func TestParseComparisonBindsTighterThanLogic(t *testing.T) {
	expr := parseExpr(t, "a < b && c == d")
	and, ok := expr.(*BinaryExpr)
	if !ok || and.Operator != tokenAnd {
		t.Fatalf("expected && at root, got %#v", expr)
	}
	if left, ok := and.Left.(*BinaryExpr); !ok || left.Operator != tokenLT {
		t.Fatalf("expected < on left, got %#v", and.Left)
	}
	if right, ok := and.Right.(*BinaryExpr); !ok || right.Operator != tokenEQ {
		t.Fatalf("expected == on right, got %#v", and.Right)
	}
}

func TestParseShiftBindsTighterThanComparison(t *testing.T) {
	expr := parseExpr(t, "a << 1 < b")
	cmp, ok := expr.(*BinaryExpr)
	if !ok || cmp.Operator != tokenLT {
		t.Fatalf("expected < at root, got %#v", expr)
	}
	if shift, ok := cmp.Left.(*BinaryExpr); !ok || shift.Operator != tokenLShift {
		t.Fatalf("expected << on left, got %#v", cmp.Left)
	}
}

func TestParseAssignmentRightAssociative(t *testing.T) {
	expr := parseExpr(t, "a = b = 1")
	outer, ok := expr.(*AssignExpr)
	if !ok {
		t.Fatalf("expected assignment, got %#v", expr)
	}
	if _, ok := outer.Value.(*AssignExpr); !ok {
		t.Fatalf("expected nested assignment on right, got %#v", outer.Value)
	}
}

func TestParseCompoundAssignOps(t *testing.T) {
	tests := []struct {
		code string
		op   TokenType
	}{
		{"a += 1", tokenPlus},
		{"a -= 1", tokenMinus},
		{"a *= 1", tokenAsterisk},
		{"a /= 1", tokenSlash},
		{"a %= 1", tokenPercent},
		{"a <<= 1", tokenLShift},
		{"a >>= 1", tokenRShift},
		{"a &= 1", tokenAmp},
		{"a ^= 1", tokenCaret},
		{"a |= 1", tokenPipe},
		{"a = 1", tokenAssign},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			assign, ok := parseExpr(t, tc.code).(*AssignExpr)
			if !ok {
				t.Fatalf("expected assignment")
			}
			if assign.Op != tc.op {
				t.Errorf("got op %s, want %s", assign.Op, tc.op)
			}
		})
	}
}

func TestParseTernary(t *testing.T) {
	expr := parseExpr(t, "a ? b : c ? d : e")
	outer, ok := expr.(*TernaryExpr)
	if !ok {
		t.Fatalf("expected ternary, got %#v", expr)
	}
	if _, ok := outer.Else.(*TernaryExpr); !ok {
		t.Fatalf("expected ternary to nest rightward, got %#v", outer.Else)
	}
}

func TestParseMemberAndIndexChain(t *testing.T) {
	expr := parseExpr(t, "a.b[0].c(1)")
	call, ok := expr.(*CallExpr)
	if !ok || len(call.Args) != 1 {
		t.Fatalf("expected call with one argument, got %#v", expr)
	}
	member, ok := call.Callee.(*MemberExpr)
	if !ok || member.Property != "c" {
		t.Fatalf("expected .c callee, got %#v", call.Callee)
	}
	if _, ok := member.Object.(*IndexExpr); !ok {
		t.Fatalf("expected index below member, got %#v", member.Object)
	}
}

func TestParseForDisambiguation(t *testing.T) {
	prog := parseSource(t, "{% for (x in xs) y; for (local x in xs) y; for (x = 0; x < 3; x += 1) y; %}")
	if len(prog.Statements) != 3 {
		t.Fatalf("got %d statements, want 3", len(prog.Statements))
	}

	first, ok := prog.Statements[0].(*ForInStmt)
	if !ok || first.Local || first.Name != "x" {
		t.Fatalf("statement 0: expected non-local for-in over x, got %#v", prog.Statements[0])
	}
	second, ok := prog.Statements[1].(*ForInStmt)
	if !ok || !second.Local {
		t.Fatalf("statement 1: expected local for-in, got %#v", prog.Statements[1])
	}
	third, ok := prog.Statements[2].(*ForStmt)
	if !ok || third.Init == nil || third.Cond == nil || third.Step == nil {
		t.Fatalf("statement 2: expected three-clause for, got %#v", prog.Statements[2])
	}
}

func TestParseEmptyForClauses(t *testing.T) {
	prog := parseSource(t, "{% for (;;) break; %}")
	stmt, ok := prog.Statements[0].(*ForStmt)
	if !ok {
		t.Fatalf("expected for statement, got %#v", prog.Statements[0])
	}
	if stmt.Init != nil || stmt.Cond != nil || stmt.Step != nil {
		t.Fatalf("expected empty clauses, got %#v", stmt)
	}
}

func TestParseLocalDeclarations(t *testing.T) {
	prog := parseSource(t, "{% local a, b = 2; %}")
	local, ok := prog.Statements[0].(*LocalStmt)
	if !ok {
		t.Fatalf("expected local statement, got %#v", prog.Statements[0])
	}
	if len(local.Decls) != 2 {
		t.Fatalf("got %d declarations, want 2", len(local.Decls))
	}
	if local.Decls[0].Name != "a" || local.Decls[0].Value != nil {
		t.Fatalf("first declaration: %#v", local.Decls[0])
	}
	if local.Decls[1].Name != "b" || local.Decls[1].Value == nil {
		t.Fatalf("second declaration: %#v", local.Decls[1])
	}
}

func TestParseFunctionForms(t *testing.T) {
	prog := parseSource(t, "{% function named(a, b) { return a; } f = function(x) x; %}")
	if _, ok := prog.Statements[0].(*FunctionStmt); !ok {
		t.Fatalf("expected function statement, got %#v", prog.Statements[0])
	}
	assign, ok := prog.Statements[1].(*ExprStmt).Expr.(*AssignExpr)
	if !ok {
		t.Fatalf("expected assignment, got %#v", prog.Statements[1])
	}
	if _, ok := assign.Value.(*FunctionLiteral); !ok {
		t.Fatalf("expected function literal value, got %#v", assign.Value)
	}
}

func TestParseTextInsideBlockBody(t *testing.T) {
	// A brace body spanning statement blocks picks up the literal text and
	// emit statements between them.
	prog := parseSource(t, "{% if (x) { %}hello {{ name }}{% } %}")
	ifStmt, ok := prog.Statements[0].(*IfStmt)
	if !ok {
		t.Fatalf("expected if statement, got %#v", prog.Statements[0])
	}
	block, ok := ifStmt.Consequent.(*BlockStmt)
	if !ok {
		t.Fatalf("expected block consequent, got %#v", ifStmt.Consequent)
	}
	if len(block.Statements) != 2 {
		t.Fatalf("got %d body statements, want 2", len(block.Statements))
	}
	if _, ok := block.Statements[0].(*TextStmt); !ok {
		t.Fatalf("expected text statement, got %#v", block.Statements[0])
	}
	if _, ok := block.Statements[1].(*EmitStmt); !ok {
		t.Fatalf("expected emit statement, got %#v", block.Statements[1])
	}
}

func TestParseErrorAbortsProgram(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing operand", "{% a + ; %}"},
		{"unclosed paren", "{% f(a; %}"},
		{"bad assignment target", "{% 1 = 2; %}"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			segs, err := newScanner(tc.src).scan()
			if err != nil {
				t.Fatalf("scan failed: %v", err)
			}
			toks, err := lexSegments(segs)
			if err != nil {
				t.Fatalf("lex failed: %v", err)
			}
			prog, errs := newParser(toks).parseProgram()
			if len(errs) == 0 {
				t.Fatalf("expected parse errors")
			}
			if prog != nil {
				t.Fatalf("expected nil program on error, got %#v", prog)
			}
			if !strings.Contains(errs[0].Error(), "syntax error") {
				t.Fatalf("unexpected error text: %v", errs[0])
			}
		})
	}
}
