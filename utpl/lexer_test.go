package utpl

import (
	"strings"
	"testing"
)

func lexAll(t *testing.T, code string) []Token {
	t.Helper()
	toks, err := lexCode(code, Position{Line: 1, Column: 1})
	if err != nil {
		t.Fatalf("lex failed: %v", err)
	}
	return toks
}

func singleString(t *testing.T, code string) string {
	t.Helper()
	toks := lexAll(t, code)
	if len(toks) != 1 || toks[0].Type != tokenString {
		t.Fatalf("expected one string token, got %#v", toks)
	}
	return toks[0].Literal
}

func TestLexStringEscapes(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"simple escapes", `"a\n\t\\\""`, "a\n\t\\\""},
		{"hex escape", `"\x41\x42"`, "AB"},
		{"octal escape", `"\101\12"`, "A\n"},
		{"octal stops at three digits", `"\1014"`, "A4"},
		{"unicode escape", `"é"`, "é"},
		{"surrogate pair combines", `"😀"`, "\U0001f600"},
		{"unpaired high surrogate", `"\ud83dx"`, "�x"},
		{"unpaired low surrogate", `"\ude00"`, "�"},
		{"single quotes", `'it''s'`, "it"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			toks := lexAll(t, tc.code)
			if len(toks) == 0 || toks[0].Type != tokenString {
				t.Fatalf("expected string token, got %#v", toks)
			}
			if toks[0].Literal != tc.want {
				t.Errorf("got %q, want %q", toks[0].Literal, tc.want)
			}
		})
	}
}

func TestLexRawByteEscape(t *testing.T) {
	// \xHH produces a raw byte, not a code point: \xe9 alone is not valid
	// UTF-8 and stays a lone byte in the string.
	got := singleString(t, `"\xe9"`)
	if got != "\xe9" {
		t.Fatalf("got %q, want raw byte 0xe9", got)
	}
}

func TestLexNumbers(t *testing.T) {
	tests := []struct {
		code    string
		typ     TokenType
		literal string
	}{
		{"42", tokenInt, "42"},
		{"0x1F", tokenInt, "0x1F"},
		{"017", tokenInt, "017"},
		{"0", tokenInt, "0"},
		{"3.25", tokenDouble, "3.25"},
		{"1e3", tokenDouble, "1e3"},
		{"2.5E-2", tokenDouble, "2.5E-2"},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			toks := lexAll(t, tc.code)
			if len(toks) != 1 {
				t.Fatalf("got %d tokens, want 1", len(toks))
			}
			if toks[0].Type != tc.typ || toks[0].Literal != tc.literal {
				t.Errorf("got (%s, %q), want (%s, %q)",
					toks[0].Type, toks[0].Literal, tc.typ, tc.literal)
			}
		})
	}
}

func TestLexNumberErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"bad octal digit", "018", "invalid octal literal 018"},
		{"bare hex prefix", "0x", "invalid hexadecimal literal"},
		{"dangling exponent", "1e", "invalid exponent in numeric literal"},
		{"signed dangling exponent", "1e+", "invalid exponent in numeric literal"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := lexCode(tc.code, Position{Line: 1, Column: 1})
			if err == nil {
				t.Fatalf("expected lex error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %v, want substring %q", err, tc.want)
			}
		})
	}
}

func TestLexOperators(t *testing.T) {
	toks := lexAll(t, "a += b << 2 && !c")
	want := []TokenType{
		tokenIdent, tokenPlusEQ, tokenIdent, tokenLShift,
		tokenInt, tokenAnd, tokenBang, tokenIdent,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestLexKeywordsAndIdents(t *testing.T) {
	toks := lexAll(t, "for local format true nullish null")
	want := []TokenType{
		tokenFor, tokenLocal, tokenIdent, tokenTrue, tokenIdent, tokenNull,
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestLexCommentsSkipped(t *testing.T) {
	toks := lexAll(t, "a /* b\nc */ d // tail\ne")
	var names []string
	for _, tok := range toks {
		if tok.Type != tokenIdent {
			t.Fatalf("unexpected token %s", tok.Type)
		}
		names = append(names, tok.Literal)
	}
	if strings.Join(names, " ") != "a d e" {
		t.Fatalf("got idents %q", names)
	}
}

func TestLexUnterminatedComment(t *testing.T) {
	_, err := lexCode("a /* b", Position{Line: 1, Column: 1})
	if err == nil || !strings.Contains(err.Error(), "unterminated comment") {
		t.Fatalf("got %v, want unterminated comment", err)
	}
}

func TestLexSegmentsFlattens(t *testing.T) {
	segs, err := newScanner("x{{ y }}{% z; %}").scan()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	toks, err := lexSegments(segs)
	if err != nil {
		t.Fatalf("lex failed: %v", err)
	}

	want := []TokenType{
		tokenText, tokenEmitOpen, tokenIdent, tokenEmitClose,
		tokenIdent, tokenSemicolon, tokenEOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestLexPositionsSpanLines(t *testing.T) {
	segs, err := newScanner("ab\n{% x;\n  y; %}").scan()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	toks, err := lexSegments(segs)
	if err != nil {
		t.Fatalf("lex failed: %v", err)
	}

	var yTok *Token
	for i := range toks {
		if toks[i].Type == tokenIdent && toks[i].Literal == "y" {
			yTok = &toks[i]
		}
	}
	if yTok == nil {
		t.Fatalf("identifier y not lexed")
	}
	if yTok.Pos.Line != 3 || yTok.Pos.Column != 3 {
		t.Fatalf("y position = %d:%d, want 3:3", yTok.Pos.Line, yTok.Pos.Column)
	}
}
