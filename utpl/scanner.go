package utpl

import (
	"strings"
)

type segmentKind int

const (
	segText segmentKind = iota
	segStatement
	segExpression
)

// segment is a maximal run of template source in one mode. Statement and
// expression segments carry token-ready code text; text segments are emitted
// verbatim by the evaluator.
type segment struct {
	kind segmentKind
	text string
	pos  Position
}

type altBlock struct {
	keyword string
	pos     Position
}

// scanner splits raw template source into alternating literal and code
// segments. It understands the two delimiter families ({% %} and {{ }}),
// the whitespace trim markers, and the keyword-colon block syntax, which it
// rewrites into brace form so the parser sees a single uniform grammar.
type scanner struct {
	src    string
	offset int
	line   int
	column int

	segments []segment
	altStack []altBlock

	// pendingTrim trims the head of the next literal region (set by -%} / -}}).
	pendingTrim bool
}

func newScanner(src string) *scanner {
	return &scanner{src: src, line: 1, column: 1}
}

func (s *scanner) pos() Position {
	return Position{Line: s.line, Column: s.column}
}

// advance moves the cursor forward n bytes, tracking line and column.
func (s *scanner) advance(n int) {
	for i := 0; i < n; i++ {
		if s.src[s.offset+i] == '\n' {
			s.line++
			s.column = 1
		} else {
			s.column++
		}
	}
	s.offset += n
}

func (s *scanner) scan() ([]segment, error) {
	for s.offset < len(s.src) {
		idx := s.findOpenMarker()
		if idx < 0 {
			s.emitText(s.src[s.offset:])
			s.advance(len(s.src) - s.offset)
			break
		}

		if idx > s.offset {
			s.emitText(s.src[s.offset:idx])
			s.advance(idx - s.offset)
		}

		if err := s.scanCodeBlock(); err != nil {
			return nil, err
		}
	}

	if len(s.altStack) > 0 {
		top := s.altStack[len(s.altStack)-1]
		return nil, &SyntaxError{
			Pos:     top.pos,
			Message: "missing end" + top.keyword + " for " + top.keyword + " block",
		}
	}

	return s.segments, nil
}

// findOpenMarker returns the byte offset of the next {% or {{ marker, or -1.
func (s *scanner) findOpenMarker() int {
	for i := s.offset; i+1 < len(s.src); i++ {
		if s.src[i] == '{' && (s.src[i+1] == '%' || s.src[i+1] == '{') {
			return i
		}
	}
	return -1
}

func (s *scanner) emitText(text string) {
	if s.pendingTrim {
		text = trimLeadingLine(text)
		s.pendingTrim = false
	}
	if text == "" {
		return
	}
	s.segments = append(s.segments, segment{kind: segText, text: text, pos: s.pos()})
}

// trimLeadingLine removes spaces and tabs plus at most one newline from the
// head of text. Trim markers never reach past one line.
func trimLeadingLine(text string) string {
	i := 0
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	if i < len(text) && text[i] == '\r' {
		i++
	}
	if i < len(text) && text[i] == '\n' {
		i++
		return text[i:]
	}
	return text
}

// trimTrailingLine removes spaces and tabs plus at most one newline from the
// tail of text. When a newline is consumed, the trailing whitespace of the
// line before it goes too.
func trimTrailingLine(text string) string {
	i := len(text)
	for i > 0 && (text[i-1] == ' ' || text[i-1] == '\t') {
		i--
	}
	if i > 0 && text[i-1] == '\n' {
		i--
		if i > 0 && text[i-1] == '\r' {
			i--
		}
		for i > 0 && (text[i-1] == ' ' || text[i-1] == '\t') {
			i--
		}
		return text[:i]
	}
	return text
}

// scanCodeBlock consumes one {% ... %} or {{ ... }} block starting at the
// cursor, which sits on the opening brace.
func (s *scanner) scanCodeBlock() error {
	openPos := s.pos()
	isExpr := s.src[s.offset+1] == '{'
	closing := "%}"
	kind := segStatement
	if isExpr {
		closing = "}}"
		kind = segExpression
	}
	s.advance(2)

	if s.offset < len(s.src) && s.src[s.offset] == '-' {
		s.advance(1)
		if n := len(s.segments); n > 0 && s.segments[n-1].kind == segText {
			s.segments[n-1].text = trimTrailingLine(s.segments[n-1].text)
			if s.segments[n-1].text == "" {
				s.segments = s.segments[:n-1]
			}
		}
	}

	codePos := s.pos()
	end, rightTrim, err := s.findCloseMarker(closing, openPos)
	if err != nil {
		return err
	}

	code := s.src[s.offset:end]
	if rightTrim {
		code = strings.TrimSuffix(code, "-")
	}
	s.advance(end - s.offset)
	s.advance(len(closing))
	s.pendingTrim = rightTrim

	if kind == segStatement {
		code, err = s.rewriteAltSyntax(code, codePos)
		if err != nil {
			return err
		}
	}

	s.segments = append(s.segments, segment{kind: kind, text: code, pos: codePos})
	return nil
}

// findCloseMarker locates the closing marker for the current block, skipping
// string literals and comments. It returns the offset of the last code byte
// (the marker itself excluded, a right-trim dash included) and whether a
// right-trim dash directly precedes the marker.
//
// The first unquoted }} always terminates an expression block. Nested object
// literals therefore need a space before their final closing brace; this
// matches the documented behavior of the original syntax.
func (s *scanner) findCloseMarker(closing string, openPos Position) (int, bool, error) {
	i := s.offset
	for i < len(s.src) {
		c := s.src[i]
		switch c {
		case '\'', '"':
			quote := c
			j := i + 1
			for j < len(s.src) {
				if s.src[j] == '\\' {
					j += 2
					continue
				}
				if s.src[j] == quote {
					break
				}
				j++
			}
			if j >= len(s.src) {
				return 0, false, &SyntaxError{Pos: openPos, Message: "unterminated string"}
			}
			i = j + 1
			continue
		case '/':
			if i+1 < len(s.src) && s.src[i+1] == '*' {
				end := strings.Index(s.src[i+2:], "*/")
				if end < 0 {
					return 0, false, &SyntaxError{Pos: openPos, Message: "unterminated comment"}
				}
				i += 2 + end + 2
				continue
			}
			if i+1 < len(s.src) && s.src[i+1] == '/' {
				// Line comments run to end of line, so a marker inside one
				// does not close the block.
				for i < len(s.src) && s.src[i] != '\n' {
					i++
				}
				continue
			}
		}
		if strings.HasPrefix(s.src[i:], closing) {
			if i > s.offset && s.src[i-1] == '-' {
				return i, true, nil
			}
			return i, false, nil
		}
		i++
	}
	return 0, false, &SyntaxError{Pos: openPos, Message: "unterminated " + blockName(closing)}
}

func blockName(closing string) string {
	if closing == "}}" {
		return "expression block"
	}
	return "statement block"
}

// rewriteAltSyntax converts keyword-colon block forms into brace form:
//
//	for (x in arr):  ->  for (x in arr) {
//	endfor           ->  }
//	else             ->  } else {   (inside a colon-form if)
//
// A stack of open colon-form blocks pairs each closing keyword with its
// opener, so nested blocks close correctly.
func (s *scanner) rewriteAltSyntax(code string, pos Position) (string, error) {
	trimmed := strings.TrimSpace(code)

	switch trimmed {
	case "endif", "endfor", "endfunction":
		keyword := strings.TrimPrefix(trimmed, "end")
		n := len(s.altStack)
		if n == 0 {
			return "", &SyntaxError{Pos: pos, Message: trimmed + " outside of " + keyword + " block"}
		}
		if s.altStack[n-1].keyword != keyword {
			return "", &SyntaxError{
				Pos:     pos,
				Message: "expected end" + s.altStack[n-1].keyword + ", got " + trimmed,
			}
		}
		s.altStack = s.altStack[:n-1]
		return "}", nil
	case "else":
		if n := len(s.altStack); n > 0 && s.altStack[n-1].keyword == "if" {
			return "} else {", nil
		}
		return code, nil
	}

	if !strings.HasSuffix(trimmed, ":") {
		return code, nil
	}
	word := firstWord(trimmed)
	switch word {
	case "if", "for", "function":
		s.altStack = append(s.altStack, altBlock{keyword: word, pos: pos})
		idx := strings.LastIndexByte(code, ':')
		return code[:idx] + " {", nil
	}
	return code, nil
}

func firstWord(code string) string {
	end := 0
	for end < len(code) && isWordByte(code[end]) {
		end++
	}
	return code[:end]
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z'
}
