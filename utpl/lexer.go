package utpl

import (
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// lexer tokenizes one code segment. The surrounding scanner has already
// stripped the delimiters, so the lexer only ever sees expression and
// statement source text.
type lexer struct {
	input string

	offset int
	width  int

	line   int
	column int

	ch rune
}

func newLexer(input string, pos Position) *lexer {
	l := &lexer{input: input, line: pos.Line, column: pos.Column - 1}
	l.readRune()
	return l
}

// lexSegments flattens the scanner's segment sequence into one token stream.
// Literal regions become tokenText tokens; expression blocks are bracketed by
// tokenEmitOpen/tokenEmitClose so the parser can turn them into emit
// statements; statement blocks contribute their tokens inline, which lets a
// brace opened in one block be closed in a later one.
func lexSegments(segs []segment) ([]Token, error) {
	var tokens []Token
	for _, seg := range segs {
		switch seg.kind {
		case segText:
			tokens = append(tokens, Token{Type: tokenText, Literal: seg.text, Pos: seg.pos})
		case segExpression:
			tokens = append(tokens, Token{Type: tokenEmitOpen, Pos: seg.pos})
			toks, err := lexCode(seg.text, seg.pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, toks...)
			tokens = append(tokens, Token{Type: tokenEmitClose, Pos: seg.pos})
		case segStatement:
			toks, err := lexCode(seg.text, seg.pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, toks...)
		}
	}
	tokens = append(tokens, Token{Type: tokenEOF})
	return tokens, nil
}

func lexCode(code string, pos Position) ([]Token, error) {
	l := newLexer(code, pos)
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		if tok.Type == tokenEOF {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

func (l *lexer) readRune() {
	if l.offset >= len(l.input) {
		l.width = 0
		l.ch = 0
		l.column++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.offset:])
	l.width = w
	l.offset += w

	if r == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}

	l.ch = r
}

func (l *lexer) peekRune() rune {
	if l.offset >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])
	return r
}

func (l *lexer) next() (Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return Token{}, err
	}

	tok := Token{Pos: Position{Line: l.line, Column: l.column}}

	switch l.ch {
	case 0:
		tok.Type = tokenEOF
	case '(':
		tok = l.makeToken(tokenLParen, "(")
		l.readRune()
	case ')':
		tok = l.makeToken(tokenRParen, ")")
		l.readRune()
	case '{':
		tok = l.makeToken(tokenLBrace, "{")
		l.readRune()
	case '}':
		tok = l.makeToken(tokenRBrace, "}")
		l.readRune()
	case '[':
		tok = l.makeToken(tokenLBracket, "[")
		l.readRune()
	case ']':
		tok = l.makeToken(tokenRBracket, "]")
		l.readRune()
	case ',':
		tok = l.makeToken(tokenComma, ",")
		l.readRune()
	case ';':
		tok = l.makeToken(tokenSemicolon, ";")
		l.readRune()
	case ':':
		tok = l.makeToken(tokenColon, ":")
		l.readRune()
	case '?':
		tok = l.makeToken(tokenQuestion, "?")
		l.readRune()
	case '.':
		tok = l.makeToken(tokenDot, ".")
		l.readRune()
	case '~':
		tok = l.makeToken(tokenTilde, "~")
		l.readRune()
	case '+':
		tok = l.eqVariant(tokenPlus, tokenPlusEQ)
	case '-':
		tok = l.eqVariant(tokenMinus, tokenMinusEQ)
	case '*':
		tok = l.eqVariant(tokenAsterisk, tokenStarEQ)
	case '/':
		tok = l.eqVariant(tokenSlash, tokenSlashEQ)
	case '%':
		tok = l.eqVariant(tokenPercent, tokenPercentEQ)
	case '^':
		tok = l.eqVariant(tokenCaret, tokenCaretEQ)
	case '!':
		tok = l.eqVariant(tokenBang, tokenNotEQ)
	case '=':
		tok = l.eqVariant(tokenAssign, tokenEQ)
	case '&':
		if l.peekRune() == '&' {
			l.readRune()
			tok = l.makeToken(tokenAnd, "&&")
			l.readRune()
		} else {
			tok = l.eqVariant(tokenAmp, tokenAmpEQ)
		}
	case '|':
		if l.peekRune() == '|' {
			l.readRune()
			tok = l.makeToken(tokenOr, "||")
			l.readRune()
		} else {
			tok = l.eqVariant(tokenPipe, tokenPipeEQ)
		}
	case '<':
		switch l.peekRune() {
		case '<':
			l.readRune()
			tok = l.eqVariant(tokenLShift, tokenLShiftEQ)
		case '=':
			l.readRune()
			tok = l.makeToken(tokenLTE, "<=")
			l.readRune()
		default:
			tok = l.makeToken(tokenLT, "<")
			l.readRune()
		}
	case '>':
		switch l.peekRune() {
		case '>':
			l.readRune()
			tok = l.eqVariant(tokenRShift, tokenRShiftEQ)
		case '=':
			l.readRune()
			tok = l.makeToken(tokenGTE, ">=")
			l.readRune()
		default:
			tok = l.makeToken(tokenGT, ">")
			l.readRune()
		}
	case '"', '\'':
		literal, err := l.readString(l.ch)
		if err != nil {
			return Token{}, err
		}
		tok.Type = tokenString
		tok.Literal = literal
	default:
		switch {
		case isIdentifierStart(l.ch):
			literal := l.readIdentifier()
			tok.Type = lookupIdent(literal)
			tok.Literal = literal
		case unicode.IsDigit(l.ch):
			return l.readNumber(tok.Pos)
		default:
			return Token{}, &SyntaxError{
				Pos:     tok.Pos,
				Message: "unexpected character " + string(l.ch),
			}
		}
	}

	return tok, nil
}

// eqVariant consumes the current operator rune, returning the compound token
// when the next rune is '=' and the plain token otherwise.
func (l *lexer) eqVariant(plain, compound TokenType) Token {
	tok := l.makeToken(plain, string(plain))
	if l.peekRune() == '=' {
		l.readRune()
		tok.Type = compound
		tok.Literal = string(compound)
	}
	l.readRune()
	return tok
}

func (l *lexer) makeToken(tt TokenType, literal string) Token {
	return Token{Type: tt, Literal: literal, Pos: Position{Line: l.line, Column: l.column}}
}

func (l *lexer) skipWhitespaceAndComments() error {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.readRune()
		case l.ch == '/' && l.peekRune() == '/':
			for l.ch != 0 && l.ch != '\n' {
				l.readRune()
			}
		case l.ch == '/' && l.peekRune() == '*':
			pos := Position{Line: l.line, Column: l.column}
			l.readRune()
			l.readRune()
			for {
				if l.ch == 0 {
					return &SyntaxError{Pos: pos, Message: "unterminated comment"}
				}
				if l.ch == '*' && l.peekRune() == '/' {
					l.readRune()
					l.readRune()
					break
				}
				l.readRune()
			}
		default:
			return nil
		}
	}
}

func (l *lexer) readIdentifier() string {
	start := l.offset - l.width
	for isIdentifierRune(l.peekRune()) {
		l.readRune()
	}
	literal := l.input[start:l.offset]
	l.readRune()
	return literal
}

// readNumber consumes a decimal, hexadecimal, octal, or floating point
// literal. Integers lex to tokenInt, everything else to tokenDouble.
func (l *lexer) readNumber(pos Position) (Token, error) {
	start := l.offset - l.width

	if l.ch == '0' && (l.peekRune() == 'x' || l.peekRune() == 'X') {
		l.readRune()
		if !isHexDigit(l.peekRune()) {
			return Token{}, &SyntaxError{Pos: pos, Message: "invalid hexadecimal literal"}
		}
		for isHexDigit(l.peekRune()) {
			l.readRune()
		}
		literal := l.input[start:l.offset]
		l.readRune()
		return Token{Type: tokenInt, Literal: literal, Pos: pos}, nil
	}

	isDouble := false
	for unicode.IsDigit(l.peekRune()) {
		l.readRune()
	}
	if l.peekRune() == '.' {
		isDouble = true
		l.readRune()
		for unicode.IsDigit(l.peekRune()) {
			l.readRune()
		}
	}
	if r := l.peekRune(); r == 'e' || r == 'E' {
		isDouble = true
		l.readRune()
		if r := l.peekRune(); r == '+' || r == '-' {
			l.readRune()
		}
		if !unicode.IsDigit(l.peekRune()) {
			return Token{}, &SyntaxError{Pos: pos, Message: "invalid exponent in numeric literal"}
		}
		for unicode.IsDigit(l.peekRune()) {
			l.readRune()
		}
	}

	literal := l.input[start:l.offset]
	l.readRune()

	if isDouble {
		return Token{Type: tokenDouble, Literal: literal, Pos: pos}, nil
	}
	if len(literal) > 1 && literal[0] == '0' {
		for i := 1; i < len(literal); i++ {
			if literal[i] > '7' {
				return Token{}, &SyntaxError{Pos: pos, Message: "invalid octal literal " + literal}
			}
		}
	}
	return Token{Type: tokenInt, Literal: literal, Pos: pos}, nil
}

// readString consumes a quoted string literal, decoding escape sequences.
// Unicode escapes forming a surrogate pair combine into one code point.
func (l *lexer) readString(quote rune) (string, error) {
	var sb strings.Builder
	pos := Position{Line: l.line, Column: l.column}

	for {
		l.readRune()
		switch l.ch {
		case 0:
			return "", &SyntaxError{Pos: pos, Message: "unterminated string"}
		case quote:
			l.readRune()
			return sb.String(), nil
		case '\\':
			if err := l.readEscape(&sb); err != nil {
				return "", err
			}
		default:
			sb.WriteRune(l.ch)
		}
	}
}

func (l *lexer) readEscape(sb *strings.Builder) error {
	pos := Position{Line: l.line, Column: l.column}
	l.readRune()

	switch l.ch {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'e':
		sb.WriteByte(0x1b)
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '\\':
		sb.WriteByte('\\')
	case '\'':
		sb.WriteByte('\'')
	case '"':
		sb.WriteByte('"')
	case 'x':
		if !isHexDigit(l.peekRune()) {
			return &SyntaxError{Pos: pos, Message: "invalid hexadecimal escape sequence"}
		}
		val := 0
		for i := 0; i < 2 && isHexDigit(l.peekRune()); i++ {
			l.readRune()
			val = val<<4 | hexValue(l.ch)
		}
		sb.WriteByte(byte(val))
	case '0', '1', '2', '3', '4', '5', '6', '7':
		val := int(l.ch - '0')
		for i := 0; i < 2; i++ {
			r := l.peekRune()
			if r < '0' || r > '7' {
				break
			}
			l.readRune()
			val = val<<3 | int(l.ch-'0')
		}
		if val > 0xff {
			return &SyntaxError{Pos: pos, Message: "invalid octal escape sequence"}
		}
		sb.WriteByte(byte(val))
	case 'u':
		r, err := l.readUnicodeEscape(pos)
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(r) && l.peekRune() == '\\' {
			// A high surrogate may combine with a following \u escape into
			// one supplementary-plane code point.
			save := *l
			l.readRune()
			if l.ch == 'u' {
				low, err := l.readUnicodeEscape(pos)
				if err != nil {
					return err
				}
				if combined := utf16.DecodeRune(r, low); combined != utf8.RuneError {
					sb.WriteRune(combined)
					return nil
				}
				sb.WriteRune(unicodeReplacement(r))
				sb.WriteRune(unicodeReplacement(low))
				return nil
			}
			*l = save
		}
		sb.WriteRune(unicodeReplacement(r))
		return nil
	default:
		return &SyntaxError{Pos: pos, Message: "invalid escape sequence \\" + string(l.ch)}
	}
	return nil
}

func (l *lexer) readUnicodeEscape(pos Position) (rune, error) {
	val := 0
	for i := 0; i < 4; i++ {
		if !isHexDigit(l.peekRune()) {
			return 0, &SyntaxError{Pos: pos, Message: "invalid unicode escape sequence"}
		}
		l.readRune()
		val = val<<4 | hexValue(l.ch)
	}
	return rune(val), nil
}

// unicodeReplacement maps unpaired surrogates to U+FFFD so decoded strings
// stay valid UTF-8.
func unicodeReplacement(r rune) rune {
	if utf16.IsSurrogate(r) {
		return utf8.RuneError
	}
	return r
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentifierRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func hexValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	default:
		return int(r-'A') + 10
	}
}
