package utpl

// TokenType identifies the lexical category of a token.
type TokenType string

const (
	tokenIllegal TokenType = "ILLEGAL"
	tokenEOF     TokenType = "EOF"

	// tokenText carries a literal template region verbatim.
	tokenText TokenType = "TEXT"
	// tokenEmitOpen/tokenEmitClose bracket the tokens of one {{ ... }} block.
	tokenEmitOpen  TokenType = "{{"
	tokenEmitClose TokenType = "}}"

	tokenIdent  TokenType = "IDENT"
	tokenInt    TokenType = "INT"
	tokenDouble TokenType = "DOUBLE"
	tokenString TokenType = "STRING"

	tokenAssign    TokenType = "="
	tokenPlus      TokenType = "+"
	tokenMinus     TokenType = "-"
	tokenAsterisk  TokenType = "*"
	tokenSlash     TokenType = "/"
	tokenPercent   TokenType = "%"
	tokenBang      TokenType = "!"
	tokenTilde     TokenType = "~"
	tokenLShift    TokenType = "<<"
	tokenRShift    TokenType = ">>"
	tokenLT        TokenType = "<"
	tokenGT        TokenType = ">"
	tokenLTE       TokenType = "<="
	tokenGTE       TokenType = ">="
	tokenEQ        TokenType = "=="
	tokenNotEQ     TokenType = "!="
	tokenAmp       TokenType = "&"
	tokenCaret     TokenType = "^"
	tokenPipe      TokenType = "|"
	tokenAnd       TokenType = "&&"
	tokenOr        TokenType = "||"
	tokenQuestion  TokenType = "?"
	tokenColon     TokenType = ":"
	tokenPlusEQ    TokenType = "+="
	tokenMinusEQ   TokenType = "-="
	tokenStarEQ    TokenType = "*="
	tokenSlashEQ   TokenType = "/="
	tokenPercentEQ TokenType = "%="
	tokenLShiftEQ  TokenType = "<<="
	tokenRShiftEQ  TokenType = ">>="
	tokenAmpEQ     TokenType = "&="
	tokenCaretEQ   TokenType = "^="
	tokenPipeEQ    TokenType = "|="

	tokenComma     TokenType = ","
	tokenSemicolon TokenType = ";"
	tokenDot       TokenType = "."
	tokenLParen    TokenType = "("
	tokenRParen    TokenType = ")"
	tokenLBrace    TokenType = "{"
	tokenRBrace    TokenType = "}"
	tokenLBracket  TokenType = "["
	tokenRBracket  TokenType = "]"

	tokenIf       TokenType = "IF"
	tokenElse     TokenType = "ELSE"
	tokenFor      TokenType = "FOR"
	tokenIn       TokenType = "IN"
	tokenFunction TokenType = "FUNCTION"
	tokenLocal    TokenType = "LOCAL"
	tokenReturn   TokenType = "RETURN"
	tokenBreak    TokenType = "BREAK"
	tokenContinue TokenType = "CONTINUE"
	tokenTrue     TokenType = "TRUE"
	tokenFalse    TokenType = "FALSE"
	tokenNull     TokenType = "NULL"
)

// Token captures lexical information for the parser.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// Position identifies a line and column in the template source.
type Position struct {
	Line   int
	Column int
}

func lookupIdent(ident string) TokenType {
	switch ident {
	case "if":
		return tokenIf
	case "else":
		return tokenElse
	case "for":
		return tokenFor
	case "in":
		return tokenIn
	case "function":
		return tokenFunction
	case "local":
		return tokenLocal
	case "return":
		return tokenReturn
	case "break":
		return tokenBreak
	case "continue":
		return tokenContinue
	case "true":
		return tokenTrue
	case "false":
		return tokenFalse
	case "null":
		return tokenNull
	}
	return tokenIdent
}
