package utpl

import (
	"fmt"
	"strconv"
)

type (
	prefixParseFn func() Expression
	infixParseFn  func(Expression) Expression
)

type parser struct {
	tokens []Token
	next   int

	curToken  Token
	peekToken Token

	errors []error

	prefixFns map[TokenType]prefixParseFn
	infixFns  map[TokenType]infixParseFn
}

func newParser(tokens []Token) *parser {
	p := &parser{tokens: tokens}

	p.prefixFns = make(map[TokenType]prefixParseFn)
	p.infixFns = make(map[TokenType]infixParseFn)

	p.registerPrefix(tokenIdent, p.parseIdentifier)
	p.registerPrefix(tokenInt, p.parseIntLiteral)
	p.registerPrefix(tokenDouble, p.parseDoubleLiteral)
	p.registerPrefix(tokenString, p.parseStringLiteral)
	p.registerPrefix(tokenTrue, p.parseBoolLiteral)
	p.registerPrefix(tokenFalse, p.parseBoolLiteral)
	p.registerPrefix(tokenNull, p.parseNullLiteral)
	p.registerPrefix(tokenLParen, p.parseGroupedExpression)
	p.registerPrefix(tokenLBracket, p.parseArrayLiteral)
	p.registerPrefix(tokenLBrace, p.parseObjectLiteral)
	p.registerPrefix(tokenFunction, p.parseFunctionLiteral)
	p.registerPrefix(tokenBang, p.parsePrefixExpression)
	p.registerPrefix(tokenMinus, p.parsePrefixExpression)
	p.registerPrefix(tokenPlus, p.parsePrefixExpression)
	p.registerPrefix(tokenTilde, p.parsePrefixExpression)

	for _, tt := range []TokenType{
		tokenPlus, tokenMinus, tokenAsterisk, tokenSlash, tokenPercent,
		tokenLShift, tokenRShift, tokenLT, tokenLTE, tokenGT, tokenGTE,
		tokenEQ, tokenNotEQ, tokenAmp, tokenCaret, tokenPipe,
		tokenAnd, tokenOr,
	} {
		p.infixFns[tt] = p.parseInfixExpression
	}
	for _, tt := range []TokenType{
		tokenAssign, tokenPlusEQ, tokenMinusEQ, tokenStarEQ, tokenSlashEQ,
		tokenPercentEQ, tokenLShiftEQ, tokenRShiftEQ, tokenAmpEQ,
		tokenCaretEQ, tokenPipeEQ,
	} {
		p.infixFns[tt] = p.parseAssignExpression
	}
	p.infixFns[tokenQuestion] = p.parseTernaryExpression
	p.infixFns[tokenLParen] = p.parseCallExpression
	p.infixFns[tokenDot] = p.parseMemberExpression
	p.infixFns[tokenLBracket] = p.parseIndexExpression

	p.nextToken()
	p.nextToken()

	return p
}

func (p *parser) registerPrefix(tt TokenType, fn prefixParseFn) {
	p.prefixFns[tt] = fn
}

func (p *parser) nextToken() {
	p.curToken = p.peekToken
	if p.next < len(p.tokens) {
		p.peekToken = p.tokens[p.next]
		p.next++
	} else {
		p.peekToken = Token{Type: tokenEOF}
	}
}

// peekN looks ahead n tokens past curToken; peekN(1) == peekToken.
func (p *parser) peekN(n int) Token {
	idx := p.next + n - 2
	if idx < 0 || idx >= len(p.tokens) {
		return Token{Type: tokenEOF}
	}
	return p.tokens[idx]
}

func (p *parser) parseProgram() (*Program, []error) {
	program := &Program{}

	for p.curToken.Type != tokenEOF {
		stmt := p.parseTemplateStatement()
		if len(p.errors) > 0 {
			// A malformed template never partially evaluates.
			return nil, p.errors
		}
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}

	return program, p.errors
}

// parseTemplateStatement handles the template-level statement forms (literal
// text, expression blocks) before falling through to the code grammar. These
// forms are also legal inside brace blocks: a block opened by the alternate
// keyword syntax re-enters literal mode for its body.
func (p *parser) parseTemplateStatement() Statement {
	switch p.curToken.Type {
	case tokenText:
		return &TextStmt{Text: p.curToken.Literal, position: p.curToken.Pos}
	case tokenEmitOpen:
		pos := p.curToken.Pos
		p.nextToken()
		if p.curToken.Type == tokenEmitClose {
			p.errorExpected(p.curToken, "expression")
			return nil
		}
		expr := p.parseExpression(lowestPrec)
		if !p.expectPeek(tokenEmitClose) {
			return nil
		}
		return &EmitStmt{Expr: expr, position: pos}
	default:
		return p.parseStatement()
	}
}

func (p *parser) parseStatement() Statement {
	switch p.curToken.Type {
	case tokenSemicolon:
		return nil
	case tokenLBrace:
		return p.parseBlockStatement()
	case tokenIf:
		return p.parseIfStatement()
	case tokenFor:
		return p.parseForStatement()
	case tokenFunction:
		if p.peekToken.Type == tokenIdent {
			return p.parseFunctionStatement()
		}
		return p.parseExpressionStatement()
	case tokenLocal:
		return p.parseLocalStatement()
	case tokenReturn:
		return p.parseReturnStatement()
	case tokenBreak:
		stmt := &BreakStmt{position: p.curToken.Pos}
		p.skipSemicolon()
		return stmt
	case tokenContinue:
		stmt := &ContinueStmt{position: p.curToken.Pos}
		p.skipSemicolon()
		return stmt
	default:
		return p.parseExpressionStatement()
	}
}

func (p *parser) skipSemicolon() {
	if p.peekToken.Type == tokenSemicolon {
		p.nextToken()
	}
}

func (p *parser) parseExpressionStatement() Statement {
	expr := p.parseExpression(lowestPrec)
	if expr == nil {
		return nil
	}
	p.skipSemicolon()
	return &ExprStmt{Expr: expr, position: expr.Pos()}
}

func (p *parser) parseBlockStatement() Statement {
	pos := p.curToken.Pos
	block := &BlockStmt{position: pos}

	p.nextToken()
	for p.curToken.Type != tokenRBrace {
		if p.curToken.Type == tokenEOF {
			p.errorExpected(p.curToken, "}")
			return nil
		}
		stmt := p.parseTemplateStatement()
		if len(p.errors) > 0 {
			return nil
		}
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}

	return block
}

// parseBody parses a brace-delimited or single-statement body.
func (p *parser) parseBody() Statement {
	p.nextToken()
	if p.curToken.Type == tokenLBrace {
		return p.parseBlockStatement()
	}
	return p.parseTemplateStatement()
}

func (p *parser) parseIfStatement() Statement {
	pos := p.curToken.Pos
	if !p.expectPeek(tokenLParen) {
		return nil
	}
	p.nextToken()
	condition := p.parseExpression(lowestPrec)
	if !p.expectPeek(tokenRParen) {
		return nil
	}

	consequent := p.parseBody()

	var alternate Statement
	if p.peekToken.Type == tokenElse {
		p.nextToken()
		alternate = p.parseBody()
	}

	return &IfStmt{Condition: condition, Consequent: consequent, Alternate: alternate, position: pos}
}

func (p *parser) parseForStatement() Statement {
	pos := p.curToken.Pos
	if !p.expectPeek(tokenLParen) {
		return nil
	}

	// for (x in expr) and for (local x in expr) are the enumeration form;
	// everything else is the three-clause form.
	if p.peekToken.Type == tokenIdent && p.peekN(2).Type == tokenIn {
		return p.parseForInTail(pos, false)
	}
	if p.peekToken.Type == tokenLocal && p.peekN(2).Type == tokenIdent && p.peekN(3).Type == tokenIn {
		p.nextToken()
		return p.parseForInTail(pos, true)
	}

	stmt := &ForStmt{position: pos}

	p.nextToken()
	if p.curToken.Type != tokenSemicolon {
		if p.curToken.Type == tokenLocal {
			stmt.Init = p.parseLocalClause()
		} else {
			expr := p.parseExpression(lowestPrec)
			if expr == nil {
				return nil
			}
			stmt.Init = &ExprStmt{Expr: expr, position: expr.Pos()}
		}
		if !p.expectPeek(tokenSemicolon) {
			return nil
		}
	}

	p.nextToken()
	if p.curToken.Type != tokenSemicolon {
		stmt.Cond = p.parseExpression(lowestPrec)
		if !p.expectPeek(tokenSemicolon) {
			return nil
		}
	}

	p.nextToken()
	if p.curToken.Type != tokenRParen {
		stmt.Step = p.parseExpression(lowestPrec)
		if !p.expectPeek(tokenRParen) {
			return nil
		}
	}

	stmt.Body = p.parseBody()
	return stmt
}

func (p *parser) parseForInTail(pos Position, local bool) Statement {
	p.nextToken()
	name := p.curToken.Literal

	p.nextToken() // in
	p.nextToken()
	iterable := p.parseExpression(lowestPrec)
	if !p.expectPeek(tokenRParen) {
		return nil
	}

	body := p.parseBody()
	return &ForInStmt{Local: local, Name: name, Iterable: iterable, Body: body, position: pos}
}

// parseLocalClause parses a local declaration list without consuming the
// trailing semicolon, for use as a for-loop init clause.
func (p *parser) parseLocalClause() Statement {
	pos := p.curToken.Pos
	stmt := &LocalStmt{position: pos}

	for {
		if !p.expectPeek(tokenIdent) {
			return nil
		}
		decl := LocalDecl{Name: p.curToken.Literal}
		if p.peekToken.Type == tokenAssign {
			p.nextToken()
			p.nextToken()
			decl.Value = p.parseExpression(lowestPrec)
		}
		stmt.Decls = append(stmt.Decls, decl)
		if p.peekToken.Type != tokenComma {
			return stmt
		}
		p.nextToken()
	}
}

func (p *parser) parseLocalStatement() Statement {
	stmt := p.parseLocalClause()
	if stmt == nil {
		return nil
	}
	p.skipSemicolon()
	return stmt
}

func (p *parser) parseFunctionStatement() Statement {
	pos := p.curToken.Pos
	p.nextToken()
	name := p.curToken.Literal

	params, ok := p.parseFunctionParams()
	if !ok {
		return nil
	}

	body := p.parseBody()
	return &FunctionStmt{Name: name, Params: params, Body: body, position: pos}
}

func (p *parser) parseFunctionParams() ([]string, bool) {
	if !p.expectPeek(tokenLParen) {
		return nil, false
	}

	params := []string{}
	if p.peekToken.Type == tokenRParen {
		p.nextToken()
		return params, true
	}

	p.nextToken()
	if p.curToken.Type != tokenIdent {
		p.errorExpected(p.curToken, "parameter name")
		return nil, false
	}
	params = append(params, p.curToken.Literal)
	for p.peekToken.Type == tokenComma {
		p.nextToken()
		p.nextToken()
		if p.curToken.Type != tokenIdent {
			p.errorExpected(p.curToken, "parameter name")
			return nil, false
		}
		params = append(params, p.curToken.Literal)
	}
	if !p.expectPeek(tokenRParen) {
		return nil, false
	}
	return params, true
}

func (p *parser) parseReturnStatement() Statement {
	pos := p.curToken.Pos
	stmt := &ReturnStmt{position: pos}

	switch p.peekToken.Type {
	case tokenSemicolon:
		p.nextToken()
	case tokenRBrace, tokenEOF, tokenText, tokenEmitOpen:
	default:
		p.nextToken()
		stmt.Value = p.parseExpression(lowestPrec)
		p.skipSemicolon()
	}
	return stmt
}

const (
	lowestPrec = iota
	precAssign
	precTernary
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precComparison
	precShift
	precSum
	precProduct
	precPrefix
	precCall
)

var precedences = map[TokenType]int{
	tokenAssign:    precAssign,
	tokenPlusEQ:    precAssign,
	tokenMinusEQ:   precAssign,
	tokenStarEQ:    precAssign,
	tokenSlashEQ:   precAssign,
	tokenPercentEQ: precAssign,
	tokenLShiftEQ:  precAssign,
	tokenRShiftEQ:  precAssign,
	tokenAmpEQ:     precAssign,
	tokenCaretEQ:   precAssign,
	tokenPipeEQ:    precAssign,
	tokenQuestion:  precTernary,
	tokenOr:        precOr,
	tokenAnd:       precAnd,
	tokenPipe:      precBitOr,
	tokenCaret:     precBitXor,
	tokenAmp:       precBitAnd,
	tokenEQ:        precEquality,
	tokenNotEQ:     precEquality,
	tokenLT:        precComparison,
	tokenLTE:       precComparison,
	tokenGT:        precComparison,
	tokenGTE:       precComparison,
	tokenLShift:    precShift,
	tokenRShift:    precShift,
	tokenPlus:      precSum,
	tokenMinus:     precSum,
	tokenAsterisk:  precProduct,
	tokenSlash:     precProduct,
	tokenPercent:   precProduct,
	tokenLParen:    precCall,
	tokenDot:       precCall,
	tokenLBracket:  precCall,
}

func (p *parser) parseExpression(precedence int) Expression {
	prefix := p.prefixFns[p.curToken.Type]
	if prefix == nil {
		p.errorUnexpected(p.curToken)
		return nil
	}

	left := prefix()

	for left != nil && precedence < p.peekPrecedence() {
		infix := p.infixFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}

	return left
}

func (p *parser) parseIdentifier() Expression {
	return &Identifier{Name: p.curToken.Literal, position: p.curToken.Pos}
}

func (p *parser) parseIntLiteral() Expression {
	value, err := strconv.ParseInt(p.curToken.Literal, 0, 64)
	if err != nil {
		p.errors = append(p.errors, &SyntaxError{Pos: p.curToken.Pos, Message: "invalid integer literal"})
		return nil
	}
	return &IntLiteral{Value: value, position: p.curToken.Pos}
}

func (p *parser) parseDoubleLiteral() Expression {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.errors = append(p.errors, &SyntaxError{Pos: p.curToken.Pos, Message: "invalid numeric literal"})
		return nil
	}
	return &DoubleLiteral{Value: value, position: p.curToken.Pos}
}

func (p *parser) parseStringLiteral() Expression {
	return &StringLiteral{Value: p.curToken.Literal, position: p.curToken.Pos}
}

func (p *parser) parseBoolLiteral() Expression {
	return &BoolLiteral{Value: p.curToken.Type == tokenTrue, position: p.curToken.Pos}
}

func (p *parser) parseNullLiteral() Expression {
	return &NullLiteral{position: p.curToken.Pos}
}

func (p *parser) parseGroupedExpression() Expression {
	p.nextToken()
	expr := p.parseExpression(lowestPrec)
	if !p.expectPeek(tokenRParen) {
		return nil
	}
	return expr
}

func (p *parser) parseArrayLiteral() Expression {
	pos := p.curToken.Pos
	elements := []Expression{}

	if p.peekToken.Type == tokenRBracket {
		p.nextToken()
		return &ArrayLiteral{Elements: elements, position: pos}
	}

	p.nextToken()
	elements = append(elements, p.parseExpression(lowestPrec))

	for p.peekToken.Type == tokenComma {
		p.nextToken()
		p.nextToken()
		elements = append(elements, p.parseExpression(lowestPrec))
	}

	if !p.expectPeek(tokenRBracket) {
		return nil
	}

	return &ArrayLiteral{Elements: elements, position: pos}
}

func (p *parser) parseObjectLiteral() Expression {
	pos := p.curToken.Pos
	pairs := []ObjectPair{}

	if p.peekToken.Type == tokenRBrace {
		p.nextToken()
		return &ObjectLiteral{Pairs: pairs, position: pos}
	}

	p.nextToken()
	if pair, ok := p.parseObjectPair(); ok {
		pairs = append(pairs, pair)
	} else {
		return nil
	}

	for p.peekToken.Type == tokenComma {
		p.nextToken()
		p.nextToken()
		if pair, ok := p.parseObjectPair(); ok {
			pairs = append(pairs, pair)
		} else {
			return nil
		}
	}

	if !p.expectPeek(tokenRBrace) {
		return nil
	}

	return &ObjectLiteral{Pairs: pairs, position: pos}
}

// parseObjectPair parses one key/value entry. Keys follow JSON syntax plus
// the bare identifier shorthand.
func (p *parser) parseObjectPair() (ObjectPair, bool) {
	var key string
	switch p.curToken.Type {
	case tokenIdent, tokenString:
		key = p.curToken.Literal
	default:
		p.errorExpected(p.curToken, "object key")
		return ObjectPair{}, false
	}

	if !p.expectPeek(tokenColon) {
		return ObjectPair{}, false
	}
	p.nextToken()
	value := p.parseExpression(lowestPrec)
	if value == nil {
		return ObjectPair{}, false
	}
	return ObjectPair{Key: key, Value: value}, true
}

func (p *parser) parseFunctionLiteral() Expression {
	pos := p.curToken.Pos

	name := ""
	if p.peekToken.Type == tokenIdent {
		p.nextToken()
		name = p.curToken.Literal
	}

	params, ok := p.parseFunctionParams()
	if !ok {
		return nil
	}

	body := p.parseBody()
	if body == nil {
		return nil
	}
	return &FunctionLiteral{Name: name, Params: params, Body: body, position: pos}
}

func (p *parser) parsePrefixExpression() Expression {
	pos := p.curToken.Pos
	operator := p.curToken.Type
	p.nextToken()
	right := p.parseExpression(precPrefix)
	if right == nil {
		return nil
	}
	return &UnaryExpr{Operator: operator, Right: right, position: pos}
}

func (p *parser) parseInfixExpression(left Expression) Expression {
	pos := p.curToken.Pos
	operator := p.curToken.Type
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return &BinaryExpr{Left: left, Operator: operator, Right: right, position: pos}
}

var compoundAssignOps = map[TokenType]TokenType{
	tokenPlusEQ:    tokenPlus,
	tokenMinusEQ:   tokenMinus,
	tokenStarEQ:    tokenAsterisk,
	tokenSlashEQ:   tokenSlash,
	tokenPercentEQ: tokenPercent,
	tokenLShiftEQ:  tokenLShift,
	tokenRShiftEQ:  tokenRShift,
	tokenAmpEQ:     tokenAmp,
	tokenCaretEQ:   tokenCaret,
	tokenPipeEQ:    tokenPipe,
}

func (p *parser) parseAssignExpression(left Expression) Expression {
	pos := p.curToken.Pos
	if !isAssignable(left) {
		p.errors = append(p.errors, &SyntaxError{Pos: left.Pos(), Message: "invalid assignment target"})
		return nil
	}

	op := tokenAssign
	if binOp, ok := compoundAssignOps[p.curToken.Type]; ok {
		op = binOp
	}

	p.nextToken()
	// Right associative: a = b = c assigns c to b first.
	value := p.parseExpression(precAssign - 1)
	if value == nil {
		return nil
	}
	return &AssignExpr{Target: left, Op: op, Value: value, position: pos}
}

func (p *parser) parseTernaryExpression(cond Expression) Expression {
	pos := p.curToken.Pos
	p.nextToken()
	then := p.parseExpression(lowestPrec)
	if !p.expectPeek(tokenColon) {
		return nil
	}
	p.nextToken()
	alt := p.parseExpression(precTernary - 1)
	if then == nil || alt == nil {
		return nil
	}
	return &TernaryExpr{Condition: cond, Then: then, Else: alt, position: pos}
}

func (p *parser) parseCallExpression(callee Expression) Expression {
	expr := &CallExpr{Callee: callee, position: callee.Pos()}
	args := []Expression{}

	if p.peekToken.Type == tokenRParen {
		p.nextToken()
		expr.Args = args
		return expr
	}

	p.nextToken()
	args = append(args, p.parseExpression(lowestPrec))

	for p.peekToken.Type == tokenComma {
		p.nextToken()
		p.nextToken()
		args = append(args, p.parseExpression(lowestPrec))
	}

	if !p.expectPeek(tokenRParen) {
		return nil
	}

	expr.Args = args
	return expr
}

func (p *parser) parseMemberExpression(object Expression) Expression {
	p.nextToken()
	if p.curToken.Type != tokenIdent {
		p.errorExpected(p.curToken, "identifier after .")
		return nil
	}
	return &MemberExpr{Object: object, Property: p.curToken.Literal, position: object.Pos()}
}

func (p *parser) parseIndexExpression(object Expression) Expression {
	pos := p.curToken.Pos
	p.nextToken()
	index := p.parseExpression(lowestPrec)
	if !p.expectPeek(tokenRBracket) {
		return nil
	}
	return &IndexExpr{Object: object, Index: index, position: pos}
}

func isAssignable(expr Expression) bool {
	switch expr.(type) {
	case *Identifier, *MemberExpr, *IndexExpr:
		return true
	default:
		return false
	}
}

func (p *parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return lowestPrec
}

func (p *parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return lowestPrec
}

func (p *parser) expectPeek(tt TokenType) bool {
	if p.peekToken.Type == tt {
		p.nextToken()
		return true
	}
	p.errorExpected(p.peekToken, string(tt))
	return false
}

func (p *parser) errorExpected(tok Token, expected string) {
	p.errors = append(p.errors, &SyntaxError{
		Pos:     tok.Pos,
		Message: fmt.Sprintf("expected %s, got %s", expected, describeToken(tok)),
	})
}

func (p *parser) errorUnexpected(tok Token) {
	p.errors = append(p.errors, &SyntaxError{
		Pos:     tok.Pos,
		Message: fmt.Sprintf("unexpected %s", describeToken(tok)),
	})
}

func describeToken(tok Token) string {
	switch tok.Type {
	case tokenEOF:
		return "end of template"
	case tokenText:
		return "literal text"
	case tokenIdent, tokenInt, tokenDouble, tokenString:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	default:
		return string(tok.Type)
	}
}
