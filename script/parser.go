package script

import (
	"fmt"
	"strconv"
	"strings"
)

type (
	prefixParseFn func() Expression
	infixParseFn  func(Expression) Expression
)

const (
	precLowest = iota
	precEquals
	precSum
	precCall
)

var precedences = map[TokenType]int{
	tokenEQ:     precEquals,
	tokenNotEQ:  precEquals,
	tokenPlus:   precSum,
	tokenMinus:  precSum,
	tokenLParen: precCall,
	tokenDot:    precCall,
}

type parser struct {
	l *lexer

	curToken  Token
	peekToken Token

	err *ParseError

	prefixFns map[TokenType]prefixParseFn
	infixFns  map[TokenType]infixParseFn
}

// Parse parses src into a program. Parsing stops at the first error.
func Parse(src string) (*Program, error) {
	p := newParser(src)
	program := p.parseProgram()
	if p.err != nil {
		return nil, p.err
	}
	return program, nil
}

func newParser(input string) *parser {
	p := &parser{l: newLexer(input)}

	p.prefixFns = map[TokenType]prefixParseFn{
		tokenIdent:    p.parseIdentifier,
		tokenInt:      p.parseIntegerLiteral,
		tokenFloat:    p.parseFloatLiteral,
		tokenString:   p.parseStringLiteral,
		tokenTrue:     p.parseBoolLiteral,
		tokenFalse:    p.parseBoolLiteral,
		tokenNil:      p.parseNilLiteral,
		tokenSelf:     p.parseSelf,
		tokenBase:     p.parseBase,
		tokenLParen:   p.parseGroupedExpression,
		tokenLBracket: p.parseArrayLiteral,
		tokenLBrace:   p.parseObjectLiteral,
		tokenMinus:    p.parseNegation,
	}
	p.infixFns = map[TokenType]infixParseFn{
		tokenPlus:   p.parseInfixExpression,
		tokenMinus:  p.parseInfixExpression,
		tokenEQ:     p.parseInfixExpression,
		tokenNotEQ:  p.parseInfixExpression,
		tokenLParen: p.parseCallExpression,
		tokenDot:    p.parseMemberExpression,
	}

	p.nextToken()
	p.nextToken()
	return p
}

func (p *parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *parser) parseProgram() *Program {
	program := &Program{Statements: p.parseBlock()}
	if p.err == nil && p.curToken.Type == tokenEnd {
		p.errorUnexpected(p.curToken)
	}
	return program
}

// parseBlock parses statements until 'end' or end of input. It leaves
// curToken on the terminating token.
func (p *parser) parseBlock() []Statement {
	var stmts []Statement
	for p.err == nil {
		p.skipNewlines()
		if p.curToken.Type == tokenEOF || p.curToken.Type == tokenEnd {
			break
		}
		stmt := p.parseStatement()
		if stmt == nil || !p.endStatement() {
			break
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}

// endStatement consumes the statement terminator following curToken.
func (p *parser) endStatement() bool {
	switch p.peekToken.Type {
	case tokenNewline:
		p.nextToken()
		p.nextToken()
		return true
	case tokenEOF, tokenEnd:
		p.nextToken()
		return true
	default:
		p.errorUnexpected(p.peekToken)
		return false
	}
}

func (p *parser) skipNewlines() {
	for p.curToken.Type == tokenNewline {
		p.nextToken()
	}
}

func (p *parser) skipPeekNewlines() {
	for p.peekToken.Type == tokenNewline {
		p.nextToken()
	}
}

func (p *parser) parseStatement() Statement {
	switch p.curToken.Type {
	case tokenClass:
		return p.parseClassStatement()
	case tokenDef:
		p.addParseError(p.curToken.Pos, "def is only allowed inside a class body", false)
		return nil
	case tokenReturn:
		return p.parseReturnStatement()
	case tokenPrint:
		return p.parsePrintStatement()
	default:
		return p.parseExpressionOrAssignStatement()
	}
}

func (p *parser) parseClassStatement() Statement {
	stmt := &ClassStmt{position: p.curToken.Pos}
	if !p.expectPeek(tokenIdent) {
		return nil
	}
	stmt.Name = p.curToken.Literal

	if p.peekToken.Type == tokenLT {
		p.nextToken()
		p.nextToken()
		stmt.Parent = p.parseExpression(precLowest)
		if stmt.Parent == nil {
			return nil
		}
	}
	if !p.expectPeek(tokenNewline) {
		return nil
	}
	p.nextToken()

	for {
		p.skipNewlines()
		switch p.curToken.Type {
		case tokenDef:
			method := p.parseMethod()
			if method == nil {
				return nil
			}
			stmt.Methods = append(stmt.Methods, method)
			p.nextToken()
		case tokenEnd:
			return stmt
		case tokenEOF:
			p.addParseError(p.curToken.Pos, fmt.Sprintf("expected 'end' to close class %s", stmt.Name), true)
			return nil
		default:
			p.errorExpected(p.curToken, "'def' or 'end'")
			return nil
		}
	}
}

func (p *parser) parseMethod() *MethodStmt {
	method := &MethodStmt{position: p.curToken.Pos}
	if p.peekToken.Type == tokenSelf {
		p.nextToken()
		if !p.expectPeek(tokenDot) {
			return nil
		}
		method.Static = true
	}
	p.nextToken()
	if !isName(p.curToken) {
		p.errorExpected(p.curToken, "method name")
		return nil
	}
	method.Name = p.curToken.Literal

	if p.peekToken.Type == tokenLParen {
		p.nextToken()
		params, ok := p.parseParams()
		if !ok {
			return nil
		}
		method.Params = params
	}
	if !p.expectPeek(tokenNewline) {
		return nil
	}
	bodyStart := p.curToken.Offset + len(p.curToken.Literal)
	p.nextToken()

	method.Body = p.parseBlock()
	if p.err != nil {
		return nil
	}
	if p.curToken.Type != tokenEnd {
		p.addParseError(p.curToken.Pos, fmt.Sprintf("expected 'end' to close def %s", method.Name), true)
		return nil
	}
	method.Source = strings.TrimSpace(p.l.input[bodyStart:p.curToken.Offset])
	return method
}

func (p *parser) parseParams() ([]string, bool) {
	var params []string
	if p.peekToken.Type == tokenRParen {
		p.nextToken()
		return params, true
	}
	for {
		if !p.expectPeek(tokenIdent) {
			return nil, false
		}
		params = append(params, p.curToken.Literal)
		if p.peekToken.Type != tokenComma {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(tokenRParen) {
		return nil, false
	}
	return params, true
}

func (p *parser) parseReturnStatement() Statement {
	stmt := &ReturnStmt{position: p.curToken.Pos}
	switch p.peekToken.Type {
	case tokenNewline, tokenEOF, tokenEnd:
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpression(precLowest)
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *parser) parsePrintStatement() Statement {
	stmt := &PrintStmt{position: p.curToken.Pos}
	switch p.peekToken.Type {
	case tokenNewline, tokenEOF, tokenEnd:
		return stmt
	}
	for {
		p.nextToken()
		arg := p.parseExpression(precLowest)
		if arg == nil {
			return nil
		}
		stmt.Args = append(stmt.Args, arg)
		if p.peekToken.Type != tokenComma {
			return stmt
		}
		p.nextToken()
	}
}

func (p *parser) parseExpressionOrAssignStatement() Statement {
	pos := p.curToken.Pos
	expr := p.parseExpression(precLowest)
	if expr == nil {
		return nil
	}
	if p.peekToken.Type != tokenAssign {
		return &ExprStmt{Expr: expr, position: pos}
	}

	switch expr.(type) {
	case *Identifier, *MemberExpr:
	default:
		p.addParseError(expr.Pos(), "invalid assignment target", false)
		return nil
	}
	p.nextToken()
	p.nextToken()
	value := p.parseExpression(precLowest)
	if value == nil {
		return nil
	}
	return &AssignStmt{Target: expr, Value: value, position: pos}
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
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return precLowest
}

func (p *parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return precLowest
}

func (p *parser) parseIdentifier() Expression {
	return &Identifier{Name: p.curToken.Literal, position: p.curToken.Pos}
}

func (p *parser) parseIntegerLiteral() Expression {
	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.addParseError(p.curToken.Pos, fmt.Sprintf("invalid integer %s", p.curToken.Literal), false)
		return nil
	}
	return &IntegerLiteral{Value: value, position: p.curToken.Pos}
}

func (p *parser) parseFloatLiteral() Expression {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addParseError(p.curToken.Pos, fmt.Sprintf("invalid float %s", p.curToken.Literal), false)
		return nil
	}
	return &FloatLiteral{Value: value, position: p.curToken.Pos}
}

func (p *parser) parseStringLiteral() Expression {
	return &StringLiteral{Value: p.curToken.Literal, position: p.curToken.Pos}
}

func (p *parser) parseBoolLiteral() Expression {
	return &BoolLiteral{Value: p.curToken.Type == tokenTrue, position: p.curToken.Pos}
}

func (p *parser) parseNilLiteral() Expression {
	return &NilLiteral{position: p.curToken.Pos}
}

func (p *parser) parseSelf() Expression {
	return &SelfExpr{position: p.curToken.Pos}
}

func (p *parser) parseBase() Expression {
	expr := &BaseExpr{position: p.curToken.Pos}
	if p.peekToken.Type == tokenLParen {
		p.nextToken()
		args, ok := p.parseExpressionList(tokenRParen)
		if !ok {
			return nil
		}
		expr.Args = args
	}
	return expr
}

func (p *parser) parseGroupedExpression() Expression {
	p.skipPeekNewlines()
	p.nextToken()
	expr := p.parseExpression(precLowest)
	if expr == nil {
		return nil
	}
	p.skipPeekNewlines()
	if !p.expectPeek(tokenRParen) {
		return nil
	}
	return expr
}

func (p *parser) parseNegation() Expression {
	pos := p.curToken.Pos
	p.nextToken()
	right := p.parseExpression(precSum)
	if right == nil {
		return nil
	}
	switch lit := right.(type) {
	case *IntegerLiteral:
		lit.Value, lit.position = -lit.Value, pos
		return lit
	case *FloatLiteral:
		lit.Value, lit.position = -lit.Value, pos
		return lit
	}
	return &InfixExpr{Operator: tokenMinus, Left: &IntegerLiteral{position: pos}, Right: right, position: pos}
}

func (p *parser) parseArrayLiteral() Expression {
	pos := p.curToken.Pos
	elements, ok := p.parseExpressionList(tokenRBracket)
	if !ok {
		return nil
	}
	return &ArrayLiteral{Elements: elements, position: pos}
}

func (p *parser) parseObjectLiteral() Expression {
	lit := &ObjectLiteral{position: p.curToken.Pos}
	for {
		p.skipPeekNewlines()
		if p.peekToken.Type == tokenRBrace {
			p.nextToken()
			return lit
		}
		p.nextToken()
		if !isName(p.curToken) && p.curToken.Type != tokenString {
			p.errorExpected(p.curToken, "member name")
			return nil
		}
		key := p.curToken.Literal
		if !p.expectPeek(tokenColon) {
			return nil
		}
		p.skipPeekNewlines()
		p.nextToken()
		value := p.parseExpression(precLowest)
		if value == nil {
			return nil
		}
		lit.Keys = append(lit.Keys, key)
		lit.Values = append(lit.Values, value)

		p.skipPeekNewlines()
		if p.peekToken.Type == tokenComma {
			p.nextToken()
			continue
		}
		if !p.expectPeek(tokenRBrace) {
			return nil
		}
		return lit
	}
}

func (p *parser) parseInfixExpression(left Expression) Expression {
	expr := &InfixExpr{Operator: p.curToken.Type, Left: left, position: p.curToken.Pos}
	precedence := p.curPrecedence()
	p.skipPeekNewlines()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *parser) parseCallExpression(callee Expression) Expression {
	pos := p.curToken.Pos
	args, ok := p.parseExpressionList(tokenRParen)
	if !ok {
		return nil
	}
	return &CallExpr{Callee: callee, Args: args, position: pos}
}

func (p *parser) parseMemberExpression(object Expression) Expression {
	pos := p.curToken.Pos
	p.nextToken()
	if !isName(p.curToken) {
		p.errorExpected(p.curToken, "member name")
		return nil
	}
	return &MemberExpr{Object: object, Property: p.curToken.Literal, position: pos}
}

// parseExpressionList parses a comma separated list ending with end. Newlines
// between elements are ignored.
func (p *parser) parseExpressionList(end TokenType) ([]Expression, bool) {
	var list []Expression
	p.skipPeekNewlines()
	if p.peekToken.Type == end {
		p.nextToken()
		return list, true
	}
	for {
		p.skipPeekNewlines()
		p.nextToken()
		expr := p.parseExpression(precLowest)
		if expr == nil {
			return nil, false
		}
		list = append(list, expr)
		p.skipPeekNewlines()
		if p.peekToken.Type != tokenComma {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(end) {
		return nil, false
	}
	return list, true
}

func (p *parser) expectPeek(tt TokenType) bool {
	if p.peekToken.Type == tt {
		p.nextToken()
		return true
	}
	if tt == tokenNewline && p.peekToken.Type == tokenEOF {
		p.nextToken()
		p.addParseError(p.curToken.Pos, "unexpected end of input", true)
		return false
	}
	p.errorExpected(p.peekToken, tokenLabel(tt))
	return false
}

// isName reports whether tok can be used as a member name. Keywords are
// accepted so members such as base or class stay reachable.
func isName(tok Token) bool {
	if tok.Type == tokenIdent {
		return true
	}
	tt, ok := keywords[tok.Literal]
	return ok && tt == tok.Type
}

func (p *parser) errorExpected(tok Token, expected string) {
	p.addParseError(tok.Pos, fmt.Sprintf("expected %s, got %s", expected, tokenLabel(tok.Type)), tok.Type == tokenEOF)
}

func (p *parser) errorUnexpected(tok Token) {
	p.addParseError(tok.Pos, fmt.Sprintf("unexpected %s", tokenLabel(tok.Type)), tok.Type == tokenEOF)
}

func (p *parser) addParseError(pos Position, msg string, incomplete bool) {
	if p.err != nil {
		return
	}
	p.err = &ParseError{Pos: pos, Msg: msg, Incomplete: incomplete, source: p.l.input}
}
