// Package parser implements syntax analysis for veon.
// It uses Pratt parsing for expressions and recursive descent for statements and declarations.
package parser

import (
	"fmt"
	"strconv"

	"veon/internal/ast"
	"veon/internal/diag"
	"veon/internal/span"
	"veon/internal/token"
)

// ============================================================
// Binding power (precedence) levels
// ============================================================

const (
	bpNone       = 0
	bpAssign     = 5  // = (right associative)
	bpOr         = 10 // or
	bpAnd        = 20 // and
	bpEquality   = 30 // == !=
	bpComparison = 40 // < <= > >=
	bpAdditive   = 50 // + -
	bpMultiply   = 60 // * / %
	bpPrefix     = 70 // ! -
	bpPostfix    = 80 // () [] .
)

// infixBP returns the left binding power for an infix/postfix operator.
func infixBP(kind token.Kind) int {
	switch kind {
	case token.ASSIGN:
		return bpAssign
	case token.KW_OR:
		return bpOr
	case token.KW_AND:
		return bpAnd
	case token.EQ, token.NEQ:
		return bpEquality
	case token.LT, token.LTE, token.GT, token.GTE:
		return bpComparison
	case token.PLUS, token.MINUS:
		return bpAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return bpMultiply
	case token.LPAREN, token.LBRACKET, token.DOT:
		return bpPostfix
	default:
		return bpNone
	}
}

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens   []token.Token
	filename string
	pos      int
	diags    []diag.Diagnostic

	lastErr int // offset of the token that produced the last error, -1 if none
}

// New creates a new parser from a token slice.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, lastErr: -1}
}

// WithFilename records the source name on the parsed program.
func (p *Parser) WithFilename(name string) *Parser {
	p.filename = name
	return p
}

// ParseProgram parses the entire token stream and returns the AST root and diagnostics.
func (p *Parser) ParseProgram() (*ast.Program, []diag.Diagnostic) {
	prog := &ast.Program{Filename: p.filename}
	startPos := p.peek().Span.Start

	for !p.isAtEnd() {
		if stmt := p.parseStmtProgress(); stmt != nil {
			prog.Body = append(prog.Body, stmt)
		}
	}

	prog.Span = span.Span{Start: startPos, End: p.peek().Span.End}
	return prog, p.diags
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) > 0 {
			last := p.tokens[len(p.tokens)-1]
			return token.Token{Kind: token.EOF, Span: span.Span{Start: last.Span.End, End: last.Span.End}}
		}
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

func (p *Parser) expect(kind token.Kind) (token.Token, bool) {
	if p.check(kind) {
		return p.advance(), true
	}
	tok := p.peek()
	p.error("E2001", tok.Span, fmt.Sprintf("expected '%s', got '%s'", kind, describe(tok)))
	return tok, false
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

// error records a diagnostic. Only the first error at a given token is kept,
// which stops one bad token from producing a cascade of reports.
func (p *Parser) error(code string, s span.Span, msg string) {
	if s.Start.Offset == p.lastErr {
		return
	}
	p.lastErr = s.Start.Offset
	p.diags = append(p.diags, diag.Errorf(code, s, "%s", msg))
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.IDENT, token.NUMBER:
		return tok.Lexeme
	case token.STRING:
		return strconv.Quote(tok.Lexeme)
	default:
		return tok.Kind.String()
	}
}

// ============================================================
// Error recovery
// ============================================================

// synchronize skips tokens until a likely statement boundary.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.check(token.SEMICOLON) {
			p.advance()
			return
		}
		if p.check(token.RBRACE) {
			return
		}
		if p.match(token.KW_LET, token.KW_FUN, token.KW_CLASS, token.KW_IF,
			token.KW_WHILE, token.KW_FOR, token.KW_RETURN) {
			return
		}
		p.advance()
	}
}

// parseStmtProgress parses one statement and guarantees that at least one
// token is consumed, so that callers looping until '}' or EOF always terminate.
func (p *Parser) parseStmtProgress() ast.Stmt {
	before := p.pos
	stmt := p.parseStmt()
	if p.pos == before {
		p.advance()
	}
	return stmt
}

// ============================================================
// Statement parsing
// ============================================================

func (p *Parser) parseStmt() ast.Stmt {
	switch p.peekKind() {
	case token.KW_LET:
		return p.parseLetStmt()
	case token.KW_FUN:
		return p.parseFunDecl()
	case token.KW_CLASS:
		return p.parseClassDecl()
	case token.KW_IF:
		return p.parseIfStmt()
	case token.KW_WHILE:
		return p.parseWhileStmt()
	case token.KW_FOR:
		return p.parseForStmt()
	case token.KW_RETURN:
		return p.parseReturnStmt()
	case token.LBRACE:
		return p.parseBlock()
	default:
		return p.parseExprStmt()
	}
}

// parseLetStmt parses: let IDENT = expr ;
func (p *Parser) parseLetStmt() ast.Stmt {
	start := p.advance() // consume 'let'
	stmt := &ast.LetStmt{}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}
	stmt.Name = nameTok.Lexeme

	if _, ok := p.expect(token.ASSIGN); !ok {
		p.synchronize()
		stmt.Span = p.makeSpan(start.Span.Start)
		return stmt
	}
	stmt.Init = p.parseRequiredExpr()
	p.expectSemicolon()

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseExprStmt parses: expr ;
func (p *Parser) parseExprStmt() ast.Stmt {
	tok := p.peek()
	expr := p.parseExpr(bpNone)
	if expr == nil {
		p.error("E2002", tok.Span, fmt.Sprintf("unexpected token: '%s'", describe(tok)))
		p.synchronize()
		return nil
	}
	p.expectSemicolon()
	return &ast.ExprStmt{
		StmtBase: makeStmtBase(expr.GetSpan().Start, p.prevEnd()),
		Expr:     expr,
	}
}

func (p *Parser) expectSemicolon() {
	if _, ok := p.expect(token.SEMICOLON); !ok {
		p.synchronize()
	}
}

// parseIfStmt parses: if (expr) block [ else (block | ifStmt) ]
func (p *Parser) parseIfStmt() *ast.IfStmt {
	start := p.advance() // consume 'if'
	stmt := &ast.IfStmt{}

	stmt.Condition = p.parseCondition()
	stmt.Then = p.parseBlock()

	if p.check(token.KW_ELSE) {
		p.advance()
		if p.check(token.KW_IF) {
			stmt.Else = p.parseIfStmt()
		} else {
			stmt.Else = p.parseBlock()
		}
	}

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseWhileStmt parses: while (expr) block
func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	start := p.advance() // consume 'while'
	stmt := &ast.WhileStmt{}
	stmt.Condition = p.parseCondition()
	stmt.Body = p.parseBlock()
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseCondition parses: ( expr )
func (p *Parser) parseCondition() ast.Expr {
	p.expect(token.LPAREN)
	cond := p.parseRequiredExpr()
	p.expect(token.RPAREN)
	return cond
}

// parseForStmt parses: for ( [let | exprStmt | ;] [cond] ; [update] ) block
func (p *Parser) parseForStmt() *ast.ForStmt {
	start := p.advance() // consume 'for'
	stmt := &ast.ForStmt{}

	p.expect(token.LPAREN)

	switch {
	case p.check(token.SEMICOLON):
		p.advance()
	case p.check(token.KW_LET):
		stmt.Init = p.parseLetStmt()
	default:
		if init := p.parseExprStmt(); init != nil {
			stmt.Init = init
		}
	}

	if !p.check(token.SEMICOLON) {
		stmt.Condition = p.parseRequiredExpr()
	}
	p.expect(token.SEMICOLON)

	if !p.check(token.RPAREN) {
		stmt.Update = p.parseRequiredExpr()
	}
	p.expect(token.RPAREN)

	stmt.Body = p.parseBlock()
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseReturnStmt parses: return [expr] ;
func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.advance() // consume 'return'
	stmt := &ast.ReturnStmt{}

	if !p.check(token.SEMICOLON) {
		stmt.Value = p.parseRequiredExpr()
	}
	p.expectSemicolon()

	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseBlock parses: { stmts }
func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.peek()
	block := &ast.BlockStmt{}

	if _, ok := p.expect(token.LBRACE); !ok {
		p.synchronize()
		block.Span = p.makeSpan(start.Span.Start)
		return block
	}

	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if stmt := p.parseStmtProgress(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}

	p.expect(token.RBRACE)
	block.Span = p.makeSpan(start.Span.Start)
	return block
}

// ============================================================
// Declaration parsing
// ============================================================

// parseFunDecl parses: fun IDENT ( params ) block
func (p *Parser) parseFunDecl() *ast.FunDecl {
	start := p.advance() // consume 'fun'
	decl := &ast.FunDecl{}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}
	decl.Name = nameTok.Lexeme

	decl.Params = p.parseParamList()
	decl.Body = p.parseBlock()
	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

// parseClassDecl parses: class IDENT { funDecl* }
func (p *Parser) parseClassDecl() *ast.ClassDecl {
	start := p.advance() // consume 'class'
	decl := &ast.ClassDecl{}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}
	decl.Name = nameTok.Lexeme

	if _, ok := p.expect(token.LBRACE); !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}

	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if p.check(token.KW_FUN) {
			decl.Methods = append(decl.Methods, p.parseFunDecl())
			continue
		}
		tok := p.advance()
		p.error("E2003", tok.Span, fmt.Sprintf("expected method declaration, got '%s'", describe(tok)))
		p.synchronize()
	}

	p.expect(token.RBRACE)
	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

// parseParamList parses: ( ident, ident, ... )
func (p *Parser) parseParamList() []string {
	var params []string

	if _, ok := p.expect(token.LPAREN); !ok {
		return params
	}

	if !p.check(token.RPAREN) {
		for {
			nameTok, ok := p.expect(token.IDENT)
			if ok {
				params = append(params, nameTok.Lexeme)
			}
			if !p.check(token.COMMA) {
				break
			}
			p.advance() // consume ','
		}
	}

	p.expect(token.RPAREN)
	return params
}

// ============================================================
// Expression parsing (Pratt / precedence climbing)
// ============================================================

// parseRequiredExpr parses an expression and reports E2002 if none is present.
func (p *Parser) parseRequiredExpr() ast.Expr {
	tok := p.peek()
	expr := p.parseExpr(bpNone)
	if expr == nil {
		p.error("E2002", tok.Span, fmt.Sprintf("expected expression, got '%s'", describe(tok)))
		return &ast.NullLiteral{ExprBase: makeExprBase(tok.Span.Start, tok.Span.End)}
	}
	return expr
}

// parseExpr parses an expression with the given minimum binding power.
func (p *Parser) parseExpr(minBP int) ast.Expr {
	left := p.nud()
	if left == nil {
		return nil
	}

	for {
		bp := infixBP(p.peekKind())
		if bp <= minBP {
			break
		}
		left = p.led(left)
	}

	return left
}

// nud handles prefix (null denotation) parsing.
func (p *Parser) nud() ast.Expr {
	tok := p.peek()
	base := makeExprBase(tok.Span.Start, tok.Span.End)

	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		val, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.error("E2005", tok.Span, fmt.Sprintf("invalid number literal '%s'", tok.Lexeme))
		}
		return &ast.NumberLiteral{ExprBase: base, Value: val}

	case token.STRING:
		p.advance()
		return &ast.StringLiteral{ExprBase: base, Value: tok.Lexeme}

	case token.KW_TRUE, token.KW_FALSE:
		p.advance()
		return &ast.BoolLiteral{ExprBase: base, Value: tok.Kind == token.KW_TRUE}

	case token.KW_NULL:
		p.advance()
		return &ast.NullLiteral{ExprBase: base}

	case token.KW_THIS:
		p.advance()
		return &ast.ThisExpr{ExprBase: base}

	case token.IDENT:
		p.advance()
		return &ast.IdentExpr{ExprBase: base, Name: tok.Lexeme}

	case token.LPAREN:
		// Grouped expression: ( expr )
		p.advance()
		expr := p.parseRequiredExpr()
		p.expect(token.RPAREN)
		return expr

	case token.BANG, token.MINUS:
		p.advance()
		operand := p.parseExpr(bpPrefix)
		if operand == nil {
			next := p.peek()
			p.error("E2002", next.Span, fmt.Sprintf("expected operand after '%s', got '%s'", tok.Kind, describe(next)))
			return &ast.NullLiteral{ExprBase: base}
		}
		return &ast.UnaryExpr{
			ExprBase: makeExprBase(tok.Span.Start, operand.GetSpan().End),
			Op:       tok.Kind,
			Operand:  operand,
		}

	case token.LBRACKET:
		return p.parseArrayLiteral()

	default:
		return nil
	}
}

// led handles infix/postfix (left denotation) parsing.
func (p *Parser) led(left ast.Expr) ast.Expr {
	tok := p.peek()

	switch tok.Kind {
	case token.ASSIGN:
		p.advance()
		// right associative: a = b = c
		value := p.parseExpr(bpAssign - 1)
		if value == nil {
			next := p.peek()
			p.error("E2002", next.Span, fmt.Sprintf("expected expression after '=', got '%s'", describe(next)))
			return left
		}
		switch left.(type) {
		case *ast.IdentExpr, *ast.MemberExpr, *ast.IndexExpr:
		default:
			p.error("E2004", left.GetSpan(), "invalid assignment target")
		}
		return &ast.AssignExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, value.GetSpan().End),
			Target:   left,
			Value:    value,
		}

	case token.KW_AND, token.KW_OR:
		p.advance()
		right := p.parseOperand(tok)
		return &ast.LogicalExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, right.GetSpan().End),
			Op:       tok.Kind,
			Left:     left,
			Right:    right,
		}

	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE:
		// Binary infix operator (left-associative)
		p.advance()
		right := p.parseOperand(tok)
		return &ast.BinaryExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, right.GetSpan().End),
			Op:       tok.Kind,
			Left:     left,
			Right:    right,
		}

	case token.LPAREN:
		return p.parseCallExpr(left)

	case token.LBRACKET:
		p.advance() // consume '['
		index := p.parseRequiredExpr()
		end, _ := p.expect(token.RBRACKET)
		return &ast.IndexExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, end.Span.End),
			Object:   left,
			Index:    index,
		}

	case token.DOT:
		p.advance() // consume '.'
		propTok, _ := p.expect(token.IDENT)
		return &ast.MemberExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, propTok.Span.End),
			Object:   left,
			Property: propTok.Lexeme,
		}

	default:
		p.advance()
		p.error("E2002", tok.Span, fmt.Sprintf("unexpected token: '%s'", describe(tok)))
		return left
	}
}

// parseOperand parses the right-hand side of a binary operator.
func (p *Parser) parseOperand(op token.Token) ast.Expr {
	right := p.parseExpr(infixBP(op.Kind))
	if right == nil {
		next := p.peek()
		p.error("E2002", next.Span, fmt.Sprintf("expected expression after '%s', got '%s'", op.Kind, describe(next)))
		return &ast.NullLiteral{ExprBase: makeExprBase(next.Span.Start, next.Span.Start)}
	}
	return right
}

// parseCallExpr parses: callee ( args )
func (p *Parser) parseCallExpr(callee ast.Expr) *ast.CallExpr {
	p.advance() // consume '('
	args := p.parseExprList(token.RPAREN)
	end, _ := p.expect(token.RPAREN)

	return &ast.CallExpr{
		ExprBase: makeExprBase(callee.GetSpan().Start, end.Span.End),
		Callee:   callee,
		Args:     args,
	}
}

// parseArrayLiteral parses: [ expr, expr, ... ]
func (p *Parser) parseArrayLiteral() *ast.ArrayLiteral {
	start := p.advance() // consume '['
	elements := p.parseExprList(token.RBRACKET)
	end, _ := p.expect(token.RBRACKET)

	return &ast.ArrayLiteral{
		ExprBase: makeExprBase(start.Span.Start, end.Span.End),
		Elements: elements,
	}
}

// parseExprList parses a comma-separated expression list up to (not including) closer.
func (p *Parser) parseExprList(closer token.Kind) []ast.Expr {
	var exprs []ast.Expr
	if p.check(closer) {
		return exprs
	}
	exprs = append(exprs, p.parseRequiredExpr())
	for p.check(token.COMMA) {
		p.advance() // consume ','
		exprs = append(exprs, p.parseRequiredExpr())
	}
	return exprs
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.prevEnd()}
}

func makeExprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

func makeStmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}
