// Package ast defines the abstract syntax tree for veon.
package ast

import (
	"veon/internal/span"
	"veon/internal/token"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct{ NodeBase }

func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// Program (top-level AST root)
// ============================================================

// Program represents an entire source file.
type Program struct {
	NodeBase
	Filename string
	Body     []Stmt
}

// ============================================================
// Expressions
// ============================================================

// IdentExpr represents an identifier reference.
type IdentExpr struct {
	ExprBase
	Name string
}

// NumberLiteral represents a number literal. All numbers are float64.
type NumberLiteral struct {
	ExprBase
	Value float64
}

// StringLiteral represents a string literal.
type StringLiteral struct {
	ExprBase
	Value string
}

// BoolLiteral represents true or false.
type BoolLiteral struct {
	ExprBase
	Value bool
}

// NullLiteral represents null.
type NullLiteral struct {
	ExprBase
}

// ThisExpr represents the 'this' keyword.
type ThisExpr struct {
	ExprBase
}

// UnaryExpr represents a unary operation: -x, !x.
type UnaryExpr struct {
	ExprBase
	Op      token.Kind
	Operand Expr
}

// BinaryExpr represents an arithmetic, comparison or equality operation.
type BinaryExpr struct {
	ExprBase
	Op    token.Kind
	Left  Expr
	Right Expr
}

// LogicalExpr represents a short-circuiting 'and' / 'or'.
type LogicalExpr struct {
	ExprBase
	Op    token.Kind // KW_AND or KW_OR
	Left  Expr
	Right Expr
}

// AssignExpr represents target = value. Target is an *IdentExpr,
// *MemberExpr or *IndexExpr; the parser rejects anything else.
type AssignExpr struct {
	ExprBase
	Target Expr
	Value  Expr
}

// CallExpr represents a call: f(a, b).
type CallExpr struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

// IndexExpr represents indexing: a[i].
type IndexExpr struct {
	ExprBase
	Object Expr
	Index  Expr
}

// MemberExpr represents property access: a.b.
type MemberExpr struct {
	ExprBase
	Object   Expr
	Property string
}

// ArrayLiteral represents an array literal: [a, b, c].
type ArrayLiteral struct {
	ExprBase
	Elements []Expr
}

// ============================================================
// Statements
// ============================================================

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// LetStmt represents: let name = init;
type LetStmt struct {
	StmtBase
	Name string
	Init Expr
}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	StmtBase
	Value Expr // may be nil
}

// BlockStmt represents a block of statements: { ... }.
type BlockStmt struct {
	StmtBase
	Stmts []Stmt
}

// IfStmt represents if/else. Else is nil, a *BlockStmt, or an *IfStmt for else-if chains.
type IfStmt struct {
	StmtBase
	Condition Expr
	Then      *BlockStmt
	Else      Stmt
}

// WhileStmt represents a while loop.
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      *BlockStmt
}

// ForStmt represents a C-style for loop: for (init; condition; update) { body }.
type ForStmt struct {
	StmtBase
	Init      Stmt // *LetStmt, *ExprStmt, or nil
	Condition Expr // nil means true
	Update    Expr // may be nil
	Body      *BlockStmt
}

// ============================================================
// Declarations
// ============================================================

// FunDecl represents a function declaration, and a method inside a class body.
type FunDecl struct {
	StmtBase
	Name   string
	Params []string
	Body   *BlockStmt
}

// ClassDecl represents: class Name { fun m(...) {...} ... }.
type ClassDecl struct {
	StmtBase
	Name    string
	Methods []*FunDecl
}
