// Package resolver performs the static checks that run between parsing and
// evaluation: misplaced return and this, and duplicate parameters.
package resolver

import (
	"fmt"

	"veon/internal/ast"
	"veon/internal/diag"
	"veon/internal/span"
)

// maxErrors caps the number of diagnostics reported for a single program.
const maxErrors = 10

// Control flags: whether we are inside a function body, or a method body.
const (
	inFunc = 1 << iota
	inMethod
)

// Resolver walks a program and collects StaticError diagnostics.
type Resolver struct {
	diags []diag.Diagnostic
	ctrl  uint8
}

// New creates a resolver.
func New() *Resolver {
	return &Resolver{}
}

// Check runs the static checks over a whole program.
func Check(prog *ast.Program) []diag.Diagnostic {
	r := New()
	r.Resolve(prog)
	return r.diags
}

// Resolve walks every top-level statement of the program.
// Diagnostics accumulate and can be read with Diagnostics.
func (r *Resolver) Resolve(prog *ast.Program) {
	for _, stmt := range prog.Body {
		r.stmt(stmt)
		if len(r.diags) >= maxErrors {
			break
		}
	}
}

// Diagnostics returns everything reported so far.
func (r *Resolver) Diagnostics() []diag.Diagnostic { return r.diags }

func (r *Resolver) err(code string, s span.Span, format string, args ...interface{}) {
	r.diags = append(r.diags, diag.Errorf(code, s, format, args...))
}

// ==========
// Statements
// ==========

func (r *Resolver) stmt(node ast.Stmt) {
	switch n := node.(type) {
	case *ast.LetStmt:
		r.expr(n.Init)
	case *ast.ExprStmt:
		r.expr(n.Expr)
	case *ast.BlockStmt:
		r.block(n)
	case *ast.IfStmt:
		r.expr(n.Condition)
		r.block(n.Then)
		if n.Else != nil {
			r.stmt(n.Else)
		}
	case *ast.WhileStmt:
		r.expr(n.Condition)
		r.block(n.Body)
	case *ast.ForStmt:
		if n.Init != nil {
			r.stmt(n.Init)
		}
		if n.Condition != nil {
			r.expr(n.Condition)
		}
		if n.Update != nil {
			r.expr(n.Update)
		}
		r.block(n.Body)
	case *ast.ReturnStmt:
		if r.ctrl&inFunc == 0 {
			r.err("E3001", n.Span, "cannot return from top-level code")
		}
		if n.Value != nil {
			r.expr(n.Value)
		}
	case *ast.FunDecl:
		r.function(n, r.ctrl|inFunc)
	case *ast.ClassDecl:
		for _, m := range n.Methods {
			r.function(m, r.ctrl|inFunc|inMethod)
		}
	case nil:
	default:
		panic(fmt.Sprintf("resolver: unhandled statement %T", node))
	}
}

func (r *Resolver) block(b *ast.BlockStmt) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		r.stmt(s)
	}
}

// function resolves a function or method body with the given control flags.
// Nested functions inherit inMethod, so closures created inside a method may use this.
func (r *Resolver) function(fn *ast.FunDecl, ctrl uint8) {
	saved := r.ctrl
	r.ctrl = ctrl
	seen := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		if seen[p] {
			r.err("E3003", fn.Span, "duplicate parameter '%s' in function '%s'", p, fn.Name)
		}
		seen[p] = true
	}
	if fn.Body != nil {
		for _, s := range fn.Body.Stmts {
			r.stmt(s)
		}
	}
	r.ctrl = saved
}

// ===========
// Expressions
// ===========

func (r *Resolver) expr(node ast.Expr) {
	switch n := node.(type) {
	case *ast.ThisExpr:
		if r.ctrl&inMethod == 0 {
			r.err("E3002", n.Span, "cannot use 'this' outside of a method")
		}
	case *ast.IdentExpr, *ast.NumberLiteral, *ast.StringLiteral, *ast.BoolLiteral, *ast.NullLiteral:
	case *ast.UnaryExpr:
		r.expr(n.Operand)
	case *ast.BinaryExpr:
		r.expr(n.Left)
		r.expr(n.Right)
	case *ast.LogicalExpr:
		r.expr(n.Left)
		r.expr(n.Right)
	case *ast.AssignExpr:
		r.expr(n.Value)
		r.expr(n.Target)
	case *ast.CallExpr:
		r.expr(n.Callee)
		for _, a := range n.Args {
			r.expr(a)
		}
	case *ast.IndexExpr:
		r.expr(n.Object)
		r.expr(n.Index)
	case *ast.MemberExpr:
		r.expr(n.Object)
	case *ast.ArrayLiteral:
		for _, e := range n.Elements {
			r.expr(e)
		}
	case nil:
	default:
		panic(fmt.Sprintf("resolver: unhandled expression %T", node))
	}
}
