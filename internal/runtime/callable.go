package runtime

import (
	"fmt"

	"veon/internal/ast"
	"veon/internal/span"
)

// Callable is implemented by every value that can appear before '(' in a call.
type Callable interface {
	Value
	// Arity is the exact number of arguments expected, or -1 for variadic builtins.
	Arity() int
	Call(in *Interpreter, args []Value, at span.Span) (Value, error)
}

// FuncVal represents a user-defined function (closure) or a class method.
type FuncVal struct {
	Name    string
	Params  []string
	Body    *ast.BlockStmt
	Closure *Environment
	Class   string // owning class for methods, empty for plain functions
}

func (v *FuncVal) TypeName() string { return "function" }
func (v *FuncVal) String() string   { return fmt.Sprintf("<fun %s>", v.qualifiedName()) }
func (*FuncVal) value()             {}

func (v *FuncVal) Arity() int { return len(v.Params) }

func (v *FuncVal) Call(in *Interpreter, args []Value, at span.Span) (Value, error) {
	return in.callFunction(v, v.Closure, args, at)
}

func (v *FuncVal) qualifiedName() string {
	if v.Class != "" {
		return v.Class + "." + v.Name
	}
	return v.Name
}

// BuiltinFn is the Go signature for built-in functions.
type BuiltinFn func(in *Interpreter, args []Value, at span.Span) (Value, error)

// BuiltinVal represents a built-in (native) function.
type BuiltinVal struct {
	Name   string
	Params int // -1 for variadic
	Fn     BuiltinFn
}

func (v *BuiltinVal) TypeName() string { return "builtin" }
func (v *BuiltinVal) String() string   { return fmt.Sprintf("<builtin %s>", v.Name) }
func (*BuiltinVal) value()             {}

func (v *BuiltinVal) Arity() int { return v.Params }

func (v *BuiltinVal) Call(in *Interpreter, args []Value, at span.Span) (Value, error) {
	return v.Fn(in, args, at)
}
