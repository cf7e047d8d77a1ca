package runtime

import (
	"context"
	"errors"
	"io"

	log "fortio.org/log"

	"veon/internal/ast"
	"veon/internal/span"
	"veon/internal/token"
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
type ExecSignal int

const (
	SigNone   ExecSignal = iota
	SigReturn            // return from function
)

// ExecResult carries a control flow signal and an optional value (for return).
type ExecResult struct {
	Signal ExecSignal
	Value  Value
}

var resultNone = ExecResult{Signal: SigNone}

// ============================================================
// Interpreter
// ============================================================

// Options tunes an Interpreter.
type Options struct {
	// MaxCallDepth bounds nested calls; exceeding it raises a RecursionError.
	MaxCallDepth int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{MaxCallDepth: 1000}
}

// Interpreter walks the AST and executes it.
// Global state persists across runs, so a REPL can feed it one program at a time.
type Interpreter struct {
	global *Environment
	env    *Environment
	output io.Writer
	opts   Options

	ctx   context.Context
	depth int
}

// NewInterpreter creates a new interpreter with built-in functions registered.
func NewInterpreter(output io.Writer, opts Options) *Interpreter {
	if opts.MaxCallDepth <= 0 {
		opts.MaxCallDepth = DefaultOptions().MaxCallDepth
	}
	global := NewEnvironment(nil)
	RegisterBuiltins(global)
	return &Interpreter{
		global: global,
		env:    global,
		output: output,
		opts:   opts,
		ctx:    context.Background(),
	}
}

// Run executes a program and returns the value of its last top-level
// statement: the expression's value for an expression statement, null otherwise.
func (i *Interpreter) Run(prog *ast.Program) (Value, error) {
	return i.RunContext(context.Background(), prog)
}

// RunContext is Run with cancellation. The context is checked on every call
// and loop iteration.
func (i *Interpreter) RunContext(ctx context.Context, prog *ast.Program) (Value, error) {
	i.ctx = ctx
	i.depth = 0
	i.env = i.global
	defer func() { i.ctx = context.Background() }()

	var last Value = NullVal{}
	for _, stmt := range prog.Body {
		if es, ok := stmt.(*ast.ExprStmt); ok {
			val, err := i.evalExpr(es.Expr)
			if err != nil {
				return nil, err
			}
			last = val
			continue
		}

		result, err := i.execStmt(stmt)
		if err != nil {
			return nil, err
		}
		if result.Signal == SigReturn {
			return nil, runtimeErr(StaticError, stmt.GetSpan(), "cannot return from top-level code")
		}
		last = NullVal{}
	}
	return last, nil
}

// checkCancel turns a done context into a CancelledError.
func (i *Interpreter) checkCancel(s span.Span) error {
	if err := i.ctx.Err(); err != nil {
		re := runtimeErr(CancelledError, s, "execution cancelled: %v", err)
		re.cause = err
		return re
	}
	return nil
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execStmt(stmt ast.Stmt) (ExecResult, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := i.evalExpr(s.Expr)
		return resultNone, err

	case *ast.LetStmt:
		val, err := i.evalExpr(s.Init)
		if err != nil {
			return resultNone, err
		}
		i.env.Define(s.Name, val)
		return resultNone, nil

	case *ast.ReturnStmt:
		var val Value = NullVal{}
		if s.Value != nil {
			v, err := i.evalExpr(s.Value)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		return ExecResult{Signal: SigReturn, Value: val}, nil

	case *ast.IfStmt:
		return i.execIf(s)

	case *ast.WhileStmt:
		return i.execWhile(s)

	case *ast.ForStmt:
		return i.execFor(s)

	case *ast.BlockStmt:
		return i.execBlock(s, NewEnvironment(i.env))

	case *ast.FunDecl:
		i.env.Define(s.Name, &FuncVal{
			Name:    s.Name,
			Params:  s.Params,
			Body:    s.Body,
			Closure: i.env,
		})
		return resultNone, nil

	case *ast.ClassDecl:
		return i.execClassDecl(s)

	default:
		return resultNone, runtimeErr(TypeError, stmt.GetSpan(), "unhandled statement type: %T", stmt)
	}
}

// condition evaluates a branch or loop condition, which must be a bool.
func (i *Interpreter) condition(expr ast.Expr, what string) (bool, error) {
	val, err := i.evalExpr(expr)
	if err != nil {
		return false, err
	}
	b, ok := val.(BoolVal)
	if !ok {
		return false, runtimeErr(TypeError, expr.GetSpan(), "%s condition must be a bool, got %s", what, val.TypeName())
	}
	return bool(b), nil
}

func (i *Interpreter) execIf(s *ast.IfStmt) (ExecResult, error) {
	ok, err := i.condition(s.Condition, "if")
	if err != nil {
		return resultNone, err
	}
	if ok {
		return i.execBlock(s.Then, NewEnvironment(i.env))
	}

	switch e := s.Else.(type) {
	case *ast.IfStmt:
		return i.execIf(e)
	case *ast.BlockStmt:
		return i.execBlock(e, NewEnvironment(i.env))
	}
	return resultNone, nil
}

func (i *Interpreter) execWhile(s *ast.WhileStmt) (ExecResult, error) {
	for {
		if err := i.checkCancel(s.GetSpan()); err != nil {
			return resultNone, err
		}
		ok, err := i.condition(s.Condition, "while")
		if err != nil {
			return resultNone, err
		}
		if !ok {
			break
		}

		result, err := i.execBlock(s.Body, NewEnvironment(i.env))
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigReturn {
			return result, nil // propagate return
		}
	}
	return resultNone, nil
}

// execFor runs a C-style loop with a fresh copy of the loop scope per
// iteration: init runs once in the loop scope, each iteration evaluates the
// condition and body against its own copy, and the copy is cloned again
// before update, so closures from different iterations see different values.
func (i *Interpreter) execFor(s *ast.ForStmt) (ExecResult, error) {
	prevEnv := i.env
	defer func() { i.env = prevEnv }()

	loopEnv := NewEnvironment(prevEnv)
	i.env = loopEnv
	if s.Init != nil {
		if _, err := i.execStmt(s.Init); err != nil {
			return resultNone, err
		}
	}

	iter := loopEnv.Clone()
	for {
		if err := i.checkCancel(s.GetSpan()); err != nil {
			return resultNone, err
		}
		i.env = iter

		if s.Condition != nil {
			ok, err := i.condition(s.Condition, "for")
			if err != nil {
				return resultNone, err
			}
			if !ok {
				break
			}
		}

		result, err := i.execBlock(s.Body, NewEnvironment(iter))
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigReturn {
			return result, nil
		}

		iter = iter.Clone()
		i.env = iter
		if s.Update != nil {
			if _, err := i.evalExpr(s.Update); err != nil {
				return resultNone, err
			}
		}
	}
	return resultNone, nil
}

func (i *Interpreter) execBlock(block *ast.BlockStmt, blockEnv *Environment) (ExecResult, error) {
	prevEnv := i.env
	i.env = blockEnv
	defer func() { i.env = prevEnv }()

	for _, stmt := range block.Stmts {
		result, err := i.execStmt(stmt)
		if err != nil {
			return resultNone, err
		}
		if result.Signal != SigNone {
			return result, nil // propagate signal
		}
	}
	return resultNone, nil
}

func (i *Interpreter) execClassDecl(s *ast.ClassDecl) (ExecResult, error) {
	cls := &ClassVal{Name: s.Name, Methods: make(map[string]*FuncVal, len(s.Methods))}
	for _, m := range s.Methods {
		cls.Methods[m.Name] = &FuncVal{
			Name:    m.Name,
			Params:  m.Params,
			Body:    m.Body,
			Closure: i.env,
			Class:   s.Name,
		}
	}
	log.LogVf("declare class %s with %d methods", s.Name, len(cls.Methods))
	i.env.Define(s.Name, cls)
	return resultNone, nil
}

// ============================================================
// Calls
// ============================================================

// call invokes any callable value after checking its arity.
func (i *Interpreter) call(callee Value, args []Value, at span.Span) (Value, error) {
	fn, ok := callee.(Callable)
	if !ok {
		return nil, runtimeErr(TypeError, at, "can only call functions and classes, got %s", callee.TypeName())
	}
	if arity := fn.Arity(); arity >= 0 && arity != len(args) {
		return nil, runtimeErr(ArityError, at, "%s expected %d arguments but got %d", fn, arity, len(args))
	}
	return fn.Call(i, args, at)
}

// callFunction runs a function body in a new frame under parent with the
// parameters bound to args. Arity has already been checked.
func (i *Interpreter) callFunction(fn *FuncVal, parent *Environment, args []Value, at span.Span) (Value, error) {
	i.depth++
	defer func() { i.depth-- }()
	if i.depth > i.opts.MaxCallDepth {
		return nil, runtimeErr(RecursionError, at, "maximum call depth %d exceeded", i.opts.MaxCallDepth)
	}
	if err := i.checkCancel(at); err != nil {
		return nil, err
	}
	if log.LogVerbose() {
		log.LogVf("call %s with %d args at %s (depth %d)", fn.qualifiedName(), len(args), at.Start, i.depth)
	}

	frame := NewEnvironment(parent)
	for idx, param := range fn.Params {
		frame.Define(param, args[idx])
	}

	result, err := i.execBlock(fn.Body, frame)
	if err != nil {
		var re *RuntimeError
		if errors.As(err, &re) {
			re.Frames = append(re.Frames, StackFrame{Function: fn.qualifiedName(), Pos: at.Start})
		}
		return nil, err
	}
	if result.Signal == SigReturn {
		return result.Value, nil
	}
	return NullVal{}, nil
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return NumberVal(e.Value), nil
	case *ast.StringLiteral:
		return StringVal(e.Value), nil
	case *ast.BoolLiteral:
		return BoolVal(e.Value), nil
	case *ast.NullLiteral:
		return NullVal{}, nil
	case *ast.ThisExpr:
		val, ok := i.env.Get("this")
		if !ok {
			return nil, runtimeErr(StaticError, e.GetSpan(), "cannot use 'this' outside of a method")
		}
		return val, nil
	case *ast.IdentExpr:
		val, ok := i.env.Get(e.Name)
		if !ok {
			return nil, runtimeErr(UndefinedNameError, e.GetSpan(), "undefined variable '%s'", e.Name)
		}
		return val, nil
	case *ast.UnaryExpr:
		operand, err := i.evalExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		return unaryOp(e.Op, operand, e.GetSpan())
	case *ast.BinaryExpr:
		left, err := i.evalExpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := i.evalExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return binaryOp(e.Op, left, right, e.GetSpan())
	case *ast.LogicalExpr:
		return i.evalLogical(e)
	case *ast.AssignExpr:
		return i.evalAssign(e)
	case *ast.CallExpr:
		return i.evalCall(e)
	case *ast.MemberExpr:
		return i.evalMember(e)
	case *ast.IndexExpr:
		return i.evalIndex(e)
	case *ast.ArrayLiteral:
		elems := make([]Value, len(e.Elements))
		for idx, el := range e.Elements {
			val, err := i.evalExpr(el)
			if err != nil {
				return nil, err
			}
			elems[idx] = val
		}
		return &ArrayVal{Elements: elems}, nil
	default:
		return nil, runtimeErr(TypeError, expr.GetSpan(), "unhandled expression type: %T", expr)
	}
}

// evalLogical short-circuits 'and' / 'or'. Both operands must be bools.
func (i *Interpreter) evalLogical(e *ast.LogicalExpr) (Value, error) {
	left, err := i.boolOperand(e.Left, e.Op)
	if err != nil {
		return nil, err
	}
	if e.Op == token.KW_OR && left {
		return BoolVal(true), nil
	}
	if e.Op == token.KW_AND && !left {
		return BoolVal(false), nil
	}
	right, err := i.boolOperand(e.Right, e.Op)
	if err != nil {
		return nil, err
	}
	return BoolVal(right), nil
}

func (i *Interpreter) boolOperand(expr ast.Expr, op token.Kind) (bool, error) {
	val, err := i.evalExpr(expr)
	if err != nil {
		return false, err
	}
	b, ok := val.(BoolVal)
	if !ok {
		return false, runtimeErr(TypeError, expr.GetSpan(), "operands of '%s' must be bools, got %s", op, val.TypeName())
	}
	return bool(b), nil
}

// evalAssign evaluates the target's object and index before the value,
// stores the value and yields it.
func (i *Interpreter) evalAssign(e *ast.AssignExpr) (Value, error) {
	switch target := e.Target.(type) {
	case *ast.IdentExpr:
		val, err := i.evalExpr(e.Value)
		if err != nil {
			return nil, err
		}
		if err := i.env.Set(target.Name, val); err != nil {
			return nil, runtimeErr(UndefinedNameError, target.GetSpan(), "undefined variable '%s'", target.Name)
		}
		return val, nil

	case *ast.MemberExpr:
		obj, err := i.evalExpr(target.Object)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*InstanceVal)
		if !ok {
			return nil, runtimeErr(TypeError, target.GetSpan(), "cannot set property '%s' on %s", target.Property, obj.TypeName())
		}
		val, err := i.evalExpr(e.Value)
		if err != nil {
			return nil, err
		}
		inst.Set(target.Property, val)
		return val, nil

	case *ast.IndexExpr:
		obj, err := i.evalExpr(target.Object)
		if err != nil {
			return nil, err
		}
		idx, err := i.evalExpr(target.Index)
		if err != nil {
			return nil, err
		}
		val, err := i.evalExpr(e.Value)
		if err != nil {
			return nil, err
		}
		arr, ok := obj.(*ArrayVal)
		if !ok {
			return nil, runtimeErr(TypeError, target.GetSpan(), "cannot assign by index into %s", obj.TypeName())
		}
		n, err := toIndex(idx, len(arr.Elements), target.Index.GetSpan())
		if err != nil {
			return nil, err
		}
		arr.Elements[n] = val
		return val, nil

	default:
		return nil, runtimeErr(TypeError, e.GetSpan(), "invalid assignment target")
	}
}

func (i *Interpreter) evalCall(e *ast.CallExpr) (Value, error) {
	callee, err := i.evalExpr(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for idx, argExpr := range e.Args {
		val, err := i.evalExpr(argExpr)
		if err != nil {
			return nil, err
		}
		args[idx] = val
	}

	return i.call(callee, args, e.GetSpan())
}

func (i *Interpreter) evalMember(e *ast.MemberExpr) (Value, error) {
	obj, err := i.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}

	inst, ok := obj.(*InstanceVal)
	if !ok {
		return nil, runtimeErr(TypeError, e.GetSpan(), "cannot access property '%s' on %s", e.Property, obj.TypeName())
	}
	val, ok := inst.Get(e.Property)
	if !ok {
		return nil, runtimeErr(PropertyError, e.GetSpan(), "undefined property '%s' on %s", e.Property, inst)
	}
	return val, nil
}

func (i *Interpreter) evalIndex(e *ast.IndexExpr) (Value, error) {
	obj, err := i.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}
	idx, err := i.evalExpr(e.Index)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case *ArrayVal:
		n, err := toIndex(idx, len(o.Elements), e.Index.GetSpan())
		if err != nil {
			return nil, err
		}
		return o.Elements[n], nil
	case StringVal:
		runes := []rune(string(o))
		n, err := toIndex(idx, len(runes), e.Index.GetSpan())
		if err != nil {
			return nil, err
		}
		return StringVal(string(runes[n])), nil
	default:
		return nil, runtimeErr(TypeError, e.GetSpan(), "cannot index %s", obj.TypeName())
	}
}
