package runtime

import (
	"math"

	"veon/internal/span"
	"veon/internal/token"
)

// binaryOp applies an arithmetic, comparison or equality operator to two evaluated operands.
func binaryOp(op token.Kind, left, right Value, s span.Span) (Value, error) {
	switch op {
	case token.EQ:
		return BoolVal(Equal(left, right)), nil
	case token.NEQ:
		return BoolVal(!Equal(left, right)), nil
	case token.PLUS:
		return add(left, right, s)
	}

	l, lok := left.(NumberVal)
	r, rok := right.(NumberVal)
	if !lok || !rok {
		return nil, runtimeErr(TypeError, s, "operands of '%s' must be numbers, got %s and %s",
			op, left.TypeName(), right.TypeName())
	}

	switch op {
	case token.MINUS:
		return l - r, nil
	case token.STAR:
		return l * r, nil
	case token.SLASH:
		if r == 0 {
			return nil, runtimeErr(ArithmeticError, s, "division by zero")
		}
		return l / r, nil
	case token.PERCENT:
		if r == 0 {
			return nil, runtimeErr(ArithmeticError, s, "modulo by zero")
		}
		return NumberVal(math.Mod(float64(l), float64(r))), nil
	case token.LT:
		return BoolVal(l < r), nil
	case token.LTE:
		return BoolVal(l <= r), nil
	case token.GT:
		return BoolVal(l > r), nil
	case token.GTE:
		return BoolVal(l >= r), nil
	default:
		return nil, runtimeErr(TypeError, s, "unknown binary operator: %s", op)
	}
}

// add implements '+': numeric addition, string concatenation when either
// side is a string, and array concatenation into a new array.
func add(left, right Value, s span.Span) (Value, error) {
	switch l := left.(type) {
	case NumberVal:
		if r, ok := right.(NumberVal); ok {
			return l + r, nil
		}
	case *ArrayVal:
		if r, ok := right.(*ArrayVal); ok {
			elems := make([]Value, 0, len(l.Elements)+len(r.Elements))
			elems = append(elems, l.Elements...)
			elems = append(elems, r.Elements...)
			return &ArrayVal{Elements: elems}, nil
		}
	}
	_, leftIsStr := left.(StringVal)
	_, rightIsStr := right.(StringVal)
	if leftIsStr || rightIsStr {
		return StringVal(left.String() + right.String()), nil
	}
	return nil, runtimeErr(TypeError, s, "cannot apply '+' to %s and %s", left.TypeName(), right.TypeName())
}

// unaryOp applies '-' or '!'.
func unaryOp(op token.Kind, operand Value, s span.Span) (Value, error) {
	switch op {
	case token.MINUS:
		if n, ok := operand.(NumberVal); ok {
			return -n, nil
		}
		return nil, runtimeErr(TypeError, s, "operand of '-' must be a number, got %s", operand.TypeName())
	case token.BANG:
		if b, ok := operand.(BoolVal); ok {
			return !b, nil
		}
		return nil, runtimeErr(TypeError, s, "operand of '!' must be a bool, got %s", operand.TypeName())
	default:
		return nil, runtimeErr(TypeError, s, "unknown unary operator: %s", op)
	}
}

// toIndex validates an index against a length.
func toIndex(idx Value, length int, s span.Span) (int, error) {
	n, ok := idx.(NumberVal)
	if !ok {
		return 0, runtimeErr(TypeError, s, "index must be a number, got %s", idx.TypeName())
	}
	f := float64(n)
	if f != math.Trunc(f) {
		return 0, runtimeErr(IndexError, s, "index %s is not an integer", n)
	}
	if f < 0 || f >= float64(length) {
		return 0, runtimeErr(IndexError, s, "index %s out of range (length %d)", n, length)
	}
	return int(f), nil
}
