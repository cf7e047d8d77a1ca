package runtime

import (
	"fmt"
	"unicode/utf8"

	"veon/internal/span"
)

// RegisterBuiltins adds built-in functions to the given environment.
func RegisterBuiltins(env *Environment) {
	define := func(name string, params int, fn BuiltinFn) {
		env.Define(name, &BuiltinVal{Name: name, Params: params, Fn: fn})
	}

	define("print", -1, func(in *Interpreter, args []Value, _ span.Span) (Value, error) {
		fmt.Fprintln(in.output, ValuesString(args, " "))
		return NullVal{}, nil
	})

	define("typeOf", 1, func(_ *Interpreter, args []Value, _ span.Span) (Value, error) {
		return StringVal(args[0].TypeName()), nil
	})

	define("toString", 1, func(_ *Interpreter, args []Value, _ span.Span) (Value, error) {
		return StringVal(args[0].String()), nil
	})

	define("len", 1, func(_ *Interpreter, args []Value, at span.Span) (Value, error) {
		switch v := args[0].(type) {
		case StringVal:
			return NumberVal(utf8.RuneCountInString(string(v))), nil
		case *ArrayVal:
			return NumberVal(len(v.Elements)), nil
		default:
			return nil, runtimeErr(TypeError, at, "len() not supported for %s", args[0].TypeName())
		}
	})

	define("push", 2, func(_ *Interpreter, args []Value, at span.Span) (Value, error) {
		arr, ok := args[0].(*ArrayVal)
		if !ok {
			return nil, runtimeErr(TypeError, at, "push() first argument must be an array, got %s", args[0].TypeName())
		}
		arr.Elements = append(arr.Elements, args[1])
		return NumberVal(len(arr.Elements)), nil
	})

	define("pop", 1, func(_ *Interpreter, args []Value, at span.Span) (Value, error) {
		arr, ok := args[0].(*ArrayVal)
		if !ok {
			return nil, runtimeErr(TypeError, at, "pop() argument must be an array, got %s", args[0].TypeName())
		}
		if len(arr.Elements) == 0 {
			return nil, runtimeErr(IndexError, at, "pop() on empty array")
		}
		last := arr.Elements[len(arr.Elements)-1]
		arr.Elements = arr.Elements[:len(arr.Elements)-1]
		return last, nil
	})
}
