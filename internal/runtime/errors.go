package runtime

import (
	"fmt"
	"strings"

	"veon/internal/span"
)

// ErrorKind classifies a runtime failure.
type ErrorKind string

const (
	UndefinedNameError ErrorKind = "UndefinedNameError"
	ArityError         ErrorKind = "ArityError"
	TypeError          ErrorKind = "TypeError"
	IndexError         ErrorKind = "IndexError"
	PropertyError      ErrorKind = "PropertyError"
	ArithmeticError    ErrorKind = "ArithmeticError"
	RecursionError     ErrorKind = "RecursionError"
	CancelledError     ErrorKind = "CancelledError"
	// StaticError is raised when a program that skipped the resolver
	// uses return or this where they are not allowed.
	StaticError ErrorKind = "StaticError"
)

// StackFrame is one call on the path to a runtime error.
type StackFrame struct {
	Function string
	Pos      span.Position // call site
}

// RuntimeError represents an error during interpretation.
// Frames are ordered innermost first.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	Span    span.Span
	Frames  []StackFrame

	cause error
}

const (
	frameHead = 8
	frameTail = 8
)

func (e *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s at %s: %s", e.Kind, e.Span.Start, e.Message)

	renderFrame := func(f StackFrame) {
		fmt.Fprintf(&b, "\n  at %s (%s)", f.Function, f.Pos)
	}
	if len(e.Frames) <= frameHead+frameTail {
		for _, f := range e.Frames {
			renderFrame(f)
		}
		return b.String()
	}
	for _, f := range e.Frames[:frameHead] {
		renderFrame(f)
	}
	fmt.Fprintf(&b, "\n  ... %d frames omitted ...", len(e.Frames)-frameHead-frameTail)
	for _, f := range e.Frames[len(e.Frames)-frameTail:] {
		renderFrame(f)
	}
	return b.String()
}

// Unwrap exposes the underlying cause, e.g. context.Canceled for a CancelledError.
func (e *RuntimeError) Unwrap() error {
	return e.cause
}

func runtimeErr(kind ErrorKind, s span.Span, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...), Span: s}
}
