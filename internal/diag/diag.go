// Package diag provides compile-time diagnostics reported by the lexer, parser and resolver.
package diag

import (
	"fmt"
	"strings"

	"veon/internal/span"
)

// Severity indicates the severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Class groups diagnostics by the front-end stage that produced them.
// It is derived from the first digit of the code: E1xxx lexing, E2xxx parsing, E3xxx static checks.
type Class string

const (
	LexError    Class = "LexError"
	ParseError  Class = "ParseError"
	StaticError Class = "StaticError"
)

// Diagnostic represents a compiler diagnostic message.
type Diagnostic struct {
	Code     string    `json:"code"`     // stable error code, e.g. "E1001"
	Severity Severity  `json:"severity"` // error or warning
	Message  string    `json:"message"`
	Span     span.Span `json:"span"`
	Hint     string    `json:"hint,omitempty"`
}

// Class returns the error class of the diagnostic.
func (d Diagnostic) Class() Class {
	if len(d.Code) >= 2 {
		switch d.Code[1] {
		case '1':
			return LexError
		case '3':
			return StaticError
		}
	}
	return ParseError
}

// String returns a human-readable representation of the diagnostic.
func (d Diagnostic) String() string {
	msg := fmt.Sprintf("[%s] %s at %s: %s", d.Code, d.Class(), d.Span.Start, d.Message)
	if d.Hint != "" {
		msg += " (hint: " + d.Hint + ")"
	}
	return msg
}

// Errorf creates an error diagnostic at the given span.
func Errorf(code string, s span.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// Warningf creates a warning diagnostic at the given span.
func Warningf(code string, s span.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: Warning,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// List is a non-empty set of diagnostics returned as a single error.
type List []Diagnostic

func (l List) Error() string {
	parts := make([]string, len(l))
	for i, d := range l {
		parts[i] = d.String()
	}
	return strings.Join(parts, "\n")
}

// HasErrors reports whether any diagnostic in the list has error severity.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == Error {
			return true
		}
	}
	return false
}
