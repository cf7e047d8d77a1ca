// Package frontend chains the lexer, parser and resolver.
package frontend

import (
	"veon/internal/ast"
	"veon/internal/diag"
	"veon/internal/lexer"
	"veon/internal/parser"
	"veon/internal/resolver"
)

// Parse turns source text into a checked program. When a stage reports
// errors, the remaining stages are skipped and the diagnostics are returned
// as a diag.List.
func Parse(src, filename string) (*ast.Program, error) {
	tokens, diags := lexer.New(src, filename).Tokenize()
	if err := asError(diags); err != nil {
		return nil, err
	}

	prog, diags := parser.New(tokens).WithFilename(filename).ParseProgram()
	if err := asError(diags); err != nil {
		return nil, err
	}

	if err := asError(resolver.Check(prog)); err != nil {
		return nil, err
	}
	return prog, nil
}

func asError(diags []diag.Diagnostic) error {
	list := diag.List(diags)
	if !list.HasErrors() {
		return nil
	}
	return list
}
