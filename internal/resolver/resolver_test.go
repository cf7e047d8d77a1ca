package resolver_test

import (
	"testing"

	"veon/internal/ast"
	"veon/internal/lexer"
	"veon/internal/parser"
	"veon/internal/resolver"
)

func lexAndParse(t *testing.T, input string) *ast.Program {
	t.Helper()
	tokens, lexDiags := lexer.New(input, "test.veon").Tokenize()
	if len(lexDiags) != 0 {
		t.Fatalf("lexer errors: %v", lexDiags)
	}
	prog, parseDiags := parser.New(tokens).ParseProgram()
	if len(parseDiags) != 0 {
		t.Fatalf("parser errors: %v", parseDiags)
	}
	return prog
}

func TestResolverAcceptsValidPrograms(t *testing.T) {
	inputs := []string{
		`fun f(x) { return x + 1; } f(1);`,
		`class A { fun init(v) { this.v = v; } fun get() { fun inner() { return this.v; } return inner(); } }`,
		`let x = 1; let x = x + 1;`, // globals may be redeclared and read
		`{ let y = 1; { let z = y + 1; } }`,
		`{ let y = 1; { let y = y + 10; } }`,
		`fun f() { let x = 1; let x = x + 1; return x; }`,
		`fun g() { let b = b + 1; }`,
		`for (let i = 0; i < 3; i = i + 1) { let j = i; }`,
		`fun outer() { fun f() { return; } return f; }`,
	}
	for _, input := range inputs {
		if diags := resolver.Check(lexAndParse(t, input)); len(diags) != 0 {
			t.Errorf("%s: unexpected diagnostics: %v", input, diags)
		}
	}
}

func TestResolverErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
	}{
		{"top-level return", `return 1;`, "E3001"},
		{"return in top-level block", `if (true) { return; }`, "E3001"},
		{"this outside class", `this;`, "E3002"},
		{"this in plain function", `fun f() { return this; }`, "E3002"},
		{"duplicate parameter", `fun f(a, a) { }`, "E3003"},
		{"duplicate method parameter", `class A { fun m(x, y, x) { } }`, "E3003"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := resolver.Check(lexAndParse(t, tt.input))
			if len(diags) != 1 {
				t.Fatalf("expected 1 diagnostic, got %d: %v", len(diags), diags)
			}
			if diags[0].Code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, diags[0])
			}
		})
	}
}

func TestResolverStopsAfterTooManyErrors(t *testing.T) {
	input := ""
	for i := 0; i < 20; i++ {
		input += "return;\n"
	}
	r := resolver.New()
	r.Resolve(lexAndParse(t, input))
	if n := len(r.Diagnostics()); n != 10 {
		t.Errorf("expected 10 diagnostics, got %d", n)
	}
}
