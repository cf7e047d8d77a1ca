package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"veon/internal/runtime"
)

func writeScript(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.veon")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := runCLI(append([]string{"-no-color"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunPrintsFinalValue(t *testing.T) {
	path := writeScript(t, `print("hi"); 1 + 2;`)
	for _, args := range [][]string{{path}, {"run", path}} {
		code, out, errOut := run(args...)
		if code != 0 {
			t.Fatalf("%v: exit %d, stderr: %s", args, code, errOut)
		}
		if out != "hi\n3\n" {
			t.Errorf("%v: unexpected stdout %q", args, out)
		}
	}
}

func TestRunSampleProgram(t *testing.T) {
	code, out, errOut := run(filepath.Join("..", "..", "testdata", "sample.veon"))
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, errOut)
	}
	if strings.TrimSpace(out) != "11" {
		t.Errorf("expected 11, got %q", out)
	}
}

func TestRunStatementResultIsNull(t *testing.T) {
	code, out, _ := run(writeScript(t, `let x = 1;`))
	if code != 0 || out != "null\n" {
		t.Errorf("expected null with exit 0, got %d %q", code, out)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"lex", `let s = "open`, "[E1001] LexError"},
		{"parse", `let = 1;`, "[E2001] ParseError"},
		{"static", `return 1;`, "[E3001] StaticError"},
		{"runtime", "fun f() { return 1 + true; }\nf();", "TypeError at 1:18"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := run(writeScript(t, tt.source))
			if code != 1 {
				t.Errorf("expected exit 1, got %d", code)
			}
			if out != "" {
				t.Errorf("expected empty stdout, got %q", out)
			}
			if !strings.Contains(errOut, tt.want) {
				t.Errorf("expected %q in stderr, got %q", tt.want, errOut)
			}
		})
	}
}

func TestRuntimeErrorIncludesTrace(t *testing.T) {
	_, _, errOut := run(writeScript(t, "fun f() { return 1 + true; }\nf();"))
	if !strings.Contains(errOut, "\n  at f (2:1)") {
		t.Errorf("expected stack frame in %q", errOut)
	}
}

func TestMaxDepthFlag(t *testing.T) {
	path := writeScript(t, `fun f(n) { return f(n + 1); } f(0);`)
	code, _, errOut := run("-max-depth", "20", path)
	if code != 1 || !strings.Contains(errOut, "maximum call depth 20 exceeded") {
		t.Errorf("expected recursion error, got %d %q", code, errOut)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "veon.yaml")
	if err := os.WriteFile(cfgPath, []byte("max_call_depth: 7\nlog_level: warning\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := writeScript(t, `fun f(n) { return f(n + 1); } f(0);`)

	_, _, errOut := run("-config", cfgPath, path)
	if !strings.Contains(errOut, "maximum call depth 7 exceeded") {
		t.Errorf("expected config depth to apply, got %q", errOut)
	}

	// flags override the file
	_, _, errOut = run("-config", cfgPath, "-max-depth", "9", path)
	if !strings.Contains(errOut, "maximum call depth 9 exceeded") {
		t.Errorf("expected flag to override config, got %q", errOut)
	}

	t.Setenv("VEON_CONFIG", cfgPath)
	_, _, errOut = run(path)
	if !strings.Contains(errOut, "maximum call depth 7 exceeded") {
		t.Errorf("expected $VEON_CONFIG to apply, got %q", errOut)
	}
}

func TestBadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte("unknown_key: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, errOut := run("-config", cfgPath, writeScript(t, `1;`))
	if code != 1 || !strings.Contains(errOut, "unknown_key") {
		t.Errorf("expected config error, got %d %q", code, errOut)
	}
	code, _, errOut = run("-log-level", "loud", writeScript(t, `1;`))
	if code != 1 || !strings.Contains(errOut, "unknown log_level") {
		t.Errorf("expected log level error, got %d %q", code, errOut)
	}
}

func TestTokensCommand(t *testing.T) {
	path := writeScript(t, `let x = "a";`)
	code, out, _ := run("tokens", path)
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(out, "let") || !strings.Contains(out, `"a"`) || !strings.Contains(out, "EOF") {
		t.Errorf("unexpected token listing:\n%s", out)
	}

	code, out, _ = run("tokens", path, "--json")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(out, `"kind": "IDENT"`) || !strings.Contains(out, `"diagnostics": []`) {
		t.Errorf("unexpected JSON:\n%s", out)
	}
}

func TestParseCommand(t *testing.T) {
	code, out, _ := run("parse", writeScript(t, `let x = 1;`))
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(out, `"kind": "Program"`) || !strings.Contains(out, `"kind": "LetStmt"`) {
		t.Errorf("unexpected AST:\n%s", out)
	}

	code, out, _ = run("parse", writeScript(t, `let = 1;`))
	if code != 1 || !strings.Contains(out, `"code": "E2001"`) {
		t.Errorf("expected diagnostics in JSON, got %d:\n%s", code, out)
	}
}

func TestUsageErrors(t *testing.T) {
	if code, _, _ := run(); code != 1 {
		t.Errorf("expected exit 1 without a command, got %d", code)
	}
	if code, _, errOut := run("frobnicate"); code != 1 || !strings.Contains(errOut, "unknown command") {
		t.Errorf("expected unknown command, got %d %q", code, errOut)
	}
	if code, _, errOut := run("run"); code != 1 || !strings.Contains(errOut, "missing file argument") {
		t.Errorf("expected missing file, got %d %q", code, errOut)
	}
	if code, _, errOut := run("run", "/no/such/file.veon"); code != 1 || !strings.Contains(errOut, "cannot read file") {
		t.Errorf("expected read error, got %d %q", code, errOut)
	}
	if code, out, _ := run("help"); code != 0 || !strings.Contains(out, "Usage:") {
		t.Errorf("expected usage on stdout, got %d %q", code, out)
	}
}

func TestBraceDelta(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{`fun f() {`, 1},
		{`}`, -1},
		{`if (x) { y(); }`, 0},
		{`let s = "{";`, 0},
		{`let s = "\"{";`, 0},
		{`x = 1; // {`, 0},
		{`class A { fun m() {`, 2},
	}
	for _, tt := range tests {
		if got := braceDelta(tt.line); got != tt.want {
			t.Errorf("braceDelta(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}

func TestReplSession(t *testing.T) {
	var out, errOut bytes.Buffer
	s := &replSession{
		interp: runtime.NewInterpreter(&out, runtime.DefaultOptions()),
		out:    &out,
		errOut: &errOut,
		styles: newStyles(false),
	}

	lines := []string{
		`let x = 2;`,
		`fun double(n) {`,
		`  return n * 2;`,
		`}`,
		`double(x);`,
		`print("side");`,
		`missing;`,
		`x + 1;`,
	}
	for _, l := range lines {
		s.feed(l)
		if l == `fun double(n) {` && !s.pending() {
			t.Errorf("expected pending input after an open brace")
		}
	}

	if got := out.String(); got != "4\nside\n3\n" {
		t.Errorf("unexpected REPL output %q", got)
	}
	if !strings.Contains(errOut.String(), "undefined variable 'missing'") {
		t.Errorf("expected error output, got %q", errOut.String())
	}
}

func TestReplSessionCancelledEvaluation(t *testing.T) {
	var out, errOut bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	s := &replSession{
		interp: runtime.NewInterpreter(&out, runtime.DefaultOptions()),
		out:    &out,
		errOut: &errOut,
		styles: newStyles(false),
		ctx:    ctx,
	}

	s.feed(`let n = 1;`)
	cancel()
	s.feed(`while (true) { n = n + 1; }`)
	if !strings.Contains(errOut.String(), "CancelledError") {
		t.Fatalf("expected the loop to stop with a CancelledError, got %q", errOut.String())
	}

	// the session survives and keeps its globals
	errOut.Reset()
	s.ctx = context.Background()
	s.feed(`n;`)
	if errOut.Len() != 0 {
		t.Fatalf("unexpected error after cancellation: %q", errOut.String())
	}
	if got := out.String(); got != "1\n" {
		t.Errorf("expected n to be untouched by the cancelled loop, got %q", got)
	}
}
