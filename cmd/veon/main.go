// Command veon is the CLI entry point for the veon language.
//
// Usage:
//
//	veon [flags] <file>                 Run a source file
//	veon [flags] run <file>             Run a source file
//	veon [flags] tokens <file> [--json] Print tokens
//	veon [flags] parse <file>           Print AST as JSON
//	veon [flags] repl                   Start interactive REPL
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	log "fortio.org/log"

	"veon/internal/ast"
	"veon/internal/config"
	"veon/internal/diag"
	"veon/internal/frontend"
	"veon/internal/lexer"
	"veon/internal/parser"
	"veon/internal/runtime"
)

func main() {
	os.Exit(runCLI(os.Args[1:], os.Stdout, os.Stderr))
}

// app carries the resolved settings and output streams of one CLI invocation.
type app struct {
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer
	styles styles
}

// runCLI parses global flags, loads configuration and dispatches the command.
// It returns the process exit code.
func runCLI(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("veon", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	cfgPath := fs.String("config", "", "YAML config file (default $"+config.EnvVar+")")
	verbose := fs.Bool("v", false, "verbose logging (same as -log-level verbose)")
	logLevel := fs.String("log-level", "", "log level: debug, verbose, info, warning, error")
	maxDepth := fs.Int("max-depth", 0, "maximum call depth before a RecursionError")
	noColor := fs.Bool("no-color", false, "disable styled output")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	cfg, err := loadConfig(config.Locate(*cfgPath))
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.LogLevel = *logLevel
		case "max-depth":
			cfg.MaxCallDepth = *maxDepth
		case "no-color":
			cfg.Color = !*noColor
		}
	})
	if *verbose {
		cfg.LogLevel = "verbose"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	applyLogLevel(cfg.LogLevel)

	a := &app{cfg: cfg, stdout: stdout, stderr: stderr, styles: newStyles(cfg.Color)}
	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr)
		return 1
	}

	command, operands := rest[0], rest[1:]
	switch command {
	case "run":
		return a.withFile(operands, a.cmdRun)
	case "tokens":
		jsonMode := hasFlag(operands, "--json")
		return a.withFile(operands, func(source, filename string) int {
			return a.cmdTokens(source, filename, jsonMode)
		})
	case "parse":
		return a.withFile(operands, a.cmdParse)
	case "repl":
		return a.cmdRepl()
	case "help":
		usage(stdout)
		return 0
	default:
		if strings.HasSuffix(command, ".veon") || fileExists(command) {
			return a.withFile(rest, a.cmdRun)
		}
		fmt.Fprintf(stderr, "error: unknown command '%s'\n", command)
		usage(stderr)
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  veon [flags] <file>                  Run a source file")
	fmt.Fprintln(w, "  veon [flags] run    <file>           Run a source file")
	fmt.Fprintln(w, "  veon [flags] tokens <file> [--json]  Tokenize and print tokens")
	fmt.Fprintln(w, "  veon [flags] parse  <file>           Parse and print AST (JSON)")
	fmt.Fprintln(w, "  veon [flags] repl                    Start interactive REPL")
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <file>     YAML config file (default $"+config.EnvVar+")")
	fmt.Fprintln(w, "  -v                 verbose logging")
	fmt.Fprintln(w, "  -log-level <lvl>   debug, verbose, info, warning, error")
	fmt.Fprintln(w, "  -max-depth <n>     maximum call depth")
	fmt.Fprintln(w, "  -no-color          disable styled output")
}

// loadConfig returns the defaults, or the file at path layered over them.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	log.Infof("loaded config from %s", path)
	return cfg, nil
}

func applyLogLevel(name string) {
	levels := map[string]log.Level{
		"debug":   log.Debug,
		"verbose": log.Verbose,
		"info":    log.Info,
		"warning": log.Warning,
		"error":   log.Error,
	}
	lvl, ok := levels[strings.ToLower(name)]
	if !ok {
		log.Warnf("unknown log level %q, keeping info", name)
		lvl = log.Info
	}
	log.SetLogLevel(lvl)
}

// withFile reads the file named by the first operand and hands it to fn.
func (a *app) withFile(operands []string, fn func(source, filename string) int) int {
	if len(operands) == 0 {
		fmt.Fprintln(a.stderr, a.styles.err.Render("error: missing file argument"))
		return 1
	}
	filename := operands[0]
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintln(a.stderr, a.styles.err.Render(fmt.Sprintf("error: cannot read file %s: %v", filename, err)))
		return 1
	}
	return fn(string(source), filename)
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func hasFlag(args []string, name string) bool {
	for _, arg := range args {
		if arg == name {
			return true
		}
	}
	return false
}

// ---- tokens command ----

func (a *app) cmdTokens(source, filename string, jsonMode bool) int {
	tokens, diags := lexer.New(source, filename).Tokenize()

	if jsonMode {
		if err := printTokensJSON(a.stdout, tokens, diags); err != nil {
			fmt.Fprintf(a.stderr, "error: %v\n", err)
			return 1
		}
	} else {
		printTokensText(a.stdout, tokens)
		a.printDiags(diags)
	}

	if len(diags) > 0 {
		return 1
	}
	return 0
}

// ---- parse command ----

func (a *app) cmdParse(source, filename string) int {
	tokens, lexDiags := lexer.New(source, filename).Tokenize()
	prog, parseDiags := parser.New(tokens).WithFilename(filename).ParseProgram()

	allDiags := append(lexDiags, parseDiags...)

	output := map[string]interface{}{
		"ast":         ast.NodeToMap(prog),
		"diagnostics": diagsToSlice(allDiags),
	}
	if err := printJSON(a.stdout, output); err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return 1
	}

	if len(allDiags) > 0 {
		return 1
	}
	return 0
}

// ---- run command ----

func (a *app) cmdRun(source, filename string) int {
	prog, err := frontend.Parse(source, filename)
	if err != nil {
		a.printError(err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	interp := runtime.NewInterpreter(a.stdout, runtime.Options{MaxCallDepth: a.cfg.MaxCallDepth})
	log.LogVf("running %s (max call depth %d)", filename, a.cfg.MaxCallDepth)
	val, err := interp.RunContext(ctx, prog)
	if err != nil {
		a.printError(err)
		return 1
	}
	fmt.Fprintln(a.stdout, val.String())
	return 0
}

// printError writes compile diagnostics one per line, and runtime errors with their trace.
func (a *app) printError(err error) {
	var list diag.List
	if errors.As(err, &list) {
		a.printDiags(list)
		return
	}
	fmt.Fprintln(a.stderr, renderLines(a.styles.err, err.Error()))
}
