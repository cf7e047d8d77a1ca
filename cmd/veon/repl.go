package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	log "fortio.org/log"
	"github.com/chzyer/readline"

	"veon/internal/frontend"
	"veon/internal/runtime"
)

// ---- repl command ----

func (a *app) cmdRepl() int {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            a.styles.prompt.Render("veon> "),
		HistoryFile:       a.cfg.HistoryFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(a.stderr, "readline init failed: %v\n", err)
		return 1
	}
	defer rl.Close()
	log.LogVf("repl started, history file %q", a.cfg.HistoryFile)

	// Welcome banner
	fmt.Fprintf(rl.Stdout(), "%s %s\n\n",
		a.styles.header.Render("veon REPL"), a.styles.muted.Render("(type 'exit' or Ctrl+D to quit)"))

	s := &replSession{
		interp: runtime.NewInterpreter(rl.Stdout(), runtime.Options{MaxCallDepth: a.cfg.MaxCallDepth}),
		out:    rl.Stdout(),
		errOut: rl.Stderr(),
		styles: a.styles,
		ctx:    context.Background(),
	}

	for {
		// Update prompt based on multi-line state
		if s.pending() {
			rl.SetPrompt(a.styles.cont.Render("...   "))
		} else {
			rl.SetPrompt(a.styles.prompt.Render("veon> "))
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if s.pending() {
					// Cancel multi-line input
					s.reset()
					continue
				}
				fmt.Fprintln(rl.Stdout(), a.styles.muted.Render("(use 'exit' or Ctrl+D to quit)"))
				continue
			}
			// EOF (Ctrl+D) or other error → exit
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(rl.Stdout())
			}
			break
		}

		if !s.pending() && strings.TrimSpace(line) == "exit" {
			break
		}
		s.feed(line)
	}
	return 0
}

// replSession accumulates input lines until braces balance, then runs them
// against one persistent interpreter.
type replSession struct {
	interp *runtime.Interpreter
	out    io.Writer
	errOut io.Writer
	styles styles

	// ctx is the parent of every evaluation; an interrupt cancels only the
	// evaluation in progress.
	ctx context.Context

	buf   strings.Builder
	depth int
}

func (s *replSession) pending() bool { return s.depth > 0 }

func (s *replSession) reset() {
	s.buf.Reset()
	s.depth = 0
}

// feed adds one line of input and evaluates the buffer once it is complete.
func (s *replSession) feed(line string) {
	s.depth += braceDelta(line)
	s.buf.WriteString(line)
	s.buf.WriteString("\n")
	if s.depth > 0 {
		return
	}

	source := s.buf.String()
	s.reset()
	if strings.TrimSpace(source) == "" {
		return
	}
	s.eval(source)
}

func (s *replSession) eval(source string) {
	prog, err := frontend.Parse(source, "<repl>")
	if err != nil {
		fmt.Fprintln(s.errOut, renderLines(s.styles.err, err.Error()))
		return
	}
	parent := s.ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	val, err := s.interp.RunContext(ctx, prog)
	if err != nil {
		fmt.Fprintln(s.errOut, renderLines(s.styles.err, err.Error()))
		return
	}
	if _, isNull := val.(runtime.NullVal); !isNull {
		fmt.Fprintln(s.out, s.styles.result.Render(val.String()))
	}
}

// braceDelta counts '{' minus '}' in a line, ignoring string literals and
// comments.
func braceDelta(line string) int {
	delta := 0
	inString := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case inString && ch == '\\':
			i++ // skip escaped character
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '/' && i+1 < len(line) && line[i+1] == '/':
			return delta
		case ch == '{':
			delta++
		case ch == '}':
			delta--
		}
	}
	return delta
}
