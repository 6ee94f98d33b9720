package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/thomasrohde/pylisp/pkg/diagnostics"
	"github.com/thomasrohde/pylisp/pkg/help"
	"github.com/thomasrohde/pylisp/pkg/runtime"
)

const (
	banner     = "pylisp " + help.Version + "  (:help for help, :quit to exit)"
	promptCont = "...> "
	promptFile = "file> "
)

// newLiner sets up line editing with history loaded from path. The
// returned func saves the history and restores the terminal.
func newLiner(histPath string) (*liner.State, func()) {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)

	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		if _, ok := <-sigc; ok {
			ln.Close()
			os.Exit(130)
		}
	}()

	return ln, func() {
		signal.Stop(sigc)
		close(sigc)
		if histPath != "" {
			_ = os.MkdirAll(filepath.Dir(histPath), 0o755)
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}
		ln.Close()
	}
}

// lineReader is the part of *liner.State the shells use.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// readStatement prompts until the accumulator holds a complete statement.
// It reports false on EOF.
func readStatement(lr lineReader, acc *runtime.Accumulator, prompt string) (string, bool) {
	for {
		p := prompt
		if acc.Pending() {
			p = promptCont
		}
		line, err := lr.Prompt(p)
		if errors.Is(err, liner.ErrPromptAborted) {
			acc.Reset()
			continue
		}
		if errors.Is(err, io.EOF) {
			return acc.Flush()
		}
		if err != nil {
			return "", false
		}

		if !acc.Pending() && strings.HasPrefix(strings.TrimSpace(line), ":") {
			return strings.TrimSpace(line), true
		}
		if stmt, ok := acc.Feed(line); ok {
			return stmt, true
		}
	}
}

func cmdRepl(args []string) int {
	pretty := true
	for _, arg := range args {
		if arg == "--json" {
			pretty = false
		}
	}

	cfg, ok := loadConfig(pretty)
	if !ok {
		return runtime.ExitUsage
	}

	ln, done := newLiner(cfg.History)
	defer done()

	fmt.Println(banner)
	session := runtime.NewSession(runtime.WithMaxDepth(cfg.MaxDepth))
	return repl(ln, os.Stdout, os.Stderr, session, cfg.Prompt, pretty)
}

// repl reads and evaluates statements until EOF or :quit. Errors are
// reported and the loop goes on.
func repl(lr lineReader, stdout, stderr io.Writer, session *runtime.Session, prompt string, pretty bool) int {
	acc := runtime.NewAccumulator()
	for {
		stmt, ok := readStatement(lr, acc, prompt)
		if !ok {
			fmt.Fprintln(stdout)
			return runtime.ExitOK
		}

		if strings.HasPrefix(stmt, ":") {
			if quit := replCommand(stdout, session, stmt); quit {
				return runtime.ExitOK
			}
			continue
		}

		lr.AppendHistory(strings.ReplaceAll(stmt, "\n", " "))
		val, err := session.Evaluate(stmt)
		if err != nil {
			fmt.Fprintln(stderr, diagnostics.FormatDiagnostic(diagnostics.FromError(err), pretty))
			continue
		}
		fmt.Fprintln(stdout, runtime.RenderValue(val, pretty))
	}
}

// replCommand runs a colon command and reports whether to leave.
func replCommand(w io.Writer, session *runtime.Session, line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":quit", ":q", ":exit":
		return true
	case ":env":
		env, base := session.Env(), runtime.NewGlobalEnv()
		for _, name := range env.Names() {
			v, _ := env.Get(name)
			if seeded, ok := base.Get(name); ok && seeded.String() == v.String() {
				continue
			}
			fmt.Fprintf(w, "%s = %s\n", name, v)
		}
	case ":help":
		if len(fields) < 2 {
			fmt.Fprint(w, help.QUICKREF)
			break
		}
		_, content, err := help.MatchTopic(fields[1])
		if err != nil {
			fmt.Fprintln(w, err)
			break
		}
		fmt.Fprint(w, content)
	default:
		fmt.Fprintln(w, "unknown command. Type :help for help or :quit to exit.")
	}
	return false
}

// cmdFiles prompts for file paths and runs each in one shared session
// until EOF.
func cmdFiles(args []string) int {
	pretty := false
	for _, arg := range args {
		if arg == "--pretty" {
			pretty = true
		}
	}

	cfg, ok := loadConfig(pretty)
	if !ok {
		return runtime.ExitUsage
	}
	pretty = pretty || cfg.Pretty

	ln, done := newLiner("")
	defer done()

	session := runtime.NewSession(runtime.WithMaxDepth(cfg.MaxDepth))
	return runFiles(ln, os.Stdout, os.Stderr, session, pretty)
}

// runFiles runs every path read from lr and returns the exit code of the
// last file that failed, or ExitOK.
func runFiles(lr lineReader, stdout, stderr io.Writer, session *runtime.Session, pretty bool) int {
	exit := runtime.ExitOK
	for {
		path, err := lr.Prompt(promptFile)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return exit
		}
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}

		source, err := os.ReadFile(path)
		if err != nil {
			d := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", path), nil, "")
			fmt.Fprintln(stderr, diagnostics.FormatDiagnostic(d, pretty))
			exit = runtime.ExitUsage
			continue
		}
		lr.AppendHistory(path)
		if code := runtime.WriteResults(stdout, stderr, session.Run(string(source)), path, pretty); code != runtime.ExitOK {
			exit = code
		}
	}
}
