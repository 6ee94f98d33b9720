// Command pylisp is the interpreter's CLI entry point.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/thomasrohde/pylisp/pkg/diagnostics"
	"github.com/thomasrohde/pylisp/pkg/evaluator"
	"github.com/thomasrohde/pylisp/pkg/help"
	"github.com/thomasrohde/pylisp/pkg/runtime"
)

func main() {
	if len(os.Args) < 2 {
		os.Exit(cmdRepl(nil))
	}

	cmd := os.Args[1]
	switch cmd {
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "files":
		os.Exit(cmdFiles(os.Args[2:]))
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "fmt":
		os.Exit(cmdFmt(os.Args[2:]))
	case "trace":
		os.Exit(cmdTrace(os.Args[2:]))
	case "help", "--help", "-h":
		os.Exit(cmdHelp(os.Args[2:]))
	case "config":
		os.Exit(cmdConfig(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprintln(os.Stderr, "commands: repl, run, files, check, fmt, trace, help, config")
		os.Exit(runtime.ExitUsage)
	}
}

// loadConfig reads the settings for the current directory, printing a
// diagnostic when the config file is broken.
func loadConfig(pretty bool) (*runtime.Config, bool) {
	cwd, _ := os.Getwd()
	cfg, err := runtime.LoadConfig(cwd)
	if err != nil {
		printDiag(diagnostics.FromError(err), pretty)
		return nil, false
	}
	return cfg, true
}

func printDiag(d diagnostics.Diagnostic, pretty bool) {
	fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostic(d, pretty))
}

func cmdRun(args []string) int {
	var file string
	pretty := false
	tracePath := ""

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			pretty = true
		case "--trace":
			if i+1 < len(args) {
				i++
				tracePath = args[i]
			}
		default:
			if !strings.HasPrefix(args[i], "-") || args[i] == "-" {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: pylisp run <file> [--pretty] [--trace <out.jsonl>]")
		return runtime.ExitUsage
	}

	cfg, ok := loadConfig(pretty)
	if !ok {
		return runtime.ExitUsage
	}
	pretty = pretty || cfg.Pretty

	source, filename, exitCode := readSource(file, pretty)
	if exitCode != 0 {
		return exitCode
	}

	opts := []runtime.Option{runtime.WithMaxDepth(cfg.MaxDepth)}
	if tracePath != "" {
		f, err := os.Create(tracePath)
		if err != nil {
			printDiag(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot write trace file: %s", tracePath), nil, ""), pretty)
			return runtime.ExitUsage
		}
		defer f.Close()
		opts = append(opts, runtime.WithTrace(traceWriter(f)))
	}

	results := runtime.NewSession(opts...).Run(source)
	return runtime.WriteResults(os.Stdout, os.Stderr, results, filename, pretty)
}

// traceWriter returns a trace callback writing NDJSON to w.
func traceWriter(w io.Writer) func(evaluator.TraceEvent) {
	enc := json.NewEncoder(w)
	return func(event evaluator.TraceEvent) {
		_ = enc.Encode(event)
	}
}

func cmdCheck(args []string) int {
	var file string
	pretty := false

	for _, arg := range args {
		switch arg {
		case "--pretty":
			pretty = true
		default:
			if !strings.HasPrefix(arg, "-") || arg == "-" {
				file = arg
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: pylisp check <file> [--pretty]")
		return runtime.ExitUsage
	}

	source, filename, exitCode := readSource(file, pretty)
	if exitCode != 0 {
		return exitCode
	}

	return runtime.WriteCheck(os.Stdout, os.Stderr, runtime.Check(source, filename), pretty)
}

func cmdFmt(args []string) int {
	var file string
	write := false

	for _, arg := range args {
		switch arg {
		case "--write":
			write = true
		default:
			if !strings.HasPrefix(arg, "-") {
				file = arg
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: pylisp fmt <file> [--write]")
		return runtime.ExitUsage
	}

	source, filename, exitCode := readSource(file, false)
	if exitCode != 0 {
		return exitCode
	}

	formatted, err := runtime.Format(source, filename)
	if err != nil {
		printDiag(diagnostics.FromError(err), false)
		return runtime.ExitCodeFor(err)
	}

	if write {
		if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing file: %s\n", err)
			return runtime.ExitUsage
		}
		return runtime.ExitOK
	}
	fmt.Print(formatted)
	return runtime.ExitOK
}

func cmdTrace(args []string) int {
	var file string
	textOutput := false

	for _, arg := range args {
		switch arg {
		case "--text":
			textOutput = true
		case "--json":
			textOutput = false
		default:
			if !strings.HasPrefix(arg, "-") {
				file = arg
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: pylisp trace <file.jsonl> [--json|--text]")
		return runtime.ExitUsage
	}

	f, err := os.Open(file)
	if err != nil {
		printDiag(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, ""), false)
		return runtime.ExitUsage
	}
	defer f.Close()

	summary, err := computeTraceSummary(f)
	if err != nil {
		printDiag(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read trace: %s: %v", file, err), nil, ""), false)
		return runtime.ExitUsage
	}
	if textOutput {
		printTraceSummaryText(os.Stdout, summary)
	} else {
		b, _ := json.Marshal(summary)
		fmt.Println(string(b))
	}
	return runtime.ExitOK
}

func cmdHelp(args []string) int {
	topic := ""
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			topic = arg
		}
	}

	if topic == "" {
		fmt.Print(help.QUICKREF)
		return runtime.ExitOK
	}

	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return runtime.ExitUsage
	}
	fmt.Print(content)
	return runtime.ExitOK
}

func cmdConfig(_ []string) int {
	cfg, ok := loadConfig(false)
	if !ok {
		return runtime.ExitUsage
	}

	b, _ := json.MarshalIndent(cfg, "", "  ")
	fmt.Println(string(b))
	if cfg.Source != "" {
		fmt.Fprintf(os.Stderr, "loaded from %s\n", cfg.Source)
	} else {
		fmt.Fprintln(os.Stderr, "no config file found; using defaults")
	}
	return runtime.ExitOK
}

func readSource(file string, pretty bool) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %s\n", err)
			return "", "", runtime.ExitUsage
		}
		return string(data), "<stdin>", 0
	}

	source, err := os.ReadFile(file)
	if err != nil {
		printDiag(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, ""), pretty)
		return "", "", runtime.ExitUsage
	}
	return string(source), file, 0
}
