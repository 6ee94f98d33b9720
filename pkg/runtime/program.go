package runtime

import (
	"fmt"
	"io"
	"strings"

	"github.com/thomasrohde/pylisp/pkg/diagnostics"
	"github.com/thomasrohde/pylisp/pkg/evaluator"
	"github.com/thomasrohde/pylisp/pkg/formatter"
	"github.com/thomasrohde/pylisp/pkg/parser"
)

// Exit codes shared by the shells.
const (
	ExitOK      = 0
	ExitUsage   = 1
	ExitParse   = 2
	ExitRuntime = 4
)

// Statement is one top-level unit of a source file.
type Statement struct {
	Line int
	Text string
}

// Statements splits source into statements the way the REPL gathers
// them, line by line.
func Statements(source string) []Statement {
	var out []Statement
	acc := NewAccumulator()
	for _, line := range strings.Split(strings.TrimSuffix(source, "\n"), "\n") {
		if text, ok := acc.Feed(strings.TrimSuffix(line, "\r")); ok {
			out = append(out, Statement{Line: acc.Line(), Text: text})
		}
	}
	if text, ok := acc.Flush(); ok {
		out = append(out, Statement{Line: acc.Line(), Text: text})
	}
	return out
}

// StatementResult is the outcome of evaluating one statement.
type StatementResult struct {
	Statement
	Value evaluator.Value
	Err   error
}

// Diagnostic returns the statement's error as a diagnostic located at
// file and the statement's first line.
func (r StatementResult) Diagnostic(file string) diagnostics.Diagnostic {
	return Locate(r.Err, file, r.Line)
}

// Locate converts err to a diagnostic pointing at file:line.
func Locate(err error, file string, line int) diagnostics.Diagnostic {
	d := diagnostics.FromError(err)
	d.Loc = &diagnostics.Location{File: file, Line: line}
	return d
}

// Run evaluates every statement of source in the session, continuing past
// failures.
func (s *Session) Run(source string) []StatementResult {
	stmts := Statements(source)
	results := make([]StatementResult, 0, len(stmts))
	for _, stmt := range stmts {
		val, err := s.Evaluate(stmt.Text)
		results = append(results, StatementResult{Statement: stmt, Value: val, Err: err})
	}
	return results
}

// ExitCode returns the exit code for a run: that of the first failing
// statement, or ExitOK.
func ExitCode(results []StatementResult) int {
	for _, r := range results {
		if r.Err != nil {
			return ExitCodeFor(r.Err)
		}
	}
	return ExitOK
}

// ExitCodeFor maps an error to an exit code.
func ExitCodeFor(err error) int {
	code := diagnostics.CodeOf(err)
	switch {
	case code == "":
		return ExitOK
	case diagnostics.IsParseStage(code):
		return ExitParse
	case code == diagnostics.EIO || code == diagnostics.EConfig:
		return ExitUsage
	default:
		return ExitRuntime
	}
}

// Check runs the parse stages over every statement of source without
// evaluating anything.
func Check(source, filename string) []diagnostics.Diagnostic {
	var diags []diagnostics.Diagnostic
	for _, stmt := range Statements(source) {
		if _, err := parser.ParseString(stmt.Text); err != nil {
			diags = append(diags, Locate(err, filename, stmt.Line))
		}
	}
	return diags
}

// Format prints every statement of source in canonical form, one per
// line. Statements that do not parse abort formatting.
func Format(source, filename string) (string, error) {
	var b strings.Builder
	for _, stmt := range Statements(source) {
		expr, err := parser.ParseString(stmt.Text)
		if err != nil {
			return "", &DiagnosticError{Diagnostics: []diagnostics.Diagnostic{Locate(err, filename, stmt.Line)}}
		}
		b.WriteString(formatter.Pretty(expr))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// RenderValue prints a result value: JSON by default, or the host
// language's text form when pretty.
func RenderValue(v evaluator.Value, pretty bool) string {
	if pretty {
		return v.String()
	}
	return evaluator.ValueToJSONString(v)
}

// WriteResults prints each successful value to stdout and each failure's
// diagnostic to stderr, one per line, and returns the run's exit code.
func WriteResults(stdout, stderr io.Writer, results []StatementResult, file string, pretty bool) int {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintln(stderr, diagnostics.FormatDiagnostic(r.Diagnostic(file), pretty))
			continue
		}
		fmt.Fprintln(stdout, RenderValue(r.Value, pretty))
	}
	return ExitCode(results)
}

// WriteCheck prints the outcome of Check and returns its exit code. In
// JSON mode the diagnostics are printed as one array, "[]" when clean.
func WriteCheck(stdout, stderr io.Writer, diags []diagnostics.Diagnostic, pretty bool) int {
	if len(diags) > 0 {
		fmt.Fprintln(stderr, diagnostics.FormatDiagnostics(diags, pretty))
		return ExitParse
	}
	if pretty {
		fmt.Fprintln(stdout, "No errors found.")
	} else {
		fmt.Fprintln(stdout, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{}, false))
	}
	return ExitOK
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// Diagnostic returns the first wrapped diagnostic.
func (e *DiagnosticError) Diagnostic() diagnostics.Diagnostic {
	if len(e.Diagnostics) == 0 {
		return diagnostics.MakeDiag(diagnostics.EInternal, "no diagnostics", nil, "")
	}
	return e.Diagnostics[0]
}
