package runtime

import (
	"strings"

	"github.com/thomasrohde/pylisp/pkg/lexer"
)

// Accumulator gathers input lines until they hold one complete statement.
// A statement is complete once its parentheses balance, or as soon as a
// close paren has no partner; the latter is handed over unchanged so the
// validator can report it.
type Accumulator struct {
	lines []string
	start int // 1-based line number where the pending statement began
	next  int // 1-based number of the next line fed
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{next: 1}
}

// Feed adds a line. It returns the statement text and true when the line
// completes one. Blank lines outside a statement are dropped.
func (a *Accumulator) Feed(line string) (string, bool) {
	lineNo := a.next
	a.next++

	if len(a.lines) == 0 {
		if strings.TrimSpace(line) == "" {
			return "", false
		}
		a.start = lineNo
	}
	a.lines = append(a.lines, line)

	depth, low := lexer.Depth(lexer.Tokenize(strings.Join(a.lines, "\n")))
	if depth > 0 && low >= 0 {
		return "", false
	}
	return a.flush(), true
}

// Flush returns whatever is pending, complete or not, and resets.
func (a *Accumulator) Flush() (string, bool) {
	if len(a.lines) == 0 {
		return "", false
	}
	return a.flush(), true
}

func (a *Accumulator) flush() string {
	text := strings.Join(a.lines, "\n")
	a.lines = nil
	return text
}

// Pending reports whether a statement is partially gathered.
func (a *Accumulator) Pending() bool {
	return len(a.lines) > 0
}

// Line returns the 1-based line number where the most recent statement
// began.
func (a *Accumulator) Line() int {
	return a.start
}

// Reset discards any pending lines.
func (a *Accumulator) Reset() {
	a.lines = nil
}
