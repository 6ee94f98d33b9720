// Package help holds the text printed by the help command and the REPL's
// :help.
package help

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/pylisp/pkg/stdlib"
)

// Version is the language version shown in the quick reference.
const Version = "v0.3"

// QUICKREF is printed by `pylisp help` with no topic.
var QUICKREF = `pylisp ` + Version + ` - a minimal S-expression evaluator

Every input is one parenthesized form:
  (+ 1 2)                          => 3
  (defun sq (x) (* x x))           => Defined SQ
  (sq 12)                          => 144
  (if (< 1 2) 10 20)               => 10
  (format t "Total: ~D~%" (sq 3))  => Total: 9

Commands:
  pylisp [repl]            interactive prompt
  pylisp run <file>        evaluate every statement of a file
  pylisp files             prompt for files to run, one after another
  pylisp check <file>      parse without evaluating
  pylisp fmt <file>        print statements in canonical form
  pylisp trace <file>      summarize a trace written by run --trace
  pylisp config            show the settings in effect
  pylisp help <topic>      more on one topic

Topics: syntax, forms, builtins, format, scoping, diagnostics, repl, examples
`

// TopicList is the display order of help topics.
var TopicList = []string{"syntax", "forms", "builtins", "format", "scoping", "diagnostics", "repl", "examples"}

// Topics maps topic names to their text.
var Topics = map[string]string{
	"syntax": `SYNTAX

Input is split on whitespace after padding every parenthesis with spaces.
Each token is an integer if it parses as one, else a float, else a symbol.
There are no string literals and no comments.

  42  -7       integers
  3.5  1e3     floats
  foo  <=  +   symbols

An input must be exactly one form: it starts with "(" and ends with the
")" that closes it. Empty input, bare atoms and unbalanced parentheses are
rejected before anything is evaluated.
`,

	"forms": `SPECIAL FORMS

  (if COND THEN ELSE)
      Evaluates COND; 0, 0.0, False and empty text are false. Only the
      chosen branch is evaluated.

  (defun NAME (PARAM...) BODY)
      Binds NAME in the current scope and returns "Defined NAME".
      Redefinition replaces the old function.

  (format DEST TEXT... [ARG])
      Builds text; see "help format". DEST is never evaluated.

Any other form is an application: the head and each operand are evaluated
left to right, then the head is called.
`,

	"format": `FORMAT

  (format t "Value: ~D~%" (+ 1 2))   => Value: 3
  (format t "Hello ~%")              => Hello

The words between DEST and the optional trailing ARG are joined with
single spaces and quote characters are removed. The first ~D~% is then
replaced by ARG's printed form; if there is none, the first ~% is.
Without ARG the directive is replaced by nothing. At most one ARG.
`,

	"scoping": `SCOPING

Functions do not capture the scope they were defined in. A call binds its
parameters into the caller's current scope and runs the body in a new
scope nested inside it, so free names in a body resolve against whoever
called the function:

  (defun peek () y)
  (defun wrap (y) (peek))
  (wrap 7)                           => 7

A top-level call therefore leaves its parameters bound globally.
Definitions made inside a body stay inside that call.

Recursion is limited to a fixed nesting depth (maxDepth in the config);
going past it raises E_RESOURCE.
`,

	"diagnostics": `DIAGNOSTICS

Parse stage (exit code 2):
  E_EMPTY_INPUT             nothing but whitespace
  E_MISSING_OUTER_PARENS    input does not start with "(" or end with ")"
  E_MISMATCHED_PARENS       unbalanced or more than one top-level form
  E_UNEXPECTED_CLOSE_PAREN  ")" where an expression was expected
  E_UNEXPECTED_EOF          input ended inside a form

Evaluation (exit code 4):
  E_NAME          unbound symbol
  E_ARITY         wrong number of arguments or operands
  E_ARITHMETIC    division by zero, overflow, math domain errors
  E_NOT_CALLABLE  head of a form is not a function
  E_TYPE          operand of the wrong type
  E_SYNTAX        malformed defun or format
  E_RESOURCE      maximum recursion or nesting depth exceeded

Other: E_IO, E_CONFIG (exit code 1).
Diagnostics are printed as JSON; pass --pretty for text.
`,

	"repl": `REPL

  pylisp                 start the prompt

A form may span several lines; the prompt changes to "...> " until it is
balanced. Errors are printed and the session continues with every earlier
definition intact.

  :help [topic]          this help
  :env                   names defined in this session
  :quit                  leave (Ctrl-D also works)

Ctrl-C discards the pending input. History is kept in the file named by
"history" in the config.
`,

	"examples": `EXAMPLES

  (defun fact (n) (if (<= n 1) 1 (* n (fact (- n 1)))))
  (fact 5)                           => 120

  (defun hyp (a b) (sqrt (+ (* a a) (* b b))))
  (hyp 3 4)                          => 5.0

  (/ 1 4)                            => 0.25
  (format t "pi is ~D~%" pi)         => pi is 3.141592653589793
`,
}

// MatchTopic resolves name to a topic by exact match or unique prefix.
func MatchTopic(name string) (string, string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if content, ok := Topics[name]; ok {
		return name, content, nil
	}

	var matches []string
	for _, topic := range TopicList {
		if name != "" && strings.HasPrefix(topic, name) {
			matches = append(matches, topic)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown help topic: %s", name)
	default:
		return "", "", fmt.Errorf("ambiguous help topic %q: %s", name, strings.Join(matches, ", "))
	}
}

// BuiltinIndex lists every built-in and constant bound in a fresh global
// environment.
func BuiltinIndex() string {
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg)
	names := reg.Names()

	var b strings.Builder
	b.WriteString("BUILTINS\n\n")
	line := " "
	for _, name := range names {
		if len(line)+len(name)+1 > 72 {
			b.WriteString(line + "\n")
			line = " "
		}
		line += " " + name
	}
	if strings.TrimSpace(line) != "" {
		b.WriteString(line + "\n")
	}
	fmt.Fprintf(&b, "\nTotal: %d names\n", len(names))
	return b.String()
}

func init() {
	Topics["builtins"] = `ARITHMETIC AND COMPARISON

  (+ a b ...)  (- a b ...)  (* a b ...)   integers stay integers
  (- a)                                    negation
  (/ a b ...)                              true division, always a float
  (< a b) (<= a b) (> a b) (>= a b) (= a b) (!= a b)   => True / False

Integer overflow, division by zero and math domain errors raise
E_ARITHMETIC. Non-numeric operands raise E_TYPE.

` + BuiltinIndex()
}
