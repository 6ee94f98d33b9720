// Package diagnostics defines diagnostic types for parse and evaluation errors.
package diagnostics

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Diagnostic code constants.
const (
	EEmptyInput           = "E_EMPTY_INPUT"
	EMissingOuterParens   = "E_MISSING_OUTER_PARENS"
	EMismatchedParens     = "E_MISMATCHED_PARENS"
	EUnexpectedCloseParen = "E_UNEXPECTED_CLOSE_PAREN"
	EUnexpectedEOF        = "E_UNEXPECTED_EOF"
	EName                 = "E_NAME"
	EArity                = "E_ARITY"
	EArithmetic           = "E_ARITHMETIC"
	ENotCallable          = "E_NOT_CALLABLE"
	EType                 = "E_TYPE"
	ESyntax               = "E_SYNTAX"
	EResource             = "E_RESOURCE"
	EIO                   = "E_IO"
	EConfig               = "E_CONFIG"
	EInternal             = "E_INTERNAL"
)

// Location points at the statement a diagnostic belongs to. Expressions
// carry no positions, so shells fill this in from what they read.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Diagnostic represents a parse or evaluation diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Loc     *Location `json:"loc,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// Diagnoser is implemented by errors that carry a diagnostic.
type Diagnoser interface {
	error
	Diagnostic() Diagnostic
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, loc *Location, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Loc:     loc,
		Hint:    hint,
	}
}

// FromError converts err into a Diagnostic. Errors that do not carry one
// are reported as E_INTERNAL.
func FromError(err error) Diagnostic {
	var d Diagnoser
	if errors.As(err, &d) {
		return d.Diagnostic()
	}
	return MakeDiag(EInternal, err.Error(), nil, "")
}

// CodeOf returns the diagnostic code of err, or "" for a nil error.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return FromError(err).Code
}

// IsParseStage reports whether code belongs to the tokenize/validate/build
// stages, which run before any evaluation.
func IsParseStage(code string) bool {
	switch code {
	case EEmptyInput, EMissingOuterParens, EMismatchedParens, EUnexpectedCloseParen, EUnexpectedEOF:
		return true
	}
	return false
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	out := fmt.Sprintf("error[%s]: %s", d.Code, d.Message)
	if d.Loc != nil {
		out += fmt.Sprintf("\n  --> %s:%d", d.Loc.File, d.Loc.Line)
	}
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
