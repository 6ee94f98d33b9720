// Package validator checks that a token stream is one fully parenthesized
// expression before the parser is allowed to see it.
package validator

import (
	"fmt"

	"github.com/thomasrohde/pylisp/pkg/diagnostics"
	"github.com/thomasrohde/pylisp/pkg/lexer"
)

// BalanceError wraps a diagnostic for malformed parenthesization.
type BalanceError struct {
	Diag diagnostics.Diagnostic
}

func (e *BalanceError) Error() string {
	return e.Diag.Message
}

// Diagnostic returns the wrapped diagnostic.
func (e *BalanceError) Diagnostic() diagnostics.Diagnostic {
	return e.Diag
}

// Code returns the diagnostic code.
func (e *BalanceError) Code() string {
	return e.Diag.Code
}

func balanceError(code, msg, hint string) error {
	return &BalanceError{Diag: diagnostics.MakeDiag(code, msg, nil, hint)}
}

func checkOuter(tokens []string) error {
	if len(tokens) == 0 {
		return balanceError(diagnostics.EEmptyInput, "empty input", "")
	}
	if tokens[0] != lexer.LParen {
		return balanceError(diagnostics.EMissingOuterParens,
			"expression must start with '('",
			fmt.Sprintf("wrap the input as (%s)", joinShort(tokens)))
	}
	if tokens[len(tokens)-1] != lexer.RParen {
		return balanceError(diagnostics.EMissingOuterParens,
			"expression must end with ')'", "")
	}
	return nil
}

// ValidateBalance is the stack-based check used by the evaluation pipeline.
// It accepts exactly one well-formed, fully parenthesized expression.
func ValidateBalance(tokens []string) error {
	if err := checkOuter(tokens); err != nil {
		return err
	}

	var stack []int
	for i, tok := range tokens {
		switch tok {
		case lexer.LParen:
			stack = append(stack, i)
		case lexer.RParen:
			if len(stack) == 0 {
				return balanceError(diagnostics.EMismatchedParens,
					fmt.Sprintf("unexpected ')' at token %d", i+1), "")
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 && i != len(tokens)-1 {
				// The outer form closed early: whatever follows is a second
				// top-level expression or a stray token.
				return balanceError(diagnostics.EMismatchedParens,
					fmt.Sprintf("unexpected tokens after the closing ')' at token %d", i+1),
					"evaluate one expression at a time")
			}
		}
	}
	if len(stack) > 0 {
		return balanceError(diagnostics.EMismatchedParens,
			fmt.Sprintf("%d unclosed '('", len(stack)), "")
	}
	return nil
}

// ValidateBalanceSum is the running-sum variant. It agrees with
// ValidateBalance except that it cannot see ordering: a sequence such as
// ( ) ) ( ( ) sums to zero and passes here.
func ValidateBalanceSum(tokens []string) error {
	if err := checkOuter(tokens); err != nil {
		return err
	}
	depth, _ := lexer.Depth(tokens)
	if depth != 0 {
		return balanceError(diagnostics.EMismatchedParens,
			fmt.Sprintf("parenthesis count is off by %d", depth), "")
	}
	return nil
}

func joinShort(tokens []string) string {
	const max = 8
	out := ""
	for i, tok := range tokens {
		if i == max {
			return out + " ..."
		}
		if i > 0 {
			out += " "
		}
		out += tok
	}
	return out
}
