// Package parser builds expression trees from token streams.
package parser

import (
	"fmt"

	"github.com/thomasrohde/pylisp/pkg/ast"
	"github.com/thomasrohde/pylisp/pkg/diagnostics"
	"github.com/thomasrohde/pylisp/pkg/lexer"
	"github.com/thomasrohde/pylisp/pkg/validator"
)

// ParseError wraps a diagnostic for tree-building errors.
type ParseError struct {
	Diag diagnostics.Diagnostic
}

func (e *ParseError) Error() string {
	return e.Diag.Message
}

// Diagnostic returns the wrapped diagnostic.
func (e *ParseError) Diagnostic() diagnostics.Diagnostic {
	return e.Diag
}

// Code returns the diagnostic code.
func (e *ParseError) Code() string {
	return e.Diag.Code
}

func parseError(code, msg string) error {
	return &ParseError{Diag: diagnostics.MakeDiag(code, msg, nil, "")}
}

// DefaultMaxDepth bounds form nesting when a Stream sets no limit.
const DefaultMaxDepth = 10000

// Stream is a token sequence consumed from the front. Consumption moves a
// cursor; the underlying slice is never modified.
type Stream struct {
	tokens []string
	pos    int
	depth  int

	// MaxDepth bounds how deeply forms may nest; zero means DefaultMaxDepth.
	MaxDepth int
}

// NewStream creates a stream over tokens.
func NewStream(tokens []string) *Stream {
	return &Stream{tokens: tokens}
}

func (s *Stream) maxDepth() int {
	if s.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return s.MaxDepth
}

// Len returns the number of unconsumed tokens.
func (s *Stream) Len() int {
	return len(s.tokens) - s.pos
}

// Peek returns the next token without consuming it.
func (s *Stream) Peek() (string, bool) {
	if s.pos >= len(s.tokens) {
		return "", false
	}
	return s.tokens[s.pos], true
}

// Pop consumes and returns the next token.
func (s *Stream) Pop() (string, bool) {
	tok, ok := s.Peek()
	if ok {
		s.pos++
	}
	return tok, ok
}

// BuildAst consumes one expression from the front of s.
// Input is expected to have passed validator.ValidateBalance; on anything
// else BuildAst returns an error rather than a partial tree. Nesting past
// the stream's MaxDepth is an E_RESOURCE error.
func BuildAst(s *Stream) (ast.Expr, error) {
	tok, ok := s.Pop()
	if !ok {
		return nil, parseError(diagnostics.EUnexpectedEOF, "unexpected end of input")
	}

	switch tok {
	case lexer.LParen:
		s.depth++
		defer func() { s.depth-- }()
		if s.depth > s.maxDepth() {
			return nil, parseError(diagnostics.EResource,
				fmt.Sprintf("maximum nesting depth exceeded (%d)", s.maxDepth()))
		}

		form := &ast.List{Items: []ast.Expr{}}
		for {
			next, ok := s.Peek()
			if !ok {
				return nil, parseError(diagnostics.EUnexpectedEOF, "unexpected end of input: missing ')'")
			}
			if next == lexer.RParen {
				s.Pop()
				return form, nil
			}
			child, err := BuildAst(s)
			if err != nil {
				return nil, err
			}
			form.Items = append(form.Items, child)
		}

	case lexer.RParen:
		return nil, parseError(diagnostics.EUnexpectedCloseParen, "unexpected ')'")

	default:
		return lexer.Atomize(tok), nil
	}
}

// Parse validates tokens and builds the single expression they contain,
// nesting at most DefaultMaxDepth forms deep.
func Parse(tokens []string) (ast.Expr, error) {
	return ParseLimit(tokens, 0)
}

// ParseLimit is Parse with a nesting limit; zero means DefaultMaxDepth.
func ParseLimit(tokens []string, maxDepth int) (ast.Expr, error) {
	if err := validator.ValidateBalance(tokens); err != nil {
		return nil, err
	}
	s := NewStream(tokens)
	s.MaxDepth = maxDepth
	expr, err := BuildAst(s)
	if err != nil {
		return nil, err
	}
	if s.Len() > 0 {
		return nil, parseError(diagnostics.EMismatchedParens,
			fmt.Sprintf("%d unconsumed token(s) after expression", s.Len()))
	}
	return expr, nil
}

// ParseString tokenizes and parses source.
func ParseString(source string) (ast.Expr, error) {
	return Parse(lexer.Tokenize(source))
}
