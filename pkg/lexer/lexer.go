// Package lexer implements the tokenizer and atomizer.
package lexer

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/pylisp/pkg/ast"
)

// Delimiter tokens.
const (
	LParen = "("
	RParen = ")"
)

var padder = strings.NewReplacer("(", " ( ", ")", " ) ")

// Tokenize breaks source text into tokens. Parentheses always become
// standalone tokens; everything else is split on whitespace runs.
// There is no string-literal awareness: `"hello world"` is two tokens.
func Tokenize(source string) []string {
	fields := strings.Fields(padder.Replace(source))
	if fields == nil {
		return []string{}
	}
	return fields
}

// Atomize classifies a single token. Integer parsing is tried first, then
// floating point, and anything else is a symbol.
func Atomize(token string) ast.Atom {
	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return &ast.Int{Value: n}
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return &ast.Float{Value: f}
	}
	return &ast.Symbol{Name: token}
}

// Depth returns the net parenthesis depth of tokens, and the lowest depth
// reached while scanning them.
func Depth(tokens []string) (depth, low int) {
	for _, tok := range tokens {
		switch tok {
		case LParen:
			depth++
		case RParen:
			depth--
			if depth < low {
				low = depth
			}
		}
	}
	return depth, low
}
