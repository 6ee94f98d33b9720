// Package formatter prints expression trees back to S-expression source.
package formatter

import (
	"math"
	"strconv"
	"strings"

	"github.com/thomasrohde/pylisp/pkg/ast"
)

const indent = "  "

// lineWidth is the width beyond which Pretty breaks a form over lines.
const lineWidth = 72

// Format prints expr on a single line with canonical spacing.
func Format(expr ast.Expr) string {
	var b strings.Builder
	writeExpr(&b, expr)
	return b.String()
}

func writeExpr(b *strings.Builder, expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Int:
		b.WriteString(Int(e.Value))
	case *ast.Float:
		b.WriteString(Float(e.Value))
	case *ast.Symbol:
		b.WriteString(e.Name)
	case *ast.List:
		b.WriteByte('(')
		for i, item := range e.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeExpr(b, item)
		}
		b.WriteByte(')')
	}
}

// Pretty prints expr, breaking forms that do not fit on one line. The head
// and first operand stay on the opening line; remaining operands are
// indented beneath.
func Pretty(expr ast.Expr) string {
	var lines []string
	prettyLines(expr, 0, &lines)
	return strings.Join(lines, "\n")
}

func prettyLines(expr ast.Expr, depth int, lines *[]string) {
	pad := strings.Repeat(indent, depth)
	flat := Format(expr)
	form, ok := expr.(*ast.List)
	if !ok || len(pad)+len(flat) <= lineWidth || len(form.Items) < 3 {
		*lines = append(*lines, pad+flat)
		return
	}

	*lines = append(*lines, pad+"("+Format(form.Items[0])+" "+Format(form.Items[1]))
	for _, item := range form.Items[2:] {
		prettyLines(item, depth+1, lines)
	}
	last := len(*lines) - 1
	(*lines)[last] += ")"
}

// Int renders an integer in decimal.
func Int(n int64) string {
	return strconv.FormatInt(n, 10)
}

// Float renders a float the way the host language's str() does: the
// shortest round-trip digits, always with a fraction or exponent, and
// scientific notation below 1e-4 or from 1e16 on.
func Float(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
