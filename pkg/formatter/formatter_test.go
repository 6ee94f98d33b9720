package formatter_test

import (
	"math"
	"strings"
	"testing"

	"github.com/thomasrohde/pylisp/pkg/formatter"
	"github.com/thomasrohde/pylisp/pkg/parser"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"(+ 1 2)", "(+ 1 2)"},
		{"(*(+ 1 2)(+ 1 2))", "(* (+ 1 2) (+ 1 2))"},
		{"(  defun   doublen (n)\n (* n 2))", "(defun doublen (n) (* n 2))"},
		{"(f 3.0 0.5 -7)", "(f 3.0 0.5 -7)"},
		{"(f 1e3)", "(f 1000.0)"},
		{"()", "()"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			expr, err := parser.ParseString(tt.src)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := formatter.Format(expr); got != tt.want {
				t.Errorf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatIsStable(t *testing.T) {
	src := "(defun fact (n) (if (<= n 1) 1 (* n (fact (- n 1)))))"
	expr, err := parser.ParseString(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	once := formatter.Format(expr)
	again, err := parser.ParseString(once)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if twice := formatter.Format(again); twice != once {
		t.Errorf("formatting is not stable:\n%s\n%s", once, twice)
	}
}

func TestPrettyBreaksLongForms(t *testing.T) {
	src := "(defun fibonacci-of-something (n) (if (<= n 1) n (+ (fibonacci-of-something (- n 1)) (fibonacci-of-something (- n 2)))))"
	expr, err := parser.ParseString(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out := formatter.Pretty(expr)
	lines := strings.Split(out, "\n")
	if len(lines) < 2 {
		t.Fatalf("expected multiple lines, got %q", out)
	}
	if !strings.HasPrefix(lines[0], "(defun fibonacci-of-something") {
		t.Errorf("first line = %q", lines[0])
	}
	reparsed, err := parser.ParseString(out)
	if err != nil {
		t.Fatalf("pretty output does not reparse: %v\n%s", err, out)
	}
	if formatter.Format(reparsed) != formatter.Format(expr) {
		t.Errorf("pretty output changed the tree:\n%s", out)
	}
}

func TestPrettyShortFormStaysFlat(t *testing.T) {
	expr, _ := parser.ParseString("(+ 1 2)")
	if got := formatter.Pretty(expr); got != "(+ 1 2)" {
		t.Errorf("Pretty = %q", got)
	}
}

func TestFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.5, "0.5"},
		{3, "3.0"},
		{-2, "-2.0"},
		{0, "0.0"},
		{3.14, "3.14"},
		{1e16, "1e+16"},
		{1.5e-5, "1.5e-05"},
		{0.0001, "0.0001"},
		{1234567, "1234567.0"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "nan"},
	}
	for _, tt := range tests {
		if got := formatter.Float(tt.in); got != tt.want {
			t.Errorf("Float(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
