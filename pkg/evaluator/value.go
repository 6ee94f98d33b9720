// Package evaluator implements the expression evaluator and its scope chain.
package evaluator

import (
	"fmt"
	"math"
	"strings"

	"github.com/thomasrohde/pylisp/pkg/ast"
	"github.com/thomasrohde/pylisp/pkg/formatter"
)

// Value is the interface for all runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	fmt.Stringer
	value() // sealed marker
}

// Int represents an integer.
type Int struct {
	Value int64
}

func (Int) value() {}

func (v Int) String() string { return formatter.Int(v.Value) }

// Float represents a floating-point number.
type Float struct {
	Value float64
}

func (Float) value() {}

func (v Float) String() string { return formatter.Float(v.Value) }

// Str represents a string. Only format produces strings.
type Str struct {
	Value string
}

func (Str) value() {}

func (v Str) String() string { return v.Value }

// Bool represents the result of a comparison.
type Bool struct {
	Value bool
}

func (Bool) value() {}

func (v Bool) String() string {
	if v.Value {
		return "True"
	}
	return "False"
}

// Func is a user-defined function: a parameter list and a body. It holds
// no environment; free names in the body resolve against the caller's
// chain at call time.
type Func struct {
	Name   string
	Params []string
	Body   ast.Expr
}

func (*Func) value() {}

func (f *Func) String() string {
	return fmt.Sprintf("<function %s (%s)>", f.Name, strings.Join(f.Params, " "))
}

// Variadic marks a builtin with no upper arity bound.
const Variadic = -1

// Builtin is a host-provided callable.
type Builtin struct {
	Name    string
	MinArgs int
	MaxArgs int // Variadic for no limit
	Fn      func(args []Value) (Value, error)
}

func (*Builtin) value() {}

func (b *Builtin) String() string {
	return fmt.Sprintf("<built-in function %s>", b.Name)
}

// NewInt creates an integer value.
func NewInt(n int64) Value {
	return Int{Value: n}
}

// NewFloat creates a float value.
func NewFloat(f float64) Value {
	return Float{Value: f}
}

// NewStr creates a string value.
func NewStr(s string) Value {
	return Str{Value: s}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// IsNumber reports whether v can be used as an arithmetic operand.
// Booleans count, as 0 and 1.
func IsNumber(v Value) bool {
	switch v.(type) {
	case Int, Float, Bool:
		return true
	}
	return false
}

// IsInteger reports whether v is an Int or a Bool.
func IsInteger(v Value) bool {
	switch v.(type) {
	case Int, Bool:
		return true
	}
	return false
}

// AsInt returns v as an int64 when it is an Int or Bool.
func AsInt(v Value) (int64, bool) {
	switch val := v.(type) {
	case Int:
		return val.Value, true
	case Bool:
		if val.Value {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// AsFloat returns v as a float64 when it is numeric.
func AsFloat(v Value) (float64, bool) {
	if f, ok := v.(Float); ok {
		return f.Value, true
	}
	if n, ok := AsInt(v); ok {
		return float64(n), true
	}
	return 0, false
}

// Truthiness returns the boolean interpretation of a value.
// 0, 0.0, False and "" are falsy; everything else is truthy.
func Truthiness(v Value) bool {
	switch val := v.(type) {
	case Int:
		return val.Value != 0
	case Float:
		return val.Value != 0
	case Bool:
		return val.Value
	case Str:
		return val.Value != ""
	case nil:
		return false
	default:
		return true
	}
}

// TypeName returns the type name used in error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case Int:
		return "int"
	case Float:
		return "float"
	case Str:
		return "str"
	case Bool:
		return "bool"
	case *Func:
		return "function"
	case *Builtin:
		return "builtin_function"
	default:
		return "unknown"
	}
}

// Equal compares two values. Numbers compare by numeric value across
// Int, Float and Bool; callables compare by identity.
func Equal(a, b Value) bool {
	if IsNumber(a) && IsNumber(b) {
		if IsInteger(a) && IsInteger(b) {
			x, _ := AsInt(a)
			y, _ := AsInt(b)
			return x == y
		}
		x, _ := AsFloat(a)
		y, _ := AsFloat(b)
		return x == y
	}
	switch av := a.(type) {
	case Str:
		bv, ok := b.(Str)
		return ok && av.Value == bv.Value
	case *Func:
		bv, ok := b.(*Func)
		return ok && av == bv
	case *Builtin:
		bv, ok := b.(*Builtin)
		return ok && av == bv
	}
	return false
}

// Compare orders two numeric values: -1, 0 or 1. NaN compares unequal to
// everything, reported as ok=false.
func Compare(a, b Value) (int, bool) {
	if IsInteger(a) && IsInteger(b) {
		x, _ := AsInt(a)
		y, _ := AsInt(b)
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}
	x, okA := AsFloat(a)
	y, okB := AsFloat(b)
	if !okA || !okB || math.IsNaN(x) || math.IsNaN(y) {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}
