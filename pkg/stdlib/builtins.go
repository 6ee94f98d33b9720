package stdlib

import (
	"math"

	"github.com/thomasrohde/pylisp/pkg/diagnostics"
	"github.com/thomasrohde/pylisp/pkg/evaluator"
)

// RegisterDefaults adds every built-in: arithmetic, comparison, the math
// library and its constants.
func RegisterDefaults(r *Registry) {
	// Arithmetic
	r.Register(Fn{Name: "+", MinArgs: 1, MaxArgs: evaluator.Variadic, Execute: stdlibAdd})
	r.Register(Fn{Name: "-", MinArgs: 1, MaxArgs: evaluator.Variadic, Execute: stdlibSub})
	r.Register(Fn{Name: "*", MinArgs: 1, MaxArgs: evaluator.Variadic, Execute: stdlibMul})
	r.Register(Fn{Name: "/", MinArgs: 1, MaxArgs: evaluator.Variadic, Execute: stdlibDiv})

	// Comparison
	r.Register(Fn{Name: "<", MinArgs: 2, MaxArgs: 2, Execute: ordered("<", func(c int) bool { return c < 0 })})
	r.Register(Fn{Name: "<=", MinArgs: 2, MaxArgs: 2, Execute: ordered("<=", func(c int) bool { return c <= 0 })})
	r.Register(Fn{Name: ">", MinArgs: 2, MaxArgs: 2, Execute: ordered(">", func(c int) bool { return c > 0 })})
	r.Register(Fn{Name: ">=", MinArgs: 2, MaxArgs: 2, Execute: ordered(">=", func(c int) bool { return c >= 0 })})
	r.Register(Fn{Name: "=", MinArgs: 2, MaxArgs: 2, Execute: stdlibEq})
	r.Register(Fn{Name: "!=", MinArgs: 2, MaxArgs: 2, Execute: stdlibNeq})

	// Generic numeric helpers
	r.Register(Fn{Name: "abs", MinArgs: 1, MaxArgs: 1, Execute: stdlibAbs})
	r.Register(Fn{Name: "max", MinArgs: 1, MaxArgs: evaluator.Variadic, Execute: extremum("max", 1)})
	r.Register(Fn{Name: "min", MinArgs: 1, MaxArgs: evaluator.Variadic, Execute: extremum("min", -1)})
	r.Register(Fn{Name: "round", MinArgs: 1, MaxArgs: 2, Execute: stdlibRound})
	r.Register(Fn{Name: "not", MinArgs: 1, MaxArgs: 1, Execute: stdlibNot})

	registerMath(r)
}

func typeError(format string, args ...any) error {
	return evaluator.Errorf(diagnostics.EType, format, args...)
}

func arithError(format string, args ...any) error {
	return evaluator.Errorf(diagnostics.EArithmetic, format, args...)
}

func overflow() error {
	return arithError("integer overflow")
}

func checkOperands(op string, args []evaluator.Value) error {
	for _, a := range args {
		if !evaluator.IsNumber(a) {
			if len(args) == 2 {
				return typeError("unsupported operand type(s) for %s: '%s' and '%s'",
					op, evaluator.TypeName(args[0]), evaluator.TypeName(args[1]))
			}
			return typeError("unsupported operand type for %s: '%s'", op, evaluator.TypeName(a))
		}
	}
	return nil
}

// fold applies a binary operation left to right. intOp reports false on
// overflow.
func fold(op string, args []evaluator.Value,
	intOp func(a, b int64) (int64, bool),
	floatOp func(a, b float64) float64,
) (evaluator.Value, error) {
	if err := checkOperands(op, args); err != nil {
		return nil, err
	}

	acc := args[0]
	if b, ok := acc.(evaluator.Bool); ok {
		n, _ := evaluator.AsInt(b)
		acc = evaluator.NewInt(n)
	}
	for _, next := range args[1:] {
		if evaluator.IsInteger(acc) && evaluator.IsInteger(next) {
			x, _ := evaluator.AsInt(acc)
			y, _ := evaluator.AsInt(next)
			n, ok := intOp(x, y)
			if !ok {
				return nil, overflow()
			}
			acc = evaluator.NewInt(n)
			continue
		}
		x, _ := evaluator.AsFloat(acc)
		y, _ := evaluator.AsFloat(next)
		acc = evaluator.NewFloat(floatOp(x, y))
	}
	return acc, nil
}

func addInt(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

func subInt(a, b int64) (int64, bool) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, false
	}
	return a - b, true
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	c := a * b
	if c/b != a {
		return 0, false
	}
	return c, true
}

// + { a b ... } → sum
func stdlibAdd(args []evaluator.Value) (evaluator.Value, error) {
	return fold("+", args, addInt, func(a, b float64) float64 { return a + b })
}

// - { a } → negation; - { a b ... } → difference
func stdlibSub(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) == 1 {
		return fold("-", []evaluator.Value{evaluator.NewInt(0), args[0]}, subInt, func(a, b float64) float64 { return a - b })
	}
	return fold("-", args, subInt, func(a, b float64) float64 { return a - b })
}

// * { a b ... } → product
func stdlibMul(args []evaluator.Value) (evaluator.Value, error) {
	return fold("*", args, mulInt, func(a, b float64) float64 { return a * b })
}

// / { a b ... } → true division, always a float; / { a } → 1/a
func stdlibDiv(args []evaluator.Value) (evaluator.Value, error) {
	if err := checkOperands("/", args); err != nil {
		return nil, err
	}
	if len(args) == 1 {
		args = []evaluator.Value{evaluator.NewInt(1), args[0]}
	}

	acc, _ := evaluator.AsFloat(args[0])
	for _, next := range args[1:] {
		d, _ := evaluator.AsFloat(next)
		if d == 0 {
			if evaluator.IsInteger(next) && evaluator.IsInteger(args[0]) {
				return nil, arithError("division by zero")
			}
			return nil, arithError("float division by zero")
		}
		acc /= d
	}
	return evaluator.NewFloat(acc), nil
}

// < <= > >= { a b } → Bool; strings compare lexically, NaN compares false
func ordered(op string, pred func(c int) bool) func(args []evaluator.Value) (evaluator.Value, error) {
	return func(args []evaluator.Value) (evaluator.Value, error) {
		a, b := args[0], args[1]
		if sa, ok := a.(evaluator.Str); ok {
			if sb, ok := b.(evaluator.Str); ok {
				c := 0
				switch {
				case sa.Value < sb.Value:
					c = -1
				case sa.Value > sb.Value:
					c = 1
				}
				return evaluator.NewBool(pred(c)), nil
			}
		}
		if !evaluator.IsNumber(a) || !evaluator.IsNumber(b) {
			return nil, typeError("'%s' not supported between instances of '%s' and '%s'",
				op, evaluator.TypeName(a), evaluator.TypeName(b))
		}
		c, ok := evaluator.Compare(a, b)
		if !ok {
			return evaluator.NewBool(false), nil
		}
		return evaluator.NewBool(pred(c)), nil
	}
}

// = { a b } → equality
func stdlibEq(args []evaluator.Value) (evaluator.Value, error) {
	return evaluator.NewBool(evaluator.Equal(args[0], args[1])), nil
}

// != { a b } → inequality
func stdlibNeq(args []evaluator.Value) (evaluator.Value, error) {
	return evaluator.NewBool(!evaluator.Equal(args[0], args[1])), nil
}

// abs { x } → |x|, keeping the operand's type
func stdlibAbs(args []evaluator.Value) (evaluator.Value, error) {
	if err := checkOperands("abs", args); err != nil {
		return nil, err
	}
	if n, ok := evaluator.AsInt(args[0]); ok {
		if n == math.MinInt64 {
			return nil, overflow()
		}
		if n < 0 {
			n = -n
		}
		return evaluator.NewInt(n), nil
	}
	f, _ := evaluator.AsFloat(args[0])
	return evaluator.NewFloat(math.Abs(f)), nil
}

// max/min { a b ... } → the first extreme argument, unconverted
func extremum(name string, sign int) func(args []evaluator.Value) (evaluator.Value, error) {
	return func(args []evaluator.Value) (evaluator.Value, error) {
		if err := checkOperands(name, args); err != nil {
			return nil, err
		}
		best := args[0]
		for _, v := range args[1:] {
			if c, ok := evaluator.Compare(v, best); ok && c == sign {
				best = v
			}
		}
		return best, nil
	}
}

// round { x } → nearest int, ties to even; round { x n } → float at n digits
func stdlibRound(args []evaluator.Value) (evaluator.Value, error) {
	if err := checkOperands("round", args); err != nil {
		return nil, err
	}
	if len(args) == 1 {
		if n, ok := evaluator.AsInt(args[0]); ok {
			return evaluator.NewInt(n), nil
		}
		f, _ := evaluator.AsFloat(args[0])
		return floatToInt("round", math.RoundToEven(f))
	}

	digits, ok := evaluator.AsInt(args[1])
	if !ok {
		return nil, typeError("round: ndigits must be an integer, not '%s'", evaluator.TypeName(args[1]))
	}
	if n, ok := evaluator.AsInt(args[0]); ok {
		return roundInt(n, digits)
	}
	f, _ := evaluator.AsFloat(args[0])
	scale := math.Pow(10, float64(digits))
	if math.IsInf(scale, 0) || scale == 0 {
		return evaluator.NewFloat(f), nil
	}
	return evaluator.NewFloat(math.RoundToEven(f*scale) / scale), nil
}

// roundInt rounds n to a multiple of 10^-digits, ties to even.
func roundInt(n, digits int64) (evaluator.Value, error) {
	if digits >= 0 {
		return evaluator.NewInt(n), nil
	}
	if digits < -19 {
		return evaluator.NewInt(0), nil
	}

	mag := uint64(n)
	if n < 0 {
		mag = -mag
	}
	p := uint64(1)
	for i := int64(0); i < -digits; i++ {
		p *= 10
	}
	q, r := mag/p, mag%p
	if r > p-r || (r == p-r && q%2 == 1) {
		q++
	}
	if q != 0 && q > math.MaxUint64/p {
		return nil, overflow()
	}
	out := q * p
	if n < 0 {
		if out > 1<<63 {
			return nil, overflow()
		}
		return evaluator.NewInt(int64(-out)), nil
	}
	if out > math.MaxInt64 {
		return nil, overflow()
	}
	return evaluator.NewInt(int64(out)), nil
}

// not { x } → negated truthiness
func stdlibNot(args []evaluator.Value) (evaluator.Value, error) {
	return evaluator.NewBool(!evaluator.Truthiness(args[0])), nil
}

// floatToInt converts an already-integral float to Int.
func floatToInt(name string, f float64) (evaluator.Value, error) {
	if math.IsNaN(f) {
		return nil, arithError("%s: cannot convert float NaN to integer", name)
	}
	if math.IsInf(f, 0) {
		return nil, arithError("%s: cannot convert float infinity to integer", name)
	}
	if f < -(1<<63) || f >= 1<<63 {
		return nil, overflow()
	}
	return evaluator.NewInt(int64(f)), nil
}
