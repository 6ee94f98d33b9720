package stdlib

import (
	"math"

	"github.com/thomasrohde/pylisp/pkg/evaluator"
)

func registerMath(r *Registry) {
	// Constants
	r.RegisterConst("pi", evaluator.NewFloat(math.Pi))
	r.RegisterConst("e", evaluator.NewFloat(math.E))
	r.RegisterConst("tau", evaluator.NewFloat(2*math.Pi))
	r.RegisterConst("inf", evaluator.NewFloat(math.Inf(1)))
	r.RegisterConst("nan", evaluator.NewFloat(math.NaN()))

	// Powers and logarithms
	r.Register(Fn{Name: "pow", MinArgs: 2, MaxArgs: 2, Execute: mathPow})
	r.Register(unary("sqrt", math.Sqrt, func(x float64) bool { return x >= 0 }))
	r.Register(unary("exp", math.Exp, nil))
	r.Register(unary("expm1", math.Expm1, nil))
	r.Register(Fn{Name: "log", MinArgs: 1, MaxArgs: 2, Execute: mathLog})
	r.Register(unary("log2", math.Log2, positive))
	r.Register(unary("log10", math.Log10, positive))
	r.Register(unary("log1p", math.Log1p, func(x float64) bool { return x > -1 }))

	// Trigonometry
	r.Register(unary("sin", math.Sin, finite))
	r.Register(unary("cos", math.Cos, finite))
	r.Register(unary("tan", math.Tan, finite))
	r.Register(unary("asin", math.Asin, unitRange))
	r.Register(unary("acos", math.Acos, unitRange))
	r.Register(unary("atan", math.Atan, nil))
	r.Register(binary("atan2", math.Atan2))
	r.Register(binary("hypot", math.Hypot))
	r.Register(unary("degrees", func(x float64) float64 { return x * 180 / math.Pi }, nil))
	r.Register(unary("radians", func(x float64) float64 { return x * math.Pi / 180 }, nil))

	// Hyperbolic
	r.Register(unary("sinh", math.Sinh, nil))
	r.Register(unary("cosh", math.Cosh, nil))
	r.Register(unary("tanh", math.Tanh, nil))
	r.Register(unary("asinh", math.Asinh, nil))
	r.Register(unary("acosh", math.Acosh, func(x float64) bool { return x >= 1 }))
	r.Register(unary("atanh", math.Atanh, func(x float64) bool { return x > -1 && x < 1 }))

	// Float manipulation
	r.Register(unary("fabs", math.Abs, nil))
	r.Register(binary("fmod", math.Mod))
	r.Register(binary("copysign", math.Copysign))
	r.Register(Fn{Name: "floor", MinArgs: 1, MaxArgs: 1, Execute: toInt("floor", math.Floor)})
	r.Register(Fn{Name: "ceil", MinArgs: 1, MaxArgs: 1, Execute: toInt("ceil", math.Ceil)})
	r.Register(Fn{Name: "trunc", MinArgs: 1, MaxArgs: 1, Execute: toInt("trunc", math.Trunc)})

	// Number theory
	r.Register(Fn{Name: "factorial", MinArgs: 1, MaxArgs: 1, Execute: mathFactorial})
	r.Register(Fn{Name: "gcd", MinArgs: 2, MaxArgs: evaluator.Variadic, Execute: mathGcd})
	r.Register(Fn{Name: "isqrt", MinArgs: 1, MaxArgs: 1, Execute: mathIsqrt})

	// Special functions
	r.Register(unary("gamma", math.Gamma, func(x float64) bool { return x > 0 || x != math.Trunc(x) }))
	r.Register(unary("lgamma", func(x float64) float64 {
		v, _ := math.Lgamma(x)
		return v
	}, func(x float64) bool { return x > 0 || x != math.Trunc(x) }))
	r.Register(unary("erf", math.Erf, nil))
	r.Register(unary("erfc", math.Erfc, nil))

	// Classification
	r.Register(classify("isfinite", func(x float64) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) }))
	r.Register(classify("isinf", func(x float64) bool { return math.IsInf(x, 0) }))
	r.Register(classify("isnan", math.IsNaN))
}

func positive(x float64) bool { return x > 0 }

func finite(x float64) bool { return !math.IsInf(x, 0) }

func unitRange(x float64) bool { return x >= -1 && x <= 1 }

func domainError(name string) error {
	return arithError("%s: math domain error", name)
}

func rangeError(name string) error {
	return arithError("%s: math range error", name)
}

func floats(name string, args []evaluator.Value) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, ok := evaluator.AsFloat(a)
		if !ok {
			return nil, typeError("%s: must be real number, not %s", name, evaluator.TypeName(a))
		}
		out[i] = f
	}
	return out, nil
}

// checkResult turns a NaN produced from non-NaN inputs into a domain error
// and an infinity produced from finite inputs into a range error.
func checkResult(name string, in []float64, out float64) error {
	anyNaN, allFinite := false, true
	for _, x := range in {
		if math.IsNaN(x) {
			anyNaN = true
		}
		if math.IsInf(x, 0) || math.IsNaN(x) {
			allFinite = false
		}
	}
	if math.IsNaN(out) && !anyNaN {
		return domainError(name)
	}
	if math.IsInf(out, 0) && allFinite {
		return rangeError(name)
	}
	return nil
}

// unary wraps a float function. A non-nil domain rejects inputs outright;
// NaN inputs always pass through.
func unary(name string, f func(float64) float64, domain func(float64) bool) Fn {
	return Fn{Name: name, MinArgs: 1, MaxArgs: 1, Execute: func(args []evaluator.Value) (evaluator.Value, error) {
		xs, err := floats(name, args)
		if err != nil {
			return nil, err
		}
		x := xs[0]
		if domain != nil && !math.IsNaN(x) && !domain(x) {
			return nil, domainError(name)
		}
		out := f(x)
		if err := checkResult(name, xs, out); err != nil {
			return nil, err
		}
		return evaluator.NewFloat(out), nil
	}}
}

func binary(name string, f func(x, y float64) float64) Fn {
	return Fn{Name: name, MinArgs: 2, MaxArgs: 2, Execute: func(args []evaluator.Value) (evaluator.Value, error) {
		xs, err := floats(name, args)
		if err != nil {
			return nil, err
		}
		out := f(xs[0], xs[1])
		if err := checkResult(name, xs, out); err != nil {
			return nil, err
		}
		return evaluator.NewFloat(out), nil
	}}
}

func classify(name string, pred func(float64) bool) Fn {
	return Fn{Name: name, MinArgs: 1, MaxArgs: 1, Execute: func(args []evaluator.Value) (evaluator.Value, error) {
		xs, err := floats(name, args)
		if err != nil {
			return nil, err
		}
		return evaluator.NewBool(pred(xs[0])), nil
	}}
}

func toInt(name string, f func(float64) float64) func(args []evaluator.Value) (evaluator.Value, error) {
	return func(args []evaluator.Value) (evaluator.Value, error) {
		if n, ok := evaluator.AsInt(args[0]); ok {
			return evaluator.NewInt(n), nil
		}
		xs, err := floats(name, args)
		if err != nil {
			return nil, err
		}
		return floatToInt(name, f(xs[0]))
	}
}

// pow { x y } → x ** y as a float
func mathPow(args []evaluator.Value) (evaluator.Value, error) {
	xs, err := floats("pow", args)
	if err != nil {
		return nil, err
	}
	x, y := xs[0], xs[1]
	if x == 0 && y < 0 {
		return nil, domainError("pow")
	}
	out := math.Pow(x, y)
	if err := checkResult("pow", xs, out); err != nil {
		return nil, err
	}
	return evaluator.NewFloat(out), nil
}

// log { x } → ln x; log { x base } → log of x in base
func mathLog(args []evaluator.Value) (evaluator.Value, error) {
	xs, err := floats("log", args)
	if err != nil {
		return nil, err
	}
	for _, x := range xs {
		if !math.IsNaN(x) && x <= 0 {
			return nil, domainError("log")
		}
	}
	out := math.Log(xs[0])
	if len(xs) == 2 {
		base := math.Log(xs[1])
		if base == 0 {
			return nil, arithError("log: float division by zero")
		}
		out /= base
	}
	return evaluator.NewFloat(out), nil
}

func nonNegativeInt(name string, v evaluator.Value) (int64, error) {
	n, ok := evaluator.AsInt(v)
	if !ok {
		return 0, typeError("%s: '%s' object cannot be interpreted as an integer", name, evaluator.TypeName(v))
	}
	if n < 0 {
		return 0, arithError("%s: not defined for negative values", name)
	}
	return n, nil
}

// factorial { n } → n! for a non-negative integer
func mathFactorial(args []evaluator.Value) (evaluator.Value, error) {
	n, err := nonNegativeInt("factorial", args[0])
	if err != nil {
		return nil, err
	}
	acc := int64(1)
	for i := int64(2); i <= n; i++ {
		next, ok := mulInt(acc, i)
		if !ok {
			return nil, overflow()
		}
		acc = next
	}
	return evaluator.NewInt(acc), nil
}

// gcd { a b ... } → greatest common divisor, always non-negative
func mathGcd(args []evaluator.Value) (evaluator.Value, error) {
	acc := uint64(0)
	for _, a := range args {
		n, ok := evaluator.AsInt(a)
		if !ok {
			return nil, typeError("gcd: '%s' object cannot be interpreted as an integer", evaluator.TypeName(a))
		}
		m := uint64(n)
		if n < 0 {
			m = uint64(-(n + 1)) + 1
		}
		for m != 0 {
			acc, m = m, acc%m
		}
	}
	if acc > math.MaxInt64 {
		return nil, overflow()
	}
	return evaluator.NewInt(int64(acc)), nil
}

// isqrt { n } → floor(sqrt(n)) computed exactly
func mathIsqrt(args []evaluator.Value) (evaluator.Value, error) {
	n, err := nonNegativeInt("isqrt", args[0])
	if err != nil {
		return nil, err
	}
	r := int64(math.Sqrt(float64(n)))
	for r > 0 && r > n/r {
		r--
	}
	for r+1 <= n/(r+1) {
		r++
	}
	return evaluator.NewInt(r), nil
}
