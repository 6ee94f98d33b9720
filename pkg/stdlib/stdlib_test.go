package stdlib_test

import (
	"errors"
	"math"
	"testing"

	"github.com/thomasrohde/pylisp/pkg/diagnostics"
	"github.com/thomasrohde/pylisp/pkg/evaluator"
	"github.com/thomasrohde/pylisp/pkg/stdlib"
)

// --- helpers ---

func registry() *stdlib.Registry {
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg)
	return reg
}

func call(t *testing.T, name string, args ...evaluator.Value) (evaluator.Value, error) {
	t.Helper()
	v := registry().Get(name)
	fn, ok := v.(*evaluator.Builtin)
	if !ok {
		t.Fatalf("%s is not a builtin, got %T", name, v)
	}
	return fn.Fn(args)
}

func mustCall(t *testing.T, name string, args ...evaluator.Value) evaluator.Value {
	t.Helper()
	v, err := call(t, name, args...)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}
	return v
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %s, got nil", code)
	}
	var rtErr *evaluator.RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("expected *RuntimeError, got %T: %v", err, err)
	}
	if rtErr.Code != code {
		t.Errorf("expected code %s, got %s (%s)", code, rtErr.Code, rtErr.Message)
	}
}

func i(n int64) evaluator.Value   { return evaluator.NewInt(n) }
func f(x float64) evaluator.Value { return evaluator.NewFloat(x) }

// --- registry ---

func TestRegistryNamesSorted(t *testing.T) {
	names := registry().Names()
	if len(names) == 0 {
		t.Fatal("expected registered names")
	}
	for k := 1; k < len(names); k++ {
		if names[k-1] > names[k] {
			t.Fatalf("names not sorted: %q before %q", names[k-1], names[k])
		}
	}
}

func TestRegistrySeed(t *testing.T) {
	env := evaluator.NewEnv(nil)
	reg := registry()
	reg.Seed(env)
	if env.Len() != len(reg.All()) {
		t.Errorf("expected %d bindings, got %d", len(reg.All()), env.Len())
	}
	for _, name := range []string{"+", "-", "*", "/", "<", "=", "sqrt", "pi"} {
		if !env.Has(name) {
			t.Errorf("expected %s to be bound", name)
		}
	}
}

func TestConstants(t *testing.T) {
	reg := registry()
	if got := reg.Get("pi"); got != f(math.Pi) {
		t.Errorf("pi: got %v", got)
	}
	if got := reg.Get("tau").String(); got != "6.283185307179586" {
		t.Errorf("tau: got %s", got)
	}
	if got := reg.Get("inf").String(); got != "inf" {
		t.Errorf("inf: got %s", got)
	}
}

// --- arithmetic ---

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		args []evaluator.Value
		want evaluator.Value
	}{
		{"add ints", "+", []evaluator.Value{i(1), i(2), i(3)}, i(6)},
		{"add mixed", "+", []evaluator.Value{i(1), f(0.5)}, f(1.5)},
		{"add bools", "+", []evaluator.Value{evaluator.NewBool(true), evaluator.NewBool(true)}, i(2)},
		{"single add", "+", []evaluator.Value{i(7)}, i(7)},
		{"sub", "-", []evaluator.Value{i(10), i(3), i(2)}, i(5)},
		{"negate", "-", []evaluator.Value{i(4)}, i(-4)},
		{"negate float", "-", []evaluator.Value{f(2.5)}, f(-2.5)},
		{"mul", "*", []evaluator.Value{i(2), i(3), i(4)}, i(24)},
		{"mul float", "*", []evaluator.Value{i(2), f(1.5)}, f(3)},
		{"true division", "/", []evaluator.Value{i(6), i(3)}, f(2)},
		{"fractional division", "/", []evaluator.Value{i(1), i(4)}, f(0.25)},
		{"reciprocal", "/", []evaluator.Value{i(2)}, f(0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustCall(t, tt.fn, tt.args...)
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDivisionAlwaysFloat(t *testing.T) {
	got := mustCall(t, "/", i(4), i(2))
	if got.String() != "2.0" {
		t.Errorf("expected 2.0, got %s", got)
	}
}

func TestDivisionByZero(t *testing.T) {
	_, err := call(t, "/", i(1), i(0))
	expectCode(t, err, diagnostics.EArithmetic)

	_, err = call(t, "/", f(1), f(0))
	expectCode(t, err, diagnostics.EArithmetic)
}

func TestIntegerOverflow(t *testing.T) {
	cases := []struct {
		fn   string
		args []evaluator.Value
	}{
		{"+", []evaluator.Value{i(math.MaxInt64), i(1)}},
		{"-", []evaluator.Value{i(math.MinInt64), i(1)}},
		{"-", []evaluator.Value{i(math.MinInt64)}},
		{"*", []evaluator.Value{i(math.MaxInt64), i(2)}},
		{"*", []evaluator.Value{i(-1), i(math.MinInt64)}},
		{"abs", []evaluator.Value{i(math.MinInt64)}},
		{"factorial", []evaluator.Value{i(21)}},
	}
	for _, c := range cases {
		_, err := call(t, c.fn, c.args...)
		expectCode(t, err, diagnostics.EArithmetic)
	}
}

func TestArithmeticTypeError(t *testing.T) {
	_, err := call(t, "+", i(1), evaluator.NewStr("a"))
	expectCode(t, err, diagnostics.EType)
	if err.Error() != "unsupported operand type(s) for +: 'int' and 'str'" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

// --- comparison ---

func TestComparison(t *testing.T) {
	tests := []struct {
		fn   string
		a, b evaluator.Value
		want bool
	}{
		{"<", i(1), i(2), true},
		{"<", i(2), i(1), false},
		{"<=", i(2), i(2), true},
		{">", f(2.5), i(2), true},
		{">=", i(1), f(1.0), true},
		{"=", i(1), f(1.0), true},
		{"=", i(1), i(2), false},
		{"!=", i(1), i(2), true},
		{"=", evaluator.NewStr("a"), i(1), false},
		{"<", evaluator.NewStr("a"), evaluator.NewStr("b"), true},
		{"<", f(math.NaN()), i(1), false},
		{">=", f(math.NaN()), i(1), false},
	}
	for _, tt := range tests {
		got := mustCall(t, tt.fn, tt.a, tt.b)
		if got != evaluator.NewBool(tt.want) {
			t.Errorf("(%s %s %s): got %s, want %v", tt.fn, tt.a, tt.b, got, tt.want)
		}
	}
}

func TestComparisonTypeError(t *testing.T) {
	_, err := call(t, "<", evaluator.NewStr("a"), i(1))
	expectCode(t, err, diagnostics.EType)
}

// --- helpers ---

func TestAbsMaxMinRoundNot(t *testing.T) {
	if got := mustCall(t, "abs", i(-3)); got != i(3) {
		t.Errorf("abs: got %v", got)
	}
	if got := mustCall(t, "abs", f(-1.5)); got != f(1.5) {
		t.Errorf("abs float: got %v", got)
	}
	if got := mustCall(t, "max", i(1), f(3.5), i(2)); got != f(3.5) {
		t.Errorf("max: got %v", got)
	}
	if got := mustCall(t, "min", i(4), i(-1), i(2)); got != i(-1) {
		t.Errorf("min: got %v", got)
	}
	if got := mustCall(t, "round", f(2.5)); got != i(2) {
		t.Errorf("round half to even: got %v", got)
	}
	if got := mustCall(t, "round", f(3.5)); got != i(4) {
		t.Errorf("round 3.5: got %v", got)
	}
	if got := mustCall(t, "round", f(1.2345), i(2)); got != f(1.23) {
		t.Errorf("round digits: got %v", got)
	}
	if got := mustCall(t, "not", i(0)); got != evaluator.NewBool(true) {
		t.Errorf("not 0: got %v", got)
	}
	if got := mustCall(t, "not", i(5)); got != evaluator.NewBool(false) {
		t.Errorf("not 5: got %v", got)
	}
}

func TestRoundIntegerDigits(t *testing.T) {
	tests := []struct {
		n, digits, want int64
	}{
		{1234, -2, 1200},
		{1250, -2, 1200},
		{1350, -2, 1400},
		{-1250, -2, -1200},
		{-1251, -2, -1300},
		{5, -1, 0},
		{15, -1, 20},
		{42, 3, 42},
		{123, -25, 0},
		{math.MinInt64, 0, math.MinInt64},
	}
	for _, tt := range tests {
		if got := mustCall(t, "round", i(tt.n), i(tt.digits)); got != i(tt.want) {
			t.Errorf("round %d %d: got %v, want %d", tt.n, tt.digits, got, tt.want)
		}
	}

	_, err := call(t, "round", i(math.MaxInt64), i(-1))
	expectCode(t, err, diagnostics.EArithmetic)
}

// --- math library ---

func TestMathFunctions(t *testing.T) {
	tests := []struct {
		fn   string
		args []evaluator.Value
		want float64
	}{
		{"sqrt", []evaluator.Value{i(16)}, 4},
		{"pow", []evaluator.Value{i(2), i(10)}, 1024},
		{"exp", []evaluator.Value{i(0)}, 1},
		{"log", []evaluator.Value{f(math.E)}, 1},
		{"log", []evaluator.Value{i(8), i(2)}, 3},
		{"log2", []evaluator.Value{i(8)}, 3},
		{"log10", []evaluator.Value{i(1000)}, 3},
		{"sin", []evaluator.Value{i(0)}, 0},
		{"cos", []evaluator.Value{i(0)}, 1},
		{"atan2", []evaluator.Value{i(0), i(1)}, 0},
		{"hypot", []evaluator.Value{i(3), i(4)}, 5},
		{"fabs", []evaluator.Value{i(-2)}, 2},
		{"fmod", []evaluator.Value{i(7), i(3)}, 1},
		{"degrees", []evaluator.Value{f(math.Pi)}, 180},
		{"copysign", []evaluator.Value{i(3), i(-1)}, -3},
		{"gamma", []evaluator.Value{i(5)}, 24},
	}
	for _, tt := range tests {
		got := mustCall(t, tt.fn, tt.args...)
		fl, ok := got.(evaluator.Float)
		if !ok {
			t.Errorf("%s: expected Float, got %T", tt.fn, got)
			continue
		}
		if math.Abs(fl.Value-tt.want) > 1e-9 {
			t.Errorf("%s: got %v, want %v", tt.fn, fl.Value, tt.want)
		}
	}
}

func TestMathIntegerResults(t *testing.T) {
	tests := []struct {
		fn   string
		args []evaluator.Value
		want evaluator.Value
	}{
		{"floor", []evaluator.Value{f(2.7)}, i(2)},
		{"floor", []evaluator.Value{f(-2.1)}, i(-3)},
		{"ceil", []evaluator.Value{f(2.1)}, i(3)},
		{"trunc", []evaluator.Value{f(-2.7)}, i(-2)},
		{"factorial", []evaluator.Value{i(5)}, i(120)},
		{"factorial", []evaluator.Value{i(0)}, i(1)},
		{"gcd", []evaluator.Value{i(12), i(18)}, i(6)},
		{"gcd", []evaluator.Value{i(-4), i(6), i(10)}, i(2)},
		{"isqrt", []evaluator.Value{i(17)}, i(4)},
		{"isqrt", []evaluator.Value{i(16)}, i(4)},
	}
	for _, tt := range tests {
		got := mustCall(t, tt.fn, tt.args...)
		if got != tt.want {
			t.Errorf("%s%v: got %#v, want %#v", tt.fn, tt.args, got, tt.want)
		}
	}
}

func TestMathDomainErrors(t *testing.T) {
	cases := []struct {
		fn   string
		args []evaluator.Value
	}{
		{"sqrt", []evaluator.Value{i(-1)}},
		{"log", []evaluator.Value{i(0)}},
		{"log", []evaluator.Value{i(-1)}},
		{"log10", []evaluator.Value{i(0)}},
		{"asin", []evaluator.Value{i(2)}},
		{"acosh", []evaluator.Value{i(0)}},
		{"atanh", []evaluator.Value{i(1)}},
		{"pow", []evaluator.Value{i(0), i(-1)}},
		{"pow", []evaluator.Value{i(-8), f(1.0 / 3)}},
		{"fmod", []evaluator.Value{i(1), i(0)}},
		{"gamma", []evaluator.Value{i(0)}},
		{"factorial", []evaluator.Value{i(-1)}},
		{"floor", []evaluator.Value{f(math.Inf(1))}},
	}
	for _, c := range cases {
		_, err := call(t, c.fn, c.args...)
		expectCode(t, err, diagnostics.EArithmetic)
	}
}

func TestMathRangeErrors(t *testing.T) {
	for _, name := range []string{"exp", "cosh", "sinh"} {
		_, err := call(t, name, i(1000))
		expectCode(t, err, diagnostics.EArithmetic)
	}
	_, err := call(t, "pow", f(10), f(400))
	expectCode(t, err, diagnostics.EArithmetic)
}

func TestMathTypeErrors(t *testing.T) {
	_, err := call(t, "sqrt", evaluator.NewStr("x"))
	expectCode(t, err, diagnostics.EType)

	_, err = call(t, "factorial", f(5.0))
	expectCode(t, err, diagnostics.EType)
}

func TestClassification(t *testing.T) {
	if got := mustCall(t, "isnan", f(math.NaN())); got != evaluator.NewBool(true) {
		t.Errorf("isnan: got %v", got)
	}
	if got := mustCall(t, "isinf", f(math.Inf(-1))); got != evaluator.NewBool(true) {
		t.Errorf("isinf: got %v", got)
	}
	if got := mustCall(t, "isfinite", i(3)); got != evaluator.NewBool(true) {
		t.Errorf("isfinite: got %v", got)
	}
}
