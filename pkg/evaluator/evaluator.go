package evaluator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thomasrohde/pylisp/pkg/ast"
	"github.com/thomasrohde/pylisp/pkg/diagnostics"
	"github.com/thomasrohde/pylisp/pkg/formatter"
)

// Special form keywords.
const (
	KwIf     = "if"
	KwDefun  = "defun"
	KwFormat = "format"
)

// Format directives, checked in this order.
const (
	DirectiveNumber  = "~D~%"
	DirectiveNewline = "~%"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceEvalStart   TraceEventType = "eval_start"
	TraceEvalEnd     TraceEventType = "eval_end"
	TraceFnCallStart TraceEventType = "fn_call_start"
	TraceFnCallEnd   TraceEventType = "fn_call_end"
	TraceDefun       TraceEventType = "defun"
	TraceError       TraceEventType = "error"
)

// TraceEvent represents a single trace event emitted during evaluation.
type TraceEvent struct {
	Timestamp string         `json:"ts"`
	RunID     string         `json:"runId"`
	Event     TraceEventType `json:"event"`
	Data      map[string]any `json:"data,omitempty"`
}

// Options configures an Evaluator.
type Options struct {
	MaxDepth int
	Trace    func(event TraceEvent)
	RunID    string
}

// RuntimeError represents an error raised while evaluating an expression.
type RuntimeError struct {
	Code    string
	Message string
	Symbol  string // the name involved, when there is one
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Diagnostic returns the error as a diagnostic.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, nil, "")
}

// Errorf builds a RuntimeError with a formatted message.
func Errorf(code, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func arityError(name string, expected, actual int) *RuntimeError {
	return &RuntimeError{
		Code:    diagnostics.EArity,
		Message: fmt.Sprintf("%s: expected %d argument(s), got %d", name, expected, actual),
		Symbol:  name,
	}
}

// Evaluator walks expression trees. It is not safe for concurrent use;
// give each session its own.
type Evaluator struct {
	opts    Options
	budget  Budget
	tracker BudgetTracker
}

// New creates an Evaluator.
func New(opts Options) *Evaluator {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Evaluator{opts: opts, budget: Budget{MaxDepth: maxDepth}}
}

// Eval evaluates expr in env with default options.
func Eval(expr ast.Expr, env *Env) (Value, error) {
	return New(Options{}).Eval(expr, env)
}

// Stats returns the resource counters accumulated so far.
func (ev *Evaluator) Stats() BudgetTracker {
	return ev.tracker
}

func (ev *Evaluator) tracing() bool {
	return ev.opts.Trace != nil
}

// emit sends one trace event. Callers check tracing() first.
func (ev *Evaluator) emit(event TraceEventType, data map[string]any) {
	ev.opts.Trace(TraceEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RunID:     ev.opts.RunID,
		Event:     event,
		Data:      data,
	})
}

// Eval evaluates a top-level expression in env.
func (ev *Evaluator) Eval(expr ast.Expr, env *Env) (Value, error) {
	if ev.tracker.Depth > 0 || !ev.tracing() {
		return ev.eval(expr, env)
	}

	ev.emit(TraceEvalStart, map[string]any{"expr": formatter.Format(expr)})
	val, err := ev.eval(expr, env)
	if err != nil {
		ev.emit(TraceError, map[string]any{"code": diagnostics.CodeOf(err), "message": err.Error()})
		return nil, err
	}
	ev.emit(TraceEvalEnd, map[string]any{"value": val.String()})
	return val, nil
}

func (ev *Evaluator) eval(expr ast.Expr, env *Env) (Value, error) {
	if err := ev.enter(); err != nil {
		ev.leave()
		return nil, err
	}
	defer ev.leave()

	switch e := expr.(type) {
	case *ast.Int:
		return NewInt(e.Value), nil

	case *ast.Float:
		return NewFloat(e.Value), nil

	case *ast.Symbol:
		return env.Find(e.Name)

	case *ast.List:
		return ev.evalForm(e, env)

	default:
		return nil, Errorf(diagnostics.EInternal, "unsupported expression type: %T", expr)
	}
}

func (ev *Evaluator) evalForm(e *ast.List, env *Env) (Value, error) {
	if len(e.Items) == 0 {
		return nil, Errorf(diagnostics.ENotCallable, "cannot evaluate an empty form ()")
	}

	if name, ok := e.HeadSymbol(); ok {
		switch name {
		case KwIf:
			return ev.evalIf(e, env)
		case KwDefun:
			return ev.evalDefun(e, env)
		case KwFormat:
			return ev.evalFormat(e, env)
		}
	}

	return ev.evalApplication(e, env)
}

// (if COND THEN ELSE)
func (ev *Evaluator) evalIf(e *ast.List, env *Env) (Value, error) {
	ops := e.Operands()
	if len(ops) != 3 {
		return nil, &RuntimeError{
			Code:    diagnostics.EArity,
			Message: fmt.Sprintf("if: expected 3 operands (cond then else), got %d", len(ops)),
			Symbol:  KwIf,
		}
	}

	cond, err := ev.eval(ops[0], env.Child())
	if err != nil {
		return nil, err
	}
	if Truthiness(cond) {
		return ev.eval(ops[1], env.Child())
	}
	return ev.eval(ops[2], env.Child())
}

// (defun NAME (PARAM...) BODY)
func (ev *Evaluator) evalDefun(e *ast.List, env *Env) (Value, error) {
	const shape = "expected (defun NAME (PARAM...) BODY)"

	ops := e.Operands()
	if len(ops) != 3 {
		return nil, Errorf(diagnostics.ESyntax, "defun: %s, got %d operand(s)", shape, len(ops))
	}
	nameSym, ok := ops[0].(*ast.Symbol)
	if !ok {
		return nil, Errorf(diagnostics.ESyntax, "defun: function name must be a symbol, got %s", formatter.Format(ops[0]))
	}
	plist, ok := ops[1].(*ast.List)
	if !ok {
		return nil, Errorf(diagnostics.ESyntax, "defun %s: %s", nameSym.Name, shape)
	}

	params := make([]string, 0, len(plist.Items))
	seen := make(map[string]bool, len(plist.Items))
	for _, item := range plist.Items {
		sym, ok := item.(*ast.Symbol)
		if !ok {
			return nil, Errorf(diagnostics.ESyntax, "defun %s: parameter must be a symbol, got %s", nameSym.Name, formatter.Format(item))
		}
		if seen[sym.Name] {
			return nil, Errorf(diagnostics.ESyntax, "defun %s: duplicate parameter '%s'", nameSym.Name, sym.Name)
		}
		seen[sym.Name] = true
		params = append(params, sym.Name)
	}

	env.Bind(nameSym.Name, &Func{Name: nameSym.Name, Params: params, Body: ops[2]})
	if ev.tracing() {
		ev.emit(TraceDefun, map[string]any{"fn": nameSym.Name, "params": params})
	}

	return NewStr("Defined " + strings.ToUpper(nameSym.Name)), nil
}

// (format DEST PARTS... [ARG])
func (ev *Evaluator) evalFormat(e *ast.List, env *Env) (Value, error) {
	ops := e.Operands()
	if len(ops) == 0 {
		return nil, &RuntimeError{Code: diagnostics.EArity, Message: "format: missing destination", Symbol: KwFormat}
	}

	parts, rest, err := splitFormatText(ops[1:])
	if err != nil {
		return nil, err
	}
	if len(rest) > 1 {
		return nil, &RuntimeError{
			Code:    diagnostics.EArity,
			Message: fmt.Sprintf("format: expected at most 1 argument after the format text, got %d", len(rest)),
			Symbol:  KwFormat,
		}
	}

	fill := ""
	if len(rest) == 1 {
		arg, err := ev.eval(rest[0], env.Child())
		if err != nil {
			return nil, err
		}
		fill = arg.String()
	}

	text := strings.ReplaceAll(strings.Join(parts, " "), `"`, "")
	if strings.Contains(text, DirectiveNumber) {
		text = strings.Replace(text, DirectiveNumber, fill, 1)
	} else {
		text = strings.Replace(text, DirectiveNewline, fill, 1)
	}
	return NewStr(text), nil
}

// splitFormatText separates the format text operands from what follows.
// Quoted text arrives as several tokens: it runs from an operand opening
// with a quote to the first operand closing with one. Unquoted text is a
// single atom.
func splitFormatText(ops []ast.Expr) ([]string, []ast.Expr, error) {
	if len(ops) == 0 {
		return nil, nil, nil
	}

	first, ok := ops[0].(*ast.Symbol)
	if !ok || !strings.HasPrefix(first.Name, `"`) {
		if _, isForm := ops[0].(*ast.List); isForm {
			return nil, nil, Errorf(diagnostics.ESyntax, "format: format text must be quoted text or an atom, got %s", formatter.Format(ops[0]))
		}
		return []string{formatter.Format(ops[0])}, ops[1:], nil
	}

	parts := make([]string, 0, len(ops))
	for i, op := range ops {
		text := formatter.Format(op)
		parts = append(parts, text)
		sym, isSym := op.(*ast.Symbol)
		if !isSym || !strings.HasSuffix(sym.Name, `"`) {
			continue
		}
		if i > 0 || len(sym.Name) > 1 {
			return parts, ops[i+1:], nil
		}
	}
	return nil, nil, Errorf(diagnostics.ESyntax, "format: unterminated format text %s", strings.Join(parts, " "))
}

// (HEAD OPERAND...)
func (ev *Evaluator) evalApplication(e *ast.List, env *Env) (Value, error) {
	head, err := ev.eval(e.Items[0], env.Child())
	if err != nil {
		return nil, err
	}

	ops := e.Operands()
	args := make([]Value, 0, len(ops))
	for _, op := range ops {
		val, err := ev.eval(op, env.Child())
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}

	switch fn := head.(type) {
	case *Func:
		return ev.callFunc(fn, args, env)
	case *Builtin:
		return ev.callBuiltin(fn, args)
	case Int, Float:
		if len(args) == 0 {
			return head, nil
		}
	}
	return nil, &RuntimeError{
		Code:    diagnostics.ENotCallable,
		Message: fmt.Sprintf("'%s' object is not callable: %s", TypeName(head), formatter.Format(e.Items[0])),
	}
}

// callFunc binds the parameters into the caller's environment, not a
// fresh one, and evaluates the body in a child of it.
func (ev *Evaluator) callFunc(fn *Func, args []Value, env *Env) (Value, error) {
	if len(args) != len(fn.Params) {
		return nil, arityError(fn.Name, len(fn.Params), len(args))
	}
	if err := env.BindAll(fn.Params, args); err != nil {
		return nil, err
	}

	ev.tracker.Calls++
	if ev.tracing() {
		ev.emit(TraceFnCallStart, map[string]any{"fn": fn.Name, "depth": ev.tracker.Depth})
	}
	result, err := ev.eval(fn.Body, env.Child())
	if ev.tracing() {
		ev.emit(TraceFnCallEnd, map[string]any{"fn": fn.Name, "depth": ev.tracker.Depth})
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (ev *Evaluator) callBuiltin(fn *Builtin, args []Value) (Value, error) {
	if len(args) < fn.MinArgs || (fn.MaxArgs != Variadic && len(args) > fn.MaxArgs) {
		expected := fn.MinArgs
		if len(args) > fn.MinArgs {
			expected = fn.MaxArgs
		}
		return nil, arityError(fn.Name, expected, len(args))
	}

	ev.tracker.Calls++
	result, err := fn.Fn(args)
	if err != nil {
		var rtErr *RuntimeError
		if errors.As(err, &rtErr) {
			return nil, rtErr
		}
		return nil, &RuntimeError{
			Code:    diagnostics.EArithmetic,
			Message: fmt.Sprintf("%s: %s", fn.Name, err.Error()),
			Symbol:  fn.Name,
		}
	}
	return result, nil
}
