package evaluator

import (
	"fmt"
	"sort"

	"github.com/thomasrohde/pylisp/pkg/diagnostics"
)

// Env is a scoped environment for symbol bindings.
// It supports outer-chained lookup; writes only ever touch the local map.
type Env struct {
	bindings map[string]Value
	outer    *Env
}

// NewEnv creates a new environment with an optional outer scope.
func NewEnv(outer *Env) *Env {
	return &Env{
		bindings: make(map[string]Value),
		outer:    outer,
	}
}

// NewEnvWith creates an environment binding params[i] to args[i].
func NewEnvWith(params []string, args []Value, outer *Env) (*Env, error) {
	env := NewEnv(outer)
	if err := env.BindAll(params, args); err != nil {
		return nil, err
	}
	return env, nil
}

// Child creates a new empty scope whose outer is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Outer returns the enclosing scope, or nil at the root.
func (e *Env) Outer() *Env {
	return e.outer
}

// Get looks up a symbol, traversing outer scopes.
func (e *Env) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.outer {
		if val, ok := env.bindings[name]; ok {
			return val, true
		}
	}
	return nil, false
}

// Find looks up a symbol and fails with E_NAME when no scope binds it.
func (e *Env) Find(name string) (Value, error) {
	if val, ok := e.Get(name); ok {
		return val, nil
	}
	return nil, &RuntimeError{
		Code:    diagnostics.EName,
		Message: fmt.Sprintf("name '%s' is not defined", name),
		Symbol:  name,
	}
}

// Bind inserts or overwrites a binding in this scope only.
func (e *Env) Bind(name string, val Value) {
	e.bindings[name] = val
}

// BindAll binds params to args pairwise in this scope. Nothing is bound
// when the lengths differ.
func (e *Env) BindAll(params []string, args []Value) error {
	if len(params) != len(args) {
		return &RuntimeError{
			Code:    diagnostics.EArity,
			Message: fmt.Sprintf("expected %d argument(s), got %d", len(params), len(args)),
		}
	}
	for i, p := range params {
		e.bindings[p] = args[i]
	}
	return nil
}

// Has checks whether a symbol is bound in this scope or any outer one.
func (e *Env) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// HasLocal checks whether a symbol is bound in this scope.
func (e *Env) HasLocal(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// Names returns the locally bound symbols in sorted order.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of local bindings.
func (e *Env) Len() int {
	return len(e.bindings)
}
