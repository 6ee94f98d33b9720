// Package stdlib provides the built-in bindings seeded into every global
// environment.
package stdlib

import (
	"sort"

	"github.com/thomasrohde/pylisp/pkg/evaluator"
)

// Fn describes a built-in function before it is wrapped as a value.
type Fn struct {
	Name    string
	MinArgs int
	MaxArgs int
	Execute func(args []evaluator.Value) (evaluator.Value, error)
}

// Registry holds registered built-in values.
type Registry struct {
	values map[string]evaluator.Value
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		values: make(map[string]evaluator.Value),
	}
}

// Register adds a built-in function to the registry.
func (r *Registry) Register(fn Fn) {
	r.values[fn.Name] = &evaluator.Builtin{
		Name:    fn.Name,
		MinArgs: fn.MinArgs,
		MaxArgs: fn.MaxArgs,
		Fn:      fn.Execute,
	}
}

// RegisterConst adds a named constant.
func (r *Registry) RegisterConst(name string, v evaluator.Value) {
	r.values[name] = v
}

// Get retrieves a value by name.
func (r *Registry) Get(name string) evaluator.Value {
	return r.values[name]
}

// All returns all registered values.
func (r *Registry) All() map[string]evaluator.Value {
	return r.values
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.values))
	for name := range r.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Seed binds every registered value into env.
func (r *Registry) Seed(env *evaluator.Env) {
	for name, v := range r.values {
		env.Bind(name, v)
	}
}
