// Package runtime wires the tokenizer, validator, parser and evaluator into
// sessions that own their global environment.
package runtime

import (
	"github.com/google/uuid"

	"github.com/thomasrohde/pylisp/pkg/evaluator"
	"github.com/thomasrohde/pylisp/pkg/lexer"
	"github.com/thomasrohde/pylisp/pkg/parser"
	"github.com/thomasrohde/pylisp/pkg/stdlib"
)

// NewGlobalEnv returns a fresh root environment seeded with every built-in.
func NewGlobalEnv() *evaluator.Env {
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg)
	env := evaluator.NewEnv(nil)
	reg.Seed(env)
	return env
}

// Evaluate runs text through the whole pipeline against env. A nil env
// evaluates against a fresh global environment.
func Evaluate(text string, env *evaluator.Env) (evaluator.Value, error) {
	if env == nil {
		env = NewGlobalEnv()
	}
	return evaluate(evaluator.New(evaluator.Options{}), text, env, 0)
}

// evaluate parses text nesting at most maxDepth forms, the evaluator's
// own depth limit.
func evaluate(ev *evaluator.Evaluator, text string, env *evaluator.Env, maxDepth int) (evaluator.Value, error) {
	if maxDepth <= 0 {
		maxDepth = evaluator.DefaultMaxDepth
	}
	expr, err := parser.ParseLimit(lexer.Tokenize(text), maxDepth)
	if err != nil {
		return nil, err
	}
	return ev.Eval(expr, env)
}

// Session evaluates statements one after another against a global
// environment it owns. Definitions persist across calls; an error aborts
// only the statement that raised it. A Session is not safe for concurrent
// use, but separate sessions are independent.
type Session struct {
	id       string
	env      *evaluator.Env
	maxDepth int
	trace    func(event evaluator.TraceEvent)
	ev       *evaluator.Evaluator
}

// Option is a functional option for configuring a Session.
type Option func(*Session)

// WithMaxDepth bounds the evaluation depth.
func WithMaxDepth(n int) Option {
	return func(s *Session) {
		s.maxDepth = n
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(s *Session) {
		s.trace = fn
	}
}

// WithRunID sets the run ID stamped on trace events.
func WithRunID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithEnv evaluates against env instead of a fresh global environment.
func WithEnv(env *evaluator.Env) Option {
	return func(s *Session) {
		s.env = env
	}
}

// NewSession creates a Session. By default it gets a new global
// environment and a random run ID.
func NewSession(opts ...Option) *Session {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.New().String()
	}
	if s.env == nil {
		s.env = NewGlobalEnv()
	}
	s.ev = evaluator.New(evaluator.Options{
		MaxDepth: s.maxDepth,
		Trace:    s.trace,
		RunID:    s.id,
	})
	return s
}

// Evaluate runs one statement in the session's environment.
func (s *Session) Evaluate(text string) (evaluator.Value, error) {
	return evaluate(s.ev, text, s.env, s.maxDepth)
}

// Env returns the session's global environment.
func (s *Session) Env() *evaluator.Env {
	return s.env
}

// ID returns the session's run ID.
func (s *Session) ID() string {
	return s.id
}

// Stats returns the evaluator counters accumulated by the session.
func (s *Session) Stats() evaluator.BudgetTracker {
	return s.ev.Stats()
}
