package runtime_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/thomasrohde/pylisp/pkg/diagnostics"
	"github.com/thomasrohde/pylisp/pkg/evaluator"
	"github.com/thomasrohde/pylisp/pkg/runtime"
)

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %s, got nil", code)
	}
	if got := diagnostics.CodeOf(err); got != code {
		t.Errorf("expected code %s, got %s (%v)", code, got, err)
	}
}

func TestEvaluatePipeline(t *testing.T) {
	env := runtime.NewGlobalEnv()
	val, err := runtime.Evaluate("(* 2 (+ 3 4))", env)
	if err != nil {
		t.Fatal(err)
	}
	if val.String() != "14" {
		t.Errorf("expected 14, got %s", val)
	}
}

func TestEvaluateNilEnv(t *testing.T) {
	val, err := runtime.Evaluate("(+ 1 2)", nil)
	if err != nil {
		t.Fatal(err)
	}
	if val.String() != "3" {
		t.Errorf("expected 3, got %s", val)
	}
}

func TestEvaluateBalanceErrors(t *testing.T) {
	tests := []struct {
		src  string
		code string
	}{
		{"", diagnostics.EEmptyInput},
		{"   ", diagnostics.EEmptyInput},
		{"+ 1 2", diagnostics.EMissingOuterParens},
		{"(+ 1 2))", diagnostics.EMismatchedParens},
		{"((+ 1 2)", diagnostics.EMismatchedParens},
		{"(a)(b)", diagnostics.EMismatchedParens},
	}
	for _, tt := range tests {
		env := runtime.NewGlobalEnv()
		before := env.Len()
		_, err := runtime.Evaluate(tt.src, env)
		expectCode(t, err, tt.code)
		if !diagnostics.IsParseStage(diagnostics.CodeOf(err)) {
			t.Errorf("%q: expected a parse-stage code, got %s", tt.src, diagnostics.CodeOf(err))
		}
		if env.Len() != before {
			t.Errorf("%q: environment changed on a parse error", tt.src)
		}
	}
}

func TestEvaluateDeepNesting(t *testing.T) {
	deep := strings.Repeat("(", 1_000_000) + strings.Repeat(")", 1_000_000)
	_, err := runtime.Evaluate(deep, nil)
	expectCode(t, err, diagnostics.EResource)

	session := runtime.NewSession(runtime.WithMaxDepth(50))
	_, err = session.Evaluate(strings.Repeat("(+ 1 ", 60) + "1" + strings.Repeat(")", 60))
	expectCode(t, err, diagnostics.EResource)
	if _, err := session.Evaluate("(+ 1 2)"); err != nil {
		t.Errorf("session unusable after nesting error: %v", err)
	}
}

func TestEvaluateFactorial(t *testing.T) {
	env := runtime.NewGlobalEnv()
	if _, err := runtime.Evaluate("(defun fact (n) (if (<= n 1) 1 (* n (fact (- n 1)))))", env); err != nil {
		t.Fatal(err)
	}
	val, err := runtime.Evaluate("(fact 5)", env)
	if err != nil {
		t.Fatal(err)
	}
	if val != evaluator.NewInt(120) {
		t.Errorf("expected 120, got %#v", val)
	}
}

func TestGlobalEnvsAreIndependent(t *testing.T) {
	a := runtime.NewGlobalEnv()
	b := runtime.NewGlobalEnv()
	if _, err := runtime.Evaluate("(defun f () 1)", a); err != nil {
		t.Fatal(err)
	}
	if b.Has("f") {
		t.Error("definition leaked between global environments")
	}
	_, err := runtime.Evaluate("(f)", b)
	expectCode(t, err, diagnostics.EName)
}

func TestSessionPersistsDefinitions(t *testing.T) {
	s := runtime.NewSession()
	if s.ID() == "" {
		t.Fatal("expected a generated run ID")
	}
	if _, err := s.Evaluate("(defun doublen (n) (* 2 n))"); err != nil {
		t.Fatal(err)
	}

	// an error aborts only its own statement
	_, err := s.Evaluate("(doublen 1 2)")
	expectCode(t, err, diagnostics.EArity)

	val, err := s.Evaluate("(doublen 21)")
	if err != nil {
		t.Fatal(err)
	}
	if val.String() != "42" {
		t.Errorf("expected 42, got %s", val)
	}
}

func TestSessionOptions(t *testing.T) {
	env := runtime.NewGlobalEnv()
	var events []evaluator.TraceEvent
	s := runtime.NewSession(
		runtime.WithRunID("fixed"),
		runtime.WithEnv(env),
		runtime.WithMaxDepth(30),
		runtime.WithTrace(func(e evaluator.TraceEvent) { events = append(events, e) }),
	)

	if s.ID() != "fixed" || s.Env() != env {
		t.Fatal("options not applied")
	}
	if _, err := s.Evaluate("(defun spin (n) (spin n))"); err != nil {
		t.Fatal(err)
	}
	_, err := s.Evaluate("(spin 0)")
	expectCode(t, err, diagnostics.EResource)

	if len(events) == 0 {
		t.Fatal("expected trace events")
	}
	for _, e := range events {
		if e.RunID != "fixed" {
			t.Errorf("expected runId fixed, got %s", e.RunID)
		}
	}
	if s.Stats().PeakDepth <= 30 {
		t.Errorf("expected peak depth past the limit, got %d", s.Stats().PeakDepth)
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	if runtime.NewSession().ID() == runtime.NewSession().ID() {
		t.Error("expected distinct run IDs")
	}
}

func TestConcurrentSessions(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s := runtime.NewSession()
			if _, err := s.Evaluate(fmt.Sprintf("(defun k () %d)", n)); err != nil {
				errs <- err
				return
			}
			for j := 0; j < 50; j++ {
				val, err := s.Evaluate("(k)")
				if err != nil {
					errs <- err
					return
				}
				if val != evaluator.NewInt(int64(n)) {
					errs <- fmt.Errorf("session %d saw %s", n, val)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

// --- accumulator ---

func TestAccumulatorMultiline(t *testing.T) {
	acc := runtime.NewAccumulator()
	if _, ok := acc.Feed(""); ok {
		t.Fatal("blank line should not complete a statement")
	}
	if _, ok := acc.Feed("(defun fact (n)"); ok {
		t.Fatal("open statement reported complete")
	}
	if !acc.Pending() {
		t.Fatal("expected pending input")
	}
	stmt, ok := acc.Feed("  (if (<= n 1) 1 (* n (fact (- n 1)))))")
	if !ok {
		t.Fatal("expected statement to complete")
	}
	if acc.Line() != 2 {
		t.Errorf("expected statement to start on line 2, got %d", acc.Line())
	}
	if acc.Pending() {
		t.Error("expected nothing pending after completion")
	}

	env := runtime.NewGlobalEnv()
	if _, err := runtime.Evaluate(stmt, env); err != nil {
		t.Fatalf("accumulated statement failed: %v", err)
	}
}

func TestAccumulatorFlushesUnbalanced(t *testing.T) {
	acc := runtime.NewAccumulator()
	stmt, ok := acc.Feed("(+ 1 2))")
	if !ok {
		t.Fatal("expected over-closed input to flush")
	}
	_, err := runtime.Evaluate(stmt, nil)
	expectCode(t, err, diagnostics.EMismatchedParens)

	stmt, ok = acc.Feed("bare")
	if !ok || stmt != "bare" {
		t.Fatalf("expected bare atom to flush, got %q %v", stmt, ok)
	}

	acc.Feed("(+ 1")
	stmt, ok = acc.Flush()
	if !ok || stmt != "(+ 1" {
		t.Errorf("Flush() = %q, %v", stmt, ok)
	}
	if _, ok := acc.Flush(); ok {
		t.Error("expected empty flush")
	}
}

// --- config ---

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := runtime.LoadConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxDepth != evaluator.DefaultMaxDepth || cfg.Prompt != "pylisp> " || cfg.Source != "" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	project := t.TempDir()

	userDir := filepath.Join(home, runtime.UserConfigDir)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		t.Fatal(err)
	}
	userPath := filepath.Join(userDir, runtime.UserConfigFile)
	if err := os.WriteFile(userPath, []byte(`{"prompt": "user> "}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := runtime.LoadConfig(project)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prompt != "user> " || cfg.Source != userPath {
		t.Errorf("expected user config, got %+v", cfg)
	}
	if cfg.MaxDepth != evaluator.DefaultMaxDepth {
		t.Errorf("expected default maxDepth to survive, got %d", cfg.MaxDepth)
	}

	projectPath := filepath.Join(project, runtime.ProjectConfigFile)
	if err := os.WriteFile(projectPath, []byte(`{"maxDepth": 500, "pretty": true}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = runtime.LoadConfig(project)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxDepth != 500 || !cfg.Pretty || cfg.Prompt != "pylisp> " {
		t.Errorf("expected project config, got %+v", cfg)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, runtime.ProjectConfigFile), []byte(`{"maxDepth": `), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := runtime.LoadConfig(project)
	var cfgErr *runtime.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if diagnostics.CodeOf(err) != diagnostics.EConfig {
		t.Errorf("expected E_CONFIG, got %s", diagnostics.CodeOf(err))
	}
}
