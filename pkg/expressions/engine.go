// Package expressions provides sandboxed boolean expression evaluation for
// workflow guards and condition states. Expressions are compiled with
// expr-lang over a fixed grammar and evaluated against the execution context
// map; there is no access to anything outside the provided environment.
package expressions

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/prodflow/prodflow/pkg/models"
)

// Engine compiles and evaluates expressions against a context map. Compiled
// programs are cached and reused; safe for concurrent use.
type Engine struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

func NewEngine() *Engine {
	return &Engine{
		cache: make(map[string]*vm.Program),
	}
}

// Evaluate compiles (or retrieves from cache) the expression and runs it with
// the context keys bound as free variables. Undefined variables are allowed
// at compile time and resolve to nil at run time.
func (e *Engine) Evaluate(expression string, ctx models.Context) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("empty expression")
	}

	program, err := e.getOrCompile(expression)
	if err != nil {
		return nil, err
	}

	env := map[string]any(ctx)
	if env == nil {
		env = map[string]any{}
	}

	out, err := vm.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("expression %q evaluation failed: %w", expression, err)
	}

	return out, nil
}

// EvaluateBool evaluates the expression and requires a boolean result.
func (e *Engine) EvaluateBool(expression string, ctx models.Context) (bool, error) {
	out, err := e.Evaluate(expression, ctx)
	if err != nil {
		return false, err
	}

	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, expected bool", expression, out)
	}

	return result, nil
}

func (e *Engine) getOrCompile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if program, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if program, ok := e.cache[expression]; ok {
		return program, nil
	}

	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("expression %q compile failed: %w", expression, err)
	}

	e.cache[expression] = program

	return program, nil
}
