// Package jsexpr evaluates buildnumber expressions with the goja JavaScript
// engine.
//
// Every evaluation runs in a fresh runtime with only the supplied bindings
// defined as globals. The result is the completion value of the script, so
// both plain expressions ("commitsCount > 0 ? shortRevision : 'none'") and
// short statement sequences are accepted.
package jsexpr

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// ErrTimeout indicates the expression ran longer than the configured limit.
var ErrTimeout = errors.New("expression evaluation timed out")

// Evaluator evaluates JavaScript expressions. The zero value has no timeout.
type Evaluator struct {
	// Timeout bounds a single evaluation. Zero disables the limit.
	Timeout time.Duration
}

// New creates an Evaluator with the given timeout.
func New(timeout time.Duration) *Evaluator {
	return &Evaluator{Timeout: timeout}
}

// Evaluate runs expression with bindings as global variables.
//
// It returns the resulting goja.Value, whose String method gives the
// JavaScript string form, or nil when the script completes with undefined or
// null.
func (e *Evaluator) Evaluate(expression string, bindings map[string]any) (any, error) {
	vm := goja.New()

	for name, value := range bindings {
		if err := vm.Set(name, value); err != nil {
			return nil, fmt.Errorf("bind %q: %w", name, err)
		}
	}

	if e.Timeout > 0 {
		timer := time.AfterFunc(e.Timeout, func() {
			vm.Interrupt(ErrTimeout)
		})
		defer timer.Stop()
	}

	v, err := vm.RunString(expression)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, fmt.Errorf("after %s: %w", e.Timeout, ErrTimeout)
		}
		return nil, fmt.Errorf("run expression: %w", err)
	}

	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	return v, nil
}
