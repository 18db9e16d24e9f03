package buildnumber

import (
	"fmt"
	"strings"
)

// Binding names exposed to a custom buildnumber expression.
const (
	BindingTag           = "tag"
	BindingBranch        = "branch"
	BindingRevision      = "revision"
	BindingShortRevision = "shortRevision"
	BindingCommitsCount  = "commitsCount"
)

// Evaluator evaluates an expression against named bindings.
//
// A nil result with a nil error means the expression produced no value.
type Evaluator interface {
	Evaluate(expression string, bindings map[string]any) (any, error)
}

// Bindings returns the five values a custom expression can reference.
// commitsCount is numeric, the rest are strings.
func Bindings(r Record) map[string]any {
	return map[string]any{
		BindingTag:           r.Tag,
		BindingBranch:        r.Branch,
		BindingRevision:      r.Revision,
		BindingShortRevision: r.ShortRevision,
		BindingCommitsCount:  r.CommitsCount,
	}
}

// Format returns the composite buildnumber for r. A blank expression selects
// Record.DefaultBuildnumber; otherwise the expression is evaluated by ev and
// the string form of its result is returned.
func Format(r Record, expression string, ev Evaluator) (string, error) {
	if strings.TrimSpace(expression) == "" {
		return r.DefaultBuildnumber(), nil
	}
	if ev == nil {
		return "", fmt.Errorf("%w: %w", ErrFormatting, ErrNoEvaluator)
	}

	res, err := ev.Evaluate(expression, Bindings(r))
	if err != nil {
		return "", fmt.Errorf("%w: evaluate %q: %w", ErrFormatting, expression, err)
	}
	if res == nil {
		return "", fmt.Errorf("%w: %q: %w", ErrFormatting, expression, ErrNoValue)
	}

	return stringify(res), nil
}

func stringify(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}
