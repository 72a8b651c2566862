package analysis

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ErrFilterNotBool is returned when an ignore expression does not evaluate to a boolean.
var ErrFilterNotBool = errors.New("ignore expression did not return a boolean")

// Filter drops diagnostics by rule code or by boolean expressions evaluated per diagnostic.
//
// Expressions see `message`, `code`, `severity` ("error", "warning", ...) and `line` (1-based), e.g.
//
//	code == "incomplete-statement" && line < 10
//	message contains "undefined parameter"
type Filter struct {
	disabled []string
	programs []*vm.Program
}

// NewFilter compiles the ignore expressions. An empty expression is skipped.
func NewFilter(disabled, ignore []string) (*Filter, error) {
	f := &Filter{disabled: disabled}

	for _, src := range ignore {
		if strings.TrimSpace(src) == "" {
			continue
		}

		program, err := expr.Compile(src, expr.Env(filterEnv(Diagnostic{})), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile ignore expression %q: %w", src, err)
		}

		f.programs = append(f.programs, program)
	}

	return f, nil
}

func filterEnv(d Diagnostic) map[string]any {
	return map[string]any{
		"message":  d.Message,
		"code":     d.Code,
		"severity": d.Severity.String(),
		"line":     d.Span.Start.Line,
	}
}

// Apply returns the diagnostics that are neither disabled nor matched by an ignore expression.
// A nil Filter keeps everything.
func (f *Filter) Apply(diags []Diagnostic) ([]Diagnostic, error) {
	if f == nil {
		return diags, nil
	}

	out := make([]Diagnostic, 0, len(diags))

	for _, d := range diags {
		if slices.Contains(f.disabled, d.Code) {
			continue
		}

		drop, err := f.ignored(d)
		if err != nil {
			return nil, err
		}

		if !drop {
			out = append(out, d)
		}
	}

	return out, nil
}

func (f *Filter) ignored(d Diagnostic) (bool, error) {
	env := filterEnv(d)

	for _, program := range f.programs {
		output, err := expr.Run(program, env)
		if err != nil {
			return false, fmt.Errorf("evaluate ignore expression: %w", err)
		}

		matched, ok := output.(bool)
		if !ok {
			return false, fmt.Errorf("%w: got %T", ErrFilterNotBool, output)
		}

		if matched {
			return true, nil
		}
	}

	return false, nil
}
