// Package template substitutes {{name}} placeholders in step configuration
// at execution time. Values are resolved from the execution context first,
// then the current record; unresolved placeholders become the empty string
// and never fail the step.
package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mfigueira/formpilot/pkg/models"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}`)

// Substitute replaces every {{name}} in input.
func Substitute(input string, execCtx *models.ExecutionContext, record models.Record) string {
	if !strings.Contains(input, "{{") {
		return input
	}

	return placeholderRe.ReplaceAllStringFunc(input, func(match string) string {
		key := strings.TrimSpace(strings.Trim(match, "{}"))

		if value, ok := execCtx.Lookup(key); ok {
			return stringify(value)
		}

		if value, ok := record.Lookup(key); ok {
			return stringify(value)
		}

		return ""
	})
}

// SubstituteMap returns a copy of config with every string value (including
// strings nested in maps and slices) substituted. Non-string values pass
// through untouched.
func SubstituteMap(config map[string]any, execCtx *models.ExecutionContext, record models.Record) map[string]any {
	out := make(map[string]any, len(config))

	for key, value := range config {
		out[key] = substituteValue(value, execCtx, record)
	}

	return out
}

func substituteValue(value any, execCtx *models.ExecutionContext, record models.Record) any {
	switch v := value.(type) {
	case string:
		return Substitute(v, execCtx, record)
	case map[string]any:
		return SubstituteMap(v, execCtx, record)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = substituteValue(item, execCtx, record)
		}

		return out
	default:
		return value
	}
}

// SubstituteSpec applies substitution to the free-text selector fields so
// per-record selectors ("row for {{student_id}}") work.
func SubstituteSpec(spec *models.SelectorSpec, execCtx *models.ExecutionContext, record models.Record) *models.SelectorSpec {
	if spec == nil {
		return nil
	}

	out := *spec
	out.Primary = Substitute(spec.Primary, execCtx, record)
	out.XPath = Substitute(spec.XPath, execCtx, record)
	out.CSS = Substitute(spec.CSS, execCtx, record)
	out.Text = Substitute(spec.Text, execCtx, record)

	if len(spec.Attributes) > 0 {
		out.Attributes = make(map[string]string, len(spec.Attributes))
		for k, v := range spec.Attributes {
			out.Attributes[k] = Substitute(v, execCtx, record)
		}
	}

	if spec.Position != nil {
		position := *spec.Position
		position.Parent = Substitute(position.Parent, execCtx, record)
		out.Position = &position
	}

	return &out
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; render integers without the
		// trailing ".0" a plain %v would produce for large values.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}

		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
