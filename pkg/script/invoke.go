package script

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// BuildInvocation wraps a normalized script body in a self-invoking function
// that binds record and executionContext, so the same evaluation path serves
// bare expressions, statement blocks, and function-shaped bodies alike. The
// wrapper coerces undefined to null so drivers always get a JSON-expressible
// result.
func BuildInvocation(body string, record map[string]any, ctxValues map[string]any) (string, error) {
	recordJSON, err := json.Marshal(orEmpty(record))
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}

	ctxJSON, err := json.Marshal(orEmpty(ctxValues))
	if err != nil {
		return "", fmt.Errorf("encode execution context: %w", err)
	}

	stmt := classify(strings.TrimSpace(strings.TrimRight(strings.TrimSpace(body), ";")))

	return fmt.Sprintf(`(function(record, executionContext) {
	var __result = (function(record, executionContext) {
%s
	})(record, executionContext);
	return __result === undefined ? null : __result;
})(%s, %s)`, stmt, recordJSON, ctxJSON), nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}

	return m
}

var (
	invokedTailRe = regexp.MustCompile(`\)\s*\([^)]*\)\s*;?\s*$`)
	statementRe   = regexp.MustCompile(`(^|[;{}\n])\s*(return|var|let|const|if|for|while|try|throw)\b|;`)
)

// classify decides how the body slots into the inner function: invoked
// function expressions and bare expressions become return statements,
// non-invoked functions get called with the bindings, and anything already
// containing statements runs verbatim.
func classify(body string) string {
	switch {
	case looksLikeFunction(body) && invokedTailRe.MatchString(body):
		return "\treturn (" + body + ");"
	case looksLikeFunction(body):
		return "\treturn (" + body + ")(record, executionContext);"
	case statementRe.MatchString(body):
		return body
	default:
		return "\treturn (" + body + ");"
	}
}

// NormalizeResult coerces a driver evaluation result into a value that can be
// stored in the execution context and re-serialized. Values that fail to
// marshal are reduced to their representable parts, or a string as the last
// resort.
func NormalizeResult(v any) any {
	if v == nil {
		return nil
	}

	if _, err := json.Marshal(v); err == nil {
		return v
	}

	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[key] = NormalizeResult(value)
		}

		return out
	case []any:
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = NormalizeResult(value)
		}

		return out
	default:
		return fmt.Sprint(v)
	}
}
