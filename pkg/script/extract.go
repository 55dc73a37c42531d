// Package script recovers runnable script bodies from possibly-malformed
// stored step configuration and prepares them for evaluation inside the page
// context. Stored payloads come in several historical shapes: well-formed
// JSON, double-escaped legacy JSON, bare expressions, or an old "value"
// field holding DOM-querying code. The pipeline resolves the shape once,
// normalizes the body, and builds a uniform invocation that binds the
// current record and the execution context.
package script

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Shape tags which extraction path produced the script body.
type Shape string

const (
	ShapeEmpty         Shape = "empty"
	ShapeWellFormed    Shape = "well_formed"
	ShapeLegacyEscaped Shape = "legacy_escaped"
	ShapeRawExpression Shape = "raw_expression"
)

// Extracted is a recovered script body plus the context key its result
// should be stored under, if any.
type Extracted struct {
	Body    string
	StoreAs string
	Shape   Shape
}

func (e Extracted) Empty() bool {
	return strings.TrimSpace(e.Body) == ""
}

var (
	scriptFieldRe  = regexp.MustCompile(`"script"\s*:\s*"((?:\\.|[^"\\])*)"`)
	storeAsFieldRe = regexp.MustCompile(`"storeAs"\s*:\s*"((?:\\.|[^"\\])*)"`)
)

// Extract recovers a script body from a parsed config and the raw stored
// payload, trying progressively more forgiving strategies until one yields a
// non-empty body.
func Extract(config map[string]any, raw string) Extracted {
	// 1. Direct field from the parsed config.
	if body := stringField(config, "script"); body != "" {
		return Extracted{Body: body, StoreAs: storeAsOf(config, raw), Shape: ShapeWellFormed}
	}

	raw = strings.TrimSpace(raw)

	// 2. The stored payload may be a JSON string containing JSON (legacy
	// double encoding). Unwrap and re-extract.
	if inner, ok := unwrapJSONString(raw); ok {
		var nested map[string]any
		if err := json.Unmarshal([]byte(inner), &nested); err == nil {
			if body := stringField(nested, "script"); body != "" {
				return Extracted{Body: body, StoreAs: storeAsOf(nested, inner), Shape: ShapeLegacyEscaped}
			}
		}

		raw = inner
	}

	// 3. Pattern-based recovery of the "script" segment when JSON parsing
	// is impossible (truncated or hand-edited payloads).
	if groups := scriptFieldRe.FindStringSubmatch(raw); groups != nil {
		if body := unescapeJSON(groups[1]); strings.TrimSpace(body) != "" {
			return Extracted{Body: body, StoreAs: storeAsOf(nil, raw), Shape: ShapeLegacyEscaped}
		}
	}

	// 4. The payload itself may be a function or IIFE.
	if looksLikeFunction(raw) {
		return Extracted{Body: raw, StoreAs: storeAsOf(config, raw), Shape: ShapeRawExpression}
	}

	// 5. Oldest format: a "value" field holding DOM-querying code.
	if value := stringField(config, "value"); value != "" && looksLikeDOMScript(value) {
		return Extracted{Body: value, StoreAs: storeAsOf(config, raw), Shape: ShapeRawExpression}
	}

	return Extracted{Shape: ShapeEmpty}
}

func stringField(config map[string]any, key string) string {
	if config == nil {
		return ""
	}

	if v, ok := config[key].(string); ok {
		return strings.TrimSpace(v)
	}

	return ""
}

func storeAsOf(config map[string]any, raw string) string {
	if name := stringField(config, "storeAs"); name != "" {
		return name
	}

	if name := stringField(config, "store_as"); name != "" {
		return name
	}

	if groups := storeAsFieldRe.FindStringSubmatch(raw); groups != nil {
		return unescapeJSON(groups[1])
	}

	return ""
}

// unwrapJSONString detects a payload that is itself a JSON-encoded string.
func unwrapJSONString(raw string) (string, bool) {
	if len(raw) < 2 || raw[0] != '"' {
		return "", false
	}

	var inner string
	if err := json.Unmarshal([]byte(raw), &inner); err != nil {
		return "", false
	}

	return inner, true
}

// unescapeJSON reverses JSON string escaping on a segment captured without
// its surrounding quotes.
func unescapeJSON(segment string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+segment+`"`), &out); err != nil {
		return segment
	}

	return out
}

var functionShapeRe = regexp.MustCompile(
	`^\(?\s*(async\s+)?function\b|^\(?\s*(\([^)]*\)|[A-Za-z_$][\w$]*)\s*=>`)

func looksLikeFunction(raw string) bool {
	return functionShapeRe.MatchString(strings.TrimSpace(raw))
}

var domIdioms = []string{
	"document.querySelector",
	"document.querySelectorAll",
	"document.getElementById",
	"document.getElementsByName",
	"document.evaluate",
	"window.",
}

func looksLikeDOMScript(value string) bool {
	for _, idiom := range domIdioms {
		if strings.Contains(value, idiom) {
			return true
		}
	}

	return false
}
