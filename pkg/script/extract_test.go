package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_WellFormedConfig(t *testing.T) {
	config := map[string]any{
		"script":  "return document.title;",
		"storeAs": "title",
	}

	got := Extract(config, `{"script":"return document.title;","storeAs":"title"}`)

	assert.Equal(t, ShapeWellFormed, got.Shape)
	assert.Equal(t, "return document.title;", got.Body)
	assert.Equal(t, "title", got.StoreAs)
}

func TestExtract_SnakeCaseStoreAs(t *testing.T) {
	config := map[string]any{
		"script":   "return 1;",
		"store_as": "one",
	}

	got := Extract(config, "")

	assert.Equal(t, "one", got.StoreAs)
}

func TestExtract_DoubleEncodedPayload(t *testing.T) {
	// The whole config was stored as a JSON string containing JSON.
	raw := `"{\"script\":\"return 1;\\n\",\"storeAs\":\"x\"}"`

	got := Extract(nil, raw)

	assert.Equal(t, ShapeLegacyEscaped, got.Shape)
	assert.Equal(t, "return 1;", got.Body)
	assert.Equal(t, "x", got.StoreAs)
}

func TestExtract_TruncatedPayloadViaRegex(t *testing.T) {
	// Missing closing brace, so JSON parsing fails outright.
	raw := `{"script":"return document.title;","storeAs":"t"`

	got := Extract(nil, raw)

	assert.Equal(t, ShapeLegacyEscaped, got.Shape)
	assert.Equal(t, "return document.title;", got.Body)
	assert.Equal(t, "t", got.StoreAs)
}

func TestExtract_RegexUnescapesBody(t *testing.T) {
	raw := `{"script":"var a = \"x\";\nreturn a;"`

	got := Extract(nil, raw)

	require.Equal(t, ShapeLegacyEscaped, got.Shape)
	assert.Equal(t, "var a = \"x\";\nreturn a;", got.Body)
}

func TestExtract_RawFunctionPayload(t *testing.T) {
	raw := `(function() { return document.title; })()`

	got := Extract(nil, raw)

	assert.Equal(t, ShapeRawExpression, got.Shape)
	assert.Equal(t, raw, got.Body)
}

func TestExtract_RawArrowPayload(t *testing.T) {
	raw := `() => document.title`

	got := Extract(nil, raw)

	assert.Equal(t, ShapeRawExpression, got.Shape)
}

func TestExtract_LegacyValueField(t *testing.T) {
	config := map[string]any{
		"value": `document.querySelector('#total').textContent`,
	}

	got := Extract(config, `{"value":"document.querySelector('#total').textContent"}`)

	assert.Equal(t, ShapeRawExpression, got.Shape)
	assert.Equal(t, config["value"], got.Body)
}

func TestExtract_ValueFieldWithoutDOMIdiomIgnored(t *testing.T) {
	config := map[string]any{"value": "hello world"}

	got := Extract(config, `{"value":"hello world"}`)

	assert.Equal(t, ShapeEmpty, got.Shape)
	assert.True(t, got.Empty())
}

func TestExtract_EmptyEverything(t *testing.T) {
	got := Extract(map[string]any{}, "")

	assert.Equal(t, ShapeEmpty, got.Shape)
	assert.True(t, got.Empty())
}

func TestNormalize_UnescapesLiteralSequences(t *testing.T) {
	body := `var a = \"x\";\nreturn a;`

	got := Normalize(body)

	assert.Equal(t, "var a = \"x\";\nreturn a;", got)
}

func TestNormalize_LeavesRealNewlinesAlone(t *testing.T) {
	body := "var path = 'C:\\\\temp';\nreturn path;"

	// A real newline is present, so the backslashes are code, not escaping.
	assert.Equal(t, body, Normalize(body))
}

func TestNormalize_CRLF(t *testing.T) {
	assert.Equal(t, "a\nb", Normalize("a\r\nb\r\n"))
}

func TestNormalize_StripsByteOrderMark(t *testing.T) {
	assert.Equal(t, "return 1;", Normalize("\uFEFF"+"return 1;"))

	// Only a leading mark is stripped; one mid-body stays as written.
	assert.Equal(t, "a\uFEFFb", Normalize("a\uFEFFb"))
}

func TestRewriteIIFE_ZeroArgFunction(t *testing.T) {
	got := RewriteIIFE(`(function() { return record.name; })();`)

	assert.Equal(t, `(function(record, executionContext) { return record.name; })(record, executionContext)`, got)
}

func TestRewriteIIFE_ZeroArgArrow(t *testing.T) {
	got := RewriteIIFE(`(() => record.name)()`)

	assert.Equal(t, `((record, executionContext) => record.name)(record, executionContext)`, got)
}

func TestRewriteIIFE_AsyncFunction(t *testing.T) {
	got := RewriteIIFE(`(async function() { return 1; })()`)

	assert.Contains(t, got, "async function(record, executionContext)")
	assert.Contains(t, got, ")(record, executionContext)")
}

func TestRewriteIIFE_ParameterizedLeftAlone(t *testing.T) {
	body := `(function(doc) { return doc.title; })(document)`

	assert.Equal(t, body, RewriteIIFE(body))
}

func TestRewriteIIFE_PlainBodyLeftAlone(t *testing.T) {
	body := `return document.title;`

	assert.Equal(t, body, RewriteIIFE(body))
}
