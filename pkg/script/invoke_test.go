package script

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, body string, record, ctxValues map[string]any) any {
	t.Helper()

	inv, err := BuildInvocation(body, record, ctxValues)
	require.NoError(t, err)

	vm := goja.New()
	value, err := vm.RunString(inv)
	require.NoError(t, err)

	if goja.IsNull(value) || goja.IsUndefined(value) {
		return nil
	}

	return value.Export()
}

func TestBuildInvocation_StatementBody(t *testing.T) {
	got := run(t, "return 1;", nil, nil)

	assert.EqualValues(t, 1, got)
}

func TestBuildInvocation_BareExpression(t *testing.T) {
	record := map[string]any{"name": "Ada"}

	got := run(t, "record.name", record, nil)

	assert.Equal(t, "Ada", got)
}

func TestBuildInvocation_ExpressionWithTrailingSemicolon(t *testing.T) {
	got := run(t, "executionContext.total;", nil, map[string]any{"total": 7.0})

	assert.EqualValues(t, 7, got)
}

func TestBuildInvocation_NonInvokedFunctionGetsCalled(t *testing.T) {
	record := map[string]any{"year": 2026.0}

	got := run(t, "(record, executionContext) => record.year", record, nil)

	assert.EqualValues(t, 2026, got)
}

func TestBuildInvocation_InvokedIIFE(t *testing.T) {
	got := run(t, "(function() { return 7; })()", nil, nil)

	assert.EqualValues(t, 7, got)
}

func TestBuildInvocation_RewrittenIIFESeesBindings(t *testing.T) {
	body := RewriteIIFE("(function() { return record.name; })();")
	record := map[string]any{"name": "Grace"}

	got := run(t, body, record, nil)

	assert.Equal(t, "Grace", got)
}

func TestBuildInvocation_MultiStatementBody(t *testing.T) {
	body := "var parts = [record.first, record.last];\nreturn parts.join(' ');"
	record := map[string]any{"first": "Ada", "last": "Lovelace"}

	got := run(t, body, record, nil)

	assert.Equal(t, "Ada Lovelace", got)
}

func TestBuildInvocation_UndefinedBecomesNull(t *testing.T) {
	got := run(t, "var a = 1;", nil, nil)

	assert.Nil(t, got)
}

func TestBuildInvocation_NilMapsBecomeEmptyObjects(t *testing.T) {
	got := run(t, "return Object.keys(record).length + Object.keys(executionContext).length;", nil, nil)

	assert.EqualValues(t, 0, got)
}

func TestNormalizeResult_Passthrough(t *testing.T) {
	assert.Nil(t, NormalizeResult(nil))
	assert.Equal(t, "x", NormalizeResult("x"))
	assert.Equal(t, map[string]any{"a": 1.0}, NormalizeResult(map[string]any{"a": 1.0}))
}

func TestNormalizeResult_ReducesUnmarshalable(t *testing.T) {
	got := NormalizeResult(map[string]any{
		"ok":  "value",
		"bad": make(chan int),
	})

	out, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "value", out["ok"])
	assert.IsType(t, "", out["bad"])
}

func TestNormalizeResult_FallsBackToString(t *testing.T) {
	got := NormalizeResult(func() {})

	assert.IsType(t, "", got)
}
