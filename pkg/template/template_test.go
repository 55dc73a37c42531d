package template

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mfigueira/formpilot/pkg/models"
)

func testContext() (*models.ExecutionContext, models.Record) {
	execCtx := models.NewExecutionContext("run-1", "wf-1")
	execCtx.Store("studentId", "S-42")
	execCtx.Store("name", "FromContext")

	record := models.Record{ID: "r1", Data: map[string]any{
		"name": "FromRecord",
		"year": float64(2026),
	}}

	return execCtx, record
}

func TestSubstitute_ContextWinsOverRecord(t *testing.T) {
	execCtx, record := testContext()

	got := Substitute("hello {{name}}", execCtx, record)
	assert.Equal(t, "hello FromContext", got)
}

func TestSubstitute_FallsBackToRecord(t *testing.T) {
	execCtx, record := testContext()

	got := Substitute("year: {{year}}", execCtx, record)
	assert.Equal(t, "year: 2026", got)
}

func TestSubstitute_UnresolvedBecomesEmpty(t *testing.T) {
	execCtx, record := testContext()

	got := Substitute("[{{missing}}]", execCtx, record)
	assert.Equal(t, "[]", got)
}

func TestSubstitute_WhitespaceAndMultiple(t *testing.T) {
	execCtx, record := testContext()

	got := Substitute("{{ studentId }}/{{year}}/{{ nope }}", execCtx, record)
	assert.Equal(t, "S-42/2026/", got)
}

func TestSubstitute_NoPlaceholders(t *testing.T) {
	execCtx, record := testContext()

	assert.Equal(t, "plain", Substitute("plain", execCtx, record))
}

func TestSubstituteMap_Recursive(t *testing.T) {
	execCtx, record := testContext()

	config := map[string]any{
		"value":    "{{name}}",
		"duration": float64(100),
		"nested":   map[string]any{"path": "shots/{{studentId}}.png"},
		"list":     []any{"{{year}}", float64(1)},
	}

	got := SubstituteMap(config, execCtx, record)

	assert.Equal(t, "FromContext", got["value"])
	assert.InDelta(t, 100.0, got["duration"], 0)
	assert.Equal(t, "shots/S-42.png", got["nested"].(map[string]any)["path"])
	assert.Equal(t, "2026", got["list"].([]any)[0])

	// The original map is left untouched.
	assert.Equal(t, "{{name}}", config["value"])
}

func TestSubstituteSpec(t *testing.T) {
	execCtx, record := testContext()

	spec := &models.SelectorSpec{
		Primary: "#row-{{studentId}}",
		Text:    "{{name}}",
		Attributes: map[string]string{
			"data-student": "{{studentId}}",
		},
		Position: &models.PositionSpec{Parent: "#table-{{year}}", Index: 1},
	}

	got := SubstituteSpec(spec, execCtx, record)

	assert.Equal(t, "#row-S-42", got.Primary)
	assert.Equal(t, "FromContext", got.Text)
	assert.Equal(t, "S-42", got.Attributes["data-student"])
	assert.Equal(t, "#table-2026", got.Position.Parent)

	// Source spec untouched.
	assert.Equal(t, "#row-{{studentId}}", spec.Primary)
}
