package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mfigueira/formpilot/pkg/models"
)

func TestOptimize_DropsVolatileID(t *testing.T) {
	tests := []struct {
		id   string
		kept bool
	}{
		{"submit-button", true},
		{"studentName", true},
		{"12345", false},
		{"ext-gen-1042", false},
		{"react-select-3-input", false},
		{"radix-:r1:", false},
		{"widget-48213", false},
		{"a1b2c3d4-e5f6-4a3b", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := Optimize(&models.SelectorSpec{ID: tt.id, Name: "keep"})

			if tt.kept {
				assert.Equal(t, tt.id, got.ID)
			} else {
				assert.Empty(t, got.ID)
			}
		})
	}
}

func TestOptimize_FiltersAttributes(t *testing.T) {
	got := Optimize(&models.SelectorSpec{
		Attributes: map[string]string{
			"data-test":   "student-name",
			"aria-label":  "Student name",
			"placeholder": "Name",
			"style":       "color: red",
			"class":       "css-1x2y3z",
		},
	})

	assert.Equal(t, map[string]string{
		"data-test":   "student-name",
		"aria-label":  "Student name",
		"placeholder": "Name",
	}, got.Attributes)
}

func TestOptimize_TextLength(t *testing.T) {
	short := Optimize(&models.SelectorSpec{Text: "Save record"})
	assert.Equal(t, "Save record", short.Text)

	long := Optimize(&models.SelectorSpec{
		Text: "This is a very long paragraph of page copy that will certainly change between releases",
		Name: "keep",
	})
	assert.Empty(t, long.Text)
}

func TestOptimize_DropsSnapshotLocators(t *testing.T) {
	got := Optimize(&models.SelectorSpec{
		Name:  "student",
		XPath: "/html/body/div[3]/form/input[1]",
		CSS:   "div.page > form > input:first-child",
	})

	assert.Empty(t, got.XPath)
	assert.Empty(t, got.CSS)
	assert.Equal(t, "student", got.Name)
}

func TestOptimize_KeepsPrimaryWhenNothingSurvives(t *testing.T) {
	got := Optimize(&models.SelectorSpec{
		Primary: "#app > div:nth-of-type(2) input",
		ID:      "98765",
	})

	assert.Equal(t, "#app > div:nth-of-type(2) input", got.Primary)
}

func TestOptimize_DropsPrimaryWhenDurableFieldsExist(t *testing.T) {
	got := Optimize(&models.SelectorSpec{
		Primary: "#98765",
		Name:    "student",
	})

	assert.Empty(t, got.Primary)
	assert.Equal(t, "student", got.Name)
}

func TestOptimize_Idempotent(t *testing.T) {
	spec := &models.SelectorSpec{
		ID:         "ext-gen-12",
		Name:       "student",
		Attributes: map[string]string{"data-test": "x", "style": "y"},
		Text:       "Save",
		XPath:      "/html/body/input",
		Position:   &models.PositionSpec{Parent: "#entry", Index: 1},
	}

	once := Optimize(spec)
	twice := Optimize(once)

	assert.Equal(t, once, twice)
}

func TestOptimize_Nil(t *testing.T) {
	assert.Nil(t, Optimize(nil))
}
