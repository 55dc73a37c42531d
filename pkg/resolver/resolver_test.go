package resolver

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfigueira/formpilot/pkg/browser"
	"github.com/mfigueira/formpilot/pkg/browser/memdriver"
	"github.com/mfigueira/formpilot/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testDriver(t *testing.T) *memdriver.Driver {
	t.Helper()

	d := memdriver.New()
	d.AddPage(&memdriver.Page{
		URL: "https://portal.example.edu/records",
		Elements: []*memdriver.Element{
			{Tag: "form", ID: "entry"},
			{Tag: "input", ID: "field", Name: "student", ParentID: "entry",
				Attrs: map[string]string{"data-test": "student-name"}},
			{Tag: "input", Name: "year", ParentID: "entry"},
			{Tag: "button", ID: "submit", Text: "Save record", ParentID: "entry"},
		},
	})

	ctx := context.Background()
	require.NoError(t, d.Launch(ctx))
	require.NoError(t, d.Navigate(ctx, "https://portal.example.edu/records", browser.WaitLoad))

	return d
}

func TestResolve_PrimaryWins(t *testing.T) {
	d := testDriver(t)
	r := New(d, testLogger()).WithRetry(1, 0)

	loc, err := r.Resolve(context.Background(), &models.SelectorSpec{
		Primary: "#field",
		ID:      "submit",
	})

	require.NoError(t, err)
	assert.Equal(t, browser.CSS("#field"), loc)
}

func TestResolve_FallsThroughStrategies(t *testing.T) {
	d := testDriver(t)
	r := New(d, testLogger()).WithRetry(1, 0)

	// Primary and ID miss; name matches.
	loc, err := r.Resolve(context.Background(), &models.SelectorSpec{
		Primary: "#gone",
		ID:      "also-gone",
		Name:    "student",
	})

	require.NoError(t, err)
	assert.Equal(t, browser.CSS(`[name="student"]`), loc)
}

func TestResolve_AttributesAndText(t *testing.T) {
	d := testDriver(t)
	r := New(d, testLogger()).WithRetry(1, 0)

	loc, err := r.Resolve(context.Background(), &models.SelectorSpec{
		Attributes: map[string]string{"data-test": "student-name"},
	})
	require.NoError(t, err)
	assert.Equal(t, browser.CSS(`[data-test="student-name"]`), loc)

	loc, err = r.Resolve(context.Background(), &models.SelectorSpec{
		Text: "Save record",
	})
	require.NoError(t, err)
	assert.Equal(t, browser.ByXPath, loc.By)
}

func TestResolve_Position(t *testing.T) {
	d := testDriver(t)
	r := New(d, testLogger()).WithRetry(1, 0)

	loc, err := r.Resolve(context.Background(), &models.SelectorSpec{
		Position: &models.PositionSpec{Parent: "#entry", Index: 2},
	})

	require.NoError(t, err)
	assert.Equal(t, browser.CSS("#entry > :nth-child(3)"), loc)
}

func TestResolve_XPathPrimary(t *testing.T) {
	d := testDriver(t)
	r := New(d, testLogger()).WithRetry(1, 0)

	loc, err := r.Resolve(context.Background(), &models.SelectorSpec{
		Primary: `//*[normalize-space(text())="Save record"]`,
	})

	require.NoError(t, err)
	assert.Equal(t, browser.ByXPath, loc.By)
}

func TestResolve_NotFoundEmbedsSpec(t *testing.T) {
	d := testDriver(t)
	r := New(d, testLogger()).WithRetry(2, time.Millisecond)

	_, err := r.Resolve(context.Background(), &models.SelectorSpec{ID: "nothing-here"})
	require.Error(t, err)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, err.Error(), "nothing-here")
}

func TestResolve_EmptySpec(t *testing.T) {
	d := testDriver(t)
	r := New(d, testLogger())

	_, err := r.Resolve(context.Background(), &models.SelectorSpec{})

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

// flakyDriver misses until a set number of Count calls have happened, then
// reports a match. Only Count matters to the resolver.
type flakyDriver struct {
	browser.Driver

	calls     int
	readyFrom int
	failing   bool
}

func (f *flakyDriver) Count(_ context.Context, _ browser.Locator) (int, error) {
	f.calls++

	if f.failing {
		return 0, errors.New("probe exploded")
	}

	if f.calls >= f.readyFrom {
		return 1, nil
	}

	return 0, nil
}

func TestResolve_RetriesUntilElementAppears(t *testing.T) {
	d := &flakyDriver{readyFrom: 3}
	r := New(d, testLogger()).WithRetry(5, time.Millisecond)

	_, err := r.Resolve(context.Background(), &models.SelectorSpec{ID: "late"})

	require.NoError(t, err)
	assert.Equal(t, 3, d.calls)
}

func TestResolve_WindowCutsRetrySchedule(t *testing.T) {
	d := &flakyDriver{readyFrom: 1000}
	r := New(d, testLogger()).
		WithRetry(10, 100*time.Millisecond).
		WithWindow(30 * time.Millisecond)

	start := time.Now()
	_, err := r.Resolve(context.Background(), &models.SelectorSpec{ID: "never"})
	elapsed := time.Since(start)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Less(t, elapsed, 500*time.Millisecond,
		"window must abandon the schedule, not burn all ten attempts")
	assert.Less(t, d.calls, 10)
}

func TestResolve_CancellationOutranksWindow(t *testing.T) {
	d := &flakyDriver{readyFrom: 1000}
	r := New(d, testLogger()).
		WithRetry(10, 50*time.Millisecond).
		WithWindow(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, &models.SelectorSpec{ID: "never"})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_ProbeErrorsAreMisses(t *testing.T) {
	d := &flakyDriver{failing: true}
	r := New(d, testLogger()).WithRetry(2, time.Millisecond)

	_, err := r.Resolve(context.Background(), &models.SelectorSpec{ID: "x"})

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 2, d.calls)
}

func TestIDSelector_NonIdentifierID(t *testing.T) {
	assert.Equal(t, "#field", idSelector("field"))
	assert.Equal(t, `[id="form:field.1"]`, idSelector("form:field.1"))
}
