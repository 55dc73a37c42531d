// Package resolver turns a declarative SelectorSpec into a concrete locator
// by probing the live page with each strategy in a fixed durability order.
// Probe errors count as misses: a strategy that cannot be evaluated on the
// current page must not abort the chain.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mfigueira/formpilot/pkg/browser"
	"github.com/mfigueira/formpilot/pkg/models"
)

const (
	DefaultAttempts = 3
	DefaultDelay    = 500 * time.Millisecond
)

// NotFoundError reports that no strategy matched. It embeds the full selector
// description so the failure is debuggable without the original page.
type NotFoundError struct {
	Spec *models.SelectorSpec
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no element matched selector %s", e.Spec.String())
}

// Resolver probes selector strategies against a browser session.
type Resolver struct {
	driver   browser.Driver
	logger   *slog.Logger
	attempts int
	delay    time.Duration
	window   time.Duration
}

func New(driver browser.Driver, logger *slog.Logger) *Resolver {
	return &Resolver{
		driver:   driver,
		logger:   logger,
		attempts: DefaultAttempts,
		delay:    DefaultDelay,
	}
}

// WithRetry overrides the probe schedule. Attempts below one are clamped.
func (r *Resolver) WithRetry(attempts int, delay time.Duration) *Resolver {
	if attempts < 1 {
		attempts = 1
	}

	r.attempts = attempts
	r.delay = delay

	return r
}

// WithWindow bounds a whole Resolve pass: once the window elapses the
// remaining retry schedule is abandoned and the selector reports not found.
// Zero leaves the pass bounded only by the schedule and the caller's context.
func (r *Resolver) WithWindow(window time.Duration) *Resolver {
	r.window = window

	return r
}

type strategy struct {
	name    string
	locator browser.Locator
}

// Resolve tries every available strategy in order, re-running the whole
// chain after a delay to absorb late-rendering pages. A locator matching one
// or more elements wins; driver errors are treated as no match.
func (r *Resolver) Resolve(ctx context.Context, spec *models.SelectorSpec) (browser.Locator, error) {
	if spec.IsEmpty() {
		return browser.Locator{}, &NotFoundError{Spec: spec}
	}

	strategies := r.strategies(spec)

	probeCtx := ctx

	if r.window > 0 {
		var cancel context.CancelFunc

		probeCtx, cancel = context.WithTimeout(ctx, r.window)
		defer cancel()
	}

	for attempt := 1; attempt <= r.attempts; attempt++ {
		for _, s := range strategies {
			count, err := r.driver.Count(probeCtx, s.locator)
			if err != nil {
				r.logger.Debug("strategy probe failed",
					"strategy", s.name, "locator", s.locator.Expr, "error", err)

				continue
			}

			if count > 0 {
				if count > 1 {
					r.logger.Debug("strategy matched multiple elements, using first",
						"strategy", s.name, "locator", s.locator.Expr, "count", count)
				}

				return s.locator, nil
			}
		}

		if attempt < r.attempts {
			select {
			case <-probeCtx.Done():
				// An expired window is a miss; only caller cancellation
				// propagates as an error.
				if ctx.Err() != nil {
					return browser.Locator{}, ctx.Err()
				}

				return browser.Locator{}, &NotFoundError{Spec: spec}
			case <-time.After(r.delay):
			}
		}
	}

	return browser.Locator{}, &NotFoundError{Spec: spec}
}

func (r *Resolver) strategies(spec *models.SelectorSpec) []strategy {
	out := make([]strategy, 0, 8)

	if spec.Primary != "" {
		out = append(out, strategy{"primary", asLocator(spec.Primary)})
	}

	if spec.ID != "" {
		out = append(out, strategy{"id", browser.CSS(idSelector(spec.ID))})
	}

	if spec.Name != "" {
		out = append(out, strategy{"name", browser.CSS(fmt.Sprintf(`[name=%q]`, spec.Name))})
	}

	if len(spec.Attributes) > 0 {
		out = append(out, strategy{"attributes", browser.CSS(attributeSelector(spec.Attributes))})
	}

	if spec.XPath != "" {
		out = append(out, strategy{"xpath", browser.XPath(spec.XPath)})
	}

	if spec.CSS != "" {
		out = append(out, strategy{"css", browser.CSS(spec.CSS)})
	}

	if spec.Text != "" {
		out = append(out, strategy{"text", browser.XPath(textXPath(spec.Text))})
	}

	if spec.Position != nil && spec.Position.Parent != "" {
		expr := fmt.Sprintf("%s > :nth-child(%d)", spec.Position.Parent, spec.Position.Index+1)
		out = append(out, strategy{"position", browser.CSS(expr)})
	}

	return out
}

// asLocator classifies a free-form primary selector. Expressions starting
// with a slash or a parenthesized axis are XPath; everything else is CSS.
func asLocator(expr string) browser.Locator {
	trimmed := strings.TrimSpace(expr)

	if strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "(/") {
		return browser.XPath(trimmed)
	}

	return browser.CSS(trimmed)
}

var cssIdentRe = regexp.MustCompile(`^[A-Za-z_][\w-]*$`)

// idSelector prefers the #id shorthand but falls back to the attribute form
// for ids holding characters CSS identifiers cannot carry (dots, colons).
func idSelector(id string) string {
	if cssIdentRe.MatchString(id) {
		return "#" + id
	}

	return fmt.Sprintf(`[id=%q]`, id)
}

func attributeSelector(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, `[%s=%q]`, k, attrs[k])
	}

	return b.String()
}

func textXPath(text string) string {
	return fmt.Sprintf(`//*[normalize-space(text())=%s]`, xpathLiteral(text))
}

// xpathLiteral quotes a string for embedding in an XPath expression. Text
// holding both quote kinds needs the concat form.
func xpathLiteral(s string) string {
	switch {
	case !strings.Contains(s, `"`):
		return `"` + s + `"`
	case !strings.Contains(s, "'"):
		return "'" + s + "'"
	default:
		parts := strings.Split(s, `"`)
		for i, p := range parts {
			parts[i] = `"` + p + `"`
		}

		return "concat(" + strings.Join(parts, `,'"',`) + ")"
	}
}
