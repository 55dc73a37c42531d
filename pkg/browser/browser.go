// Package browser defines the browser control port. The execution engine
// consumes this as an opaque capability; how automation is physically
// performed is an adapter concern (chromedriver for a real Chrome,
// memdriver for tests and dry runs).
package browser

import (
	"context"
	"errors"
	"time"
)

// By names the locator language an expression is written in.
type By string

const (
	ByCSS   By = "css"
	ByXPath By = "xpath"
)

// Locator points at page elements with a single expression.
type Locator struct {
	By   By
	Expr string
}

func CSS(expr string) Locator {
	return Locator{By: ByCSS, Expr: expr}
}

func XPath(expr string) Locator {
	return Locator{By: ByXPath, Expr: expr}
}

// WaitUntil names the load condition a navigation waits for.
type WaitUntil string

const (
	WaitLoad             WaitUntil = "load"
	WaitDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitNetworkIdle      WaitUntil = "networkidle"
)

// Options configures a browser session. The session is opened once per run
// and shared across all records to preserve login state.
type Options struct {
	Headless    bool
	ChromePath  string
	UserDataDir string
	CDPURL      string // attach to a remote Chrome instead of launching one
	WindowW     int
	WindowH     int
	CallTimeout time.Duration // per browser call; zero means the adapter default
}

// ErrNotLaunched is returned by drivers when an operation is attempted
// before Launch or after Close.
var ErrNotLaunched = errors.New("browser session not launched")

// Driver is the browser control port.
type Driver interface {
	Launch(ctx context.Context) error

	Navigate(ctx context.Context, url string, wait WaitUntil) error
	CurrentURL(ctx context.Context) (string, error)

	// Count reports how many elements match the locator. Element-resolution
	// strategies are built on this single probe.
	Count(ctx context.Context, loc Locator) (int, error)

	Click(ctx context.Context, loc Locator) error
	// Type clears any existing content before writing text.
	Type(ctx context.Context, loc Locator, text string) error
	SelectOption(ctx context.Context, loc Locator, value string) error

	// Evaluate runs a JavaScript expression in the page context and returns
	// its JSON-converted result.
	Evaluate(ctx context.Context, expr string) (any, error)

	// Screenshot writes a capture to path, creating parent directories.
	Screenshot(ctx context.Context, path string, fullPage bool) error

	Close(ctx context.Context) error
}
