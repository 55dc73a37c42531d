// Package chromedriver implements the browser control port on a real Chrome
// via the DevTools protocol. It can launch a local headless instance or
// attach to a remote one over CDP.
package chromedriver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/mfigueira/formpilot/pkg/browser"
)

const defaultCallTimeout = 60 * time.Second

// Driver holds one Chrome session for the lifetime of a run. The session is
// deliberately shared across records so login state survives the whole batch.
type Driver struct {
	opts browser.Options

	mu          sync.Mutex
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

func New(opts browser.Options) *Driver {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}

	return &Driver{opts: opts}
}

func (d *Driver) Launch(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx != nil {
		return fmt.Errorf("browser session already launched")
	}

	baseCtx := context.Background()

	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)

	if d.opts.CDPURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(baseCtx, d.opts.CDPURL)
	} else {
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", d.opts.Headless),
			chromedp.Flag("disable-gpu", d.opts.Headless),
		)

		if d.opts.ChromePath != "" {
			execOpts = append(execOpts, chromedp.ExecPath(d.opts.ChromePath))
		}

		if d.opts.UserDataDir != "" {
			if err := os.MkdirAll(d.opts.UserDataDir, 0o755); err == nil {
				execOpts = append(execOpts, chromedp.UserDataDir(d.opts.UserDataDir))
			}
		}

		if d.opts.WindowW > 0 && d.opts.WindowH > 0 {
			execOpts = append(execOpts, chromedp.WindowSize(d.opts.WindowW, d.opts.WindowH))
		}

		allocCtx, allocCancel = chromedp.NewExecAllocator(baseCtx, execOpts...)
	}

	ctx, cancel := chromedp.NewContext(allocCtx)

	actions := []chromedp.Action{chromedp.Navigate("about:blank")}

	// A remote session cannot be sized with exec flags; override the device
	// metrics instead.
	if d.opts.CDPURL != "" && d.opts.WindowW > 0 && d.opts.WindowH > 0 {
		actions = append(actions,
			emulation.SetDeviceMetricsOverride(int64(d.opts.WindowW), int64(d.opts.WindowH), 1, false))
	}

	if err := chromedp.Run(ctx, actions...); err != nil {
		cancel()
		allocCancel()

		return fmt.Errorf("failed to launch browser: %w", err)
	}

	d.allocCtx = allocCtx
	d.allocCancel = allocCancel
	d.ctx = ctx
	d.cancel = cancel

	return nil
}

// run executes chromedp actions against the session with a per-call timeout,
// honoring cancellation of the caller's context.
func (d *Driver) run(callCtx context.Context, actions ...chromedp.Action) error {
	d.mu.Lock()
	sessionCtx := d.ctx
	d.mu.Unlock()

	if sessionCtx == nil {
		return browser.ErrNotLaunched
	}

	runCtx, cancel := context.WithTimeout(sessionCtx, d.opts.CallTimeout)
	defer cancel()

	if callCtx != nil {
		go func() {
			select {
			case <-callCtx.Done():
				cancel()
			case <-runCtx.Done():
			}
		}()
	}

	return chromedp.Run(runCtx, actions...)
}

func (d *Driver) Navigate(ctx context.Context, url string, wait browser.WaitUntil) error {
	actions := []chromedp.Action{chromedp.Navigate(url)}

	var ready bool

	switch wait {
	case browser.WaitDOMContentLoaded:
		actions = append(actions, chromedp.Poll(`document.readyState !== "loading"`, &ready))
	case browser.WaitNetworkIdle:
		actions = append(actions,
			chromedp.Poll(`document.readyState === "complete"`, &ready),
			chromedp.Sleep(500*time.Millisecond),
		)
	default: // browser.WaitLoad
		actions = append(actions, chromedp.Poll(`document.readyState === "complete"`, &ready))
	}

	if err := d.run(ctx, actions...); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}

	return nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	var url string

	if err := d.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("read current url: %w", err)
	}

	return url, nil
}

func (d *Driver) Count(ctx context.Context, loc browser.Locator) (int, error) {
	var n int

	if err := d.run(ctx, chromedp.Evaluate(countExpr(loc), &n)); err != nil {
		return 0, fmt.Errorf("count %s %q: %w", loc.By, loc.Expr, err)
	}

	return n, nil
}

func (d *Driver) Click(ctx context.Context, loc browser.Locator) error {
	if err := d.run(ctx, chromedp.Click(loc.Expr, byOption(loc))); err != nil {
		return fmt.Errorf("click %s %q: %w", loc.By, loc.Expr, err)
	}

	return nil
}

func (d *Driver) Type(ctx context.Context, loc browser.Locator, text string) error {
	err := d.run(ctx,
		chromedp.Clear(loc.Expr, byOption(loc)),
		chromedp.SendKeys(loc.Expr, text, byOption(loc)),
	)
	if err != nil {
		return fmt.Errorf("type into %s %q: %w", loc.By, loc.Expr, err)
	}

	return nil
}

func (d *Driver) SelectOption(ctx context.Context, loc browser.Locator, value string) error {
	// Setting the value alone does not notify framework listeners; dispatch
	// input and change like a user interaction would.
	expr := fmt.Sprintf(`(function() {
		var el = %s;
		if (!el) { throw new Error("select element not found"); }
		el.value = %s;
		el.dispatchEvent(new Event("input", { bubbles: true }));
		el.dispatchEvent(new Event("change", { bubbles: true }));
		return el.value;
	})()`, findExpr(loc), jsString(value))

	var selected string

	if err := d.run(ctx, chromedp.Evaluate(expr, &selected)); err != nil {
		return fmt.Errorf("select %q in %s %q: %w", value, loc.By, loc.Expr, err)
	}

	return nil
}

func (d *Driver) Evaluate(ctx context.Context, expr string) (any, error) {
	var raw json.RawMessage

	if err := d.run(ctx, chromedp.Evaluate(expr, &raw)); err != nil {
		return nil, fmt.Errorf("evaluate script: %w", err)
	}

	if len(raw) == 0 {
		return nil, nil
	}

	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode script result: %w", err)
	}

	return result, nil
}

func (d *Driver) Screenshot(ctx context.Context, path string, fullPage bool) error {
	var buf []byte

	var action chromedp.Action
	if fullPage {
		action = chromedp.FullScreenshot(&buf, 90)
	} else {
		action = chromedp.CaptureScreenshot(&buf)
	}

	if err := d.run(ctx, action); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create screenshot directory: %w", err)
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write screenshot %s: %w", path, err)
	}

	return nil
}

func (d *Driver) Close(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	if d.allocCancel != nil {
		d.allocCancel()
		d.allocCancel = nil
	}

	d.ctx = nil
	d.allocCtx = nil

	return nil
}

func byOption(loc browser.Locator) chromedp.QueryOption {
	if loc.By == browser.ByXPath {
		return chromedp.BySearch
	}

	return chromedp.ByQuery
}

func countExpr(loc browser.Locator) string {
	if loc.By == browser.ByXPath {
		return fmt.Sprintf(
			`document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotLength`,
			jsString(loc.Expr))
	}

	return fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(loc.Expr))
}

func findExpr(loc browser.Locator) string {
	if loc.By == browser.ByXPath {
		return fmt.Sprintf(
			`document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`,
			jsString(loc.Expr))
	}

	return fmt.Sprintf(`document.querySelector(%s)`, jsString(loc.Expr))
}

func jsString(s string) string {
	data, _ := json.Marshal(s)

	return string(data)
}
