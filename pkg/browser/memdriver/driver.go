package memdriver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dop251/goja"

	"github.com/mfigueira/formpilot/pkg/browser"
)

// Driver is the in-memory browser. Pages are registered as fixtures keyed by
// URL; navigation switches the current page, interactions mutate fixture
// elements, and Evaluate runs scripts on a goja runtime with a document shim.
type Driver struct {
	mu       sync.Mutex
	pages    map[string]*Page
	current  *Page
	launched bool

	// Interaction log, inspected by tests.
	Clicked     []string
	Typed       map[string][]string
	Screenshots []string
}

func New() *Driver {
	return &Driver{
		pages: make(map[string]*Page),
		Typed: make(map[string][]string),
	}
}

// AddPage registers a fixture page.
func (d *Driver) AddPage(page *Page) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pages[page.URL] = page
}

// CurrentPage exposes the active fixture for test assertions.
func (d *Driver) CurrentPage() *Page {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.current
}

func (d *Driver) Launch(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.launched = true

	return nil
}

func (d *Driver) ensureLaunched() error {
	if !d.launched {
		return browser.ErrNotLaunched
	}

	return nil
}

func (d *Driver) Navigate(_ context.Context, url string, _ browser.WaitUntil) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureLaunched(); err != nil {
		return err
	}

	if page, ok := d.pages[url]; ok {
		d.current = page
	} else {
		d.current = &Page{URL: url}
	}

	return nil
}

func (d *Driver) CurrentURL(_ context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureLaunched(); err != nil {
		return "", err
	}

	if d.current == nil {
		return "about:blank", nil
	}

	return d.current.URL, nil
}

func (d *Driver) Count(_ context.Context, loc browser.Locator) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureLaunched(); err != nil {
		return 0, err
	}

	return len(d.current.match(loc)), nil
}

func (d *Driver) Click(_ context.Context, loc browser.Locator) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureLaunched(); err != nil {
		return err
	}

	matches := d.current.match(loc)
	if len(matches) == 0 {
		return fmt.Errorf("click: no element matches %s %q", loc.By, loc.Expr)
	}

	el := matches[0]
	d.Clicked = append(d.Clicked, loc.Expr)

	// A data-nav attribute simulates a link or submit that moves the page.
	if target, ok := el.Attrs["data-nav"]; ok {
		if page, exists := d.pages[target]; exists {
			d.current = page
		} else {
			d.current = &Page{URL: target}
		}
	}

	return nil
}

func (d *Driver) Type(_ context.Context, loc browser.Locator, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureLaunched(); err != nil {
		return err
	}

	matches := d.current.match(loc)
	if len(matches) == 0 {
		return fmt.Errorf("type: no element matches %s %q", loc.By, loc.Expr)
	}

	// Clearing before writing mirrors the real driver contract.
	matches[0].Value = text
	d.Typed[loc.Expr] = append(d.Typed[loc.Expr], text)

	return nil
}

func (d *Driver) SelectOption(_ context.Context, loc browser.Locator, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureLaunched(); err != nil {
		return err
	}

	matches := d.current.match(loc)
	if len(matches) == 0 {
		return fmt.Errorf("select: no element matches %s %q", loc.By, loc.Expr)
	}

	matches[0].Value = value

	return nil
}

func (d *Driver) Evaluate(_ context.Context, expr string) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureLaunched(); err != nil {
		return nil, err
	}

	vm := goja.New()

	if err := vm.Set("document", d.documentShim(vm)); err != nil {
		return nil, fmt.Errorf("prepare script runtime: %w", err)
	}

	value, err := vm.RunString(expr)
	if err != nil {
		return nil, fmt.Errorf("script error: %w", err)
	}

	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, nil
	}

	return value.Export(), nil
}

// documentShim exposes the subset of the DOM that stored scripts and the
// login probe rely on.
func (d *Driver) documentShim(vm *goja.Runtime) *goja.Object {
	doc := vm.NewObject()

	toObject := func(el *Element) *goja.Object {
		obj := vm.NewObject()
		_ = obj.Set("value", el.Value)
		_ = obj.Set("textContent", el.Text)
		_ = obj.Set("tagName", el.Tag)
		_ = obj.Set("getAttribute", func(name string) any {
			if v, ok := el.Attr(name); ok {
				return v
			}

			return nil
		})

		return obj
	}

	query := func(selector string) []*Element {
		return d.current.match(browser.CSS(selector))
	}

	_ = doc.Set("querySelector", func(selector string) any {
		matches := query(selector)
		if len(matches) == 0 {
			return nil
		}

		return toObject(matches[0])
	})

	_ = doc.Set("querySelectorAll", func(selector string) any {
		matches := query(selector)
		objects := make([]any, 0, len(matches))

		for _, el := range matches {
			objects = append(objects, toObject(el))
		}

		return objects
	})

	_ = doc.Set("getElementById", func(id string) any {
		if el := d.current.byID(id); el != nil {
			return toObject(el)
		}

		return nil
	})

	return doc
}

func (d *Driver) Screenshot(_ context.Context, path string, _ bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureLaunched(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create screenshot directory: %w", err)
	}

	if err := os.WriteFile(path, []byte("formpilot dry-run screenshot\n"), 0o644); err != nil {
		return fmt.Errorf("write screenshot %s: %w", path, err)
	}

	d.Screenshots = append(d.Screenshots, path)

	return nil
}

func (d *Driver) Close(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.launched = false
	d.current = nil

	return nil
}
