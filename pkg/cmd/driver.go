package cmd

import (
	"github.com/mfigueira/formpilot/pkg/browser"
	"github.com/mfigueira/formpilot/pkg/browser/chromedriver"
	"github.com/mfigueira/formpilot/pkg/browser/memdriver"
	"github.com/mfigueira/formpilot/pkg/runner"
)

// NewDriverFactory returns the browser driver constructor for the runner.
// Dry runs get the in-memory driver; real runs get Chrome.
func NewDriverFactory(dryRun bool, opts browser.Options) runner.DriverFactory {
	if dryRun {
		return func() browser.Driver {
			return memdriver.New()
		}
	}

	return func() browser.Driver {
		return chromedriver.New(opts)
	}
}
