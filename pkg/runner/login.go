package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mfigueira/formpilot/pkg/browser"
)

// ErrLoginTimeout is returned when the login wait window elapses without a
// continue signal or a confirmed login.
var ErrLoginTimeout = errors.New("login wait window elapsed")

var loginURLMarkers = []string{"/login", "/signin", "/sign-in", "/auth", "sso"}

func looksLikeLoginURL(url string) bool {
	lowered := strings.ToLower(url)

	for _, marker := range loginURLMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}

	return false
}

// loginProbeScript sniffs the DOM for auth state. A visible logout marker
// outranks a password field: some portals keep a hidden re-auth form mounted
// on every page.
const loginProbeScript = `(function() {
	var logout = document.querySelector('a[href*="logout"], a[href*="signout"], [data-logout], #logout');
	if (logout) { return "authenticated"; }
	var password = document.querySelector('input[type="password"]');
	if (password) { return "login"; }
	return "unknown";
})()`

// probeAuthState asks the page whether it looks authenticated. Probe
// failures and unrecognizable results report "unknown"; how much weight an
// ambiguous page carries depends on the URL, so the caller decides.
func probeAuthState(ctx context.Context, driver browser.Driver) string {
	result, err := driver.Evaluate(ctx, loginProbeScript)
	if err != nil {
		return "unknown"
	}

	state, ok := result.(string)
	if !ok {
		return "unknown"
	}

	return state
}

// loginRequired decides whether the run must suspend for manual
// authentication. A login-looking URL is trusted unless the DOM explicitly
// shows a logout marker. Elsewhere an ambiguous page counts as
// authenticated: proceeding on an already logged-in portal is recoverable,
// suspending a healthy run is not.
func loginRequired(ctx context.Context, driver browser.Driver) (bool, string) {
	url, err := driver.CurrentURL(ctx)
	if err != nil {
		return false, ""
	}

	state := probeAuthState(ctx, driver)

	if looksLikeLoginURL(url) {
		return state != "authenticated", url
	}

	return state == "login", url
}

// awaitLogin blocks until the operator signals continuation or a DOM poll
// confirms the login completed, bounded by the login wait window.
func awaitLogin(ctx context.Context, gate *Gate, driver browser.Driver, window, poll time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	waited := make(chan error, 1)

	go func() {
		waited <- gate.Wait(waitCtx)
	}()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case err := <-waited:
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w after %s", ErrLoginTimeout, window)
			}

			return err
		case <-ticker.C:
			if required, _ := loginRequired(ctx, driver); !required {
				cancel()
				<-waited

				return nil
			}
		}
	}
}
