package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfigueira/formpilot/pkg/browser"
	"github.com/mfigueira/formpilot/pkg/browser/memdriver"
)

func TestLooksLikeLoginURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://portal.example.edu/login", true},
		{"https://portal.example.edu/Login?next=/records", true},
		{"https://portal.example.edu/signin", true},
		{"https://portal.example.edu/sign-in", true},
		{"https://portal.example.edu/auth/callback", true},
		{"https://sso.example.edu/", true},
		{"https://portal.example.edu/records", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, looksLikeLoginURL(tt.url))
		})
	}
}

func loginDriver(t *testing.T, page *memdriver.Page) *memdriver.Driver {
	t.Helper()

	d := memdriver.New()
	d.AddPage(page)

	ctx := context.Background()
	require.NoError(t, d.Launch(ctx))
	require.NoError(t, d.Navigate(ctx, page.URL, browser.WaitLoad))

	return d
}

func TestLoginRequired_PasswordInputSuspends(t *testing.T) {
	d := loginDriver(t, &memdriver.Page{
		URL: "https://portal.example.edu/records",
		Elements: []*memdriver.Element{
			{Tag: "input", Attrs: map[string]string{"type": "password"}},
		},
	})

	required, url := loginRequired(context.Background(), d)

	assert.True(t, required)
	assert.Equal(t, "https://portal.example.edu/records", url)
}

func TestLoginRequired_LogoutMarkerProceeds(t *testing.T) {
	// A logout link outranks the password field.
	d := loginDriver(t, &memdriver.Page{
		URL: "https://portal.example.edu/records",
		Elements: []*memdriver.Element{
			{Tag: "input", Attrs: map[string]string{"type": "password"}},
			{Tag: "a", Attrs: map[string]string{"href": "/logout"}},
		},
	})

	required, _ := loginRequired(context.Background(), d)

	assert.False(t, required)
}

func TestLoginRequired_AmbiguousBiasesToAuthenticated(t *testing.T) {
	d := loginDriver(t, &memdriver.Page{
		URL: "https://portal.example.edu/records",
		Elements: []*memdriver.Element{
			{Tag: "form", ID: "entry"},
		},
	})

	required, _ := loginRequired(context.Background(), d)

	assert.False(t, required)
}

func TestLoginRequired_LoginURLWithoutLogoutMarker(t *testing.T) {
	d := loginDriver(t, &memdriver.Page{
		URL:      "https://portal.example.edu/login",
		Elements: []*memdriver.Element{{Tag: "form", ID: "loginform"}},
	})

	required, _ := loginRequired(context.Background(), d)

	assert.True(t, required)
}

func TestAwaitLogin_ContinueSignal(t *testing.T) {
	d := loginDriver(t, &memdriver.Page{
		URL: "https://portal.example.edu/login",
		Elements: []*memdriver.Element{
			{Tag: "input", Attrs: map[string]string{"type": "password"}},
		},
	})

	gate := NewGate()
	done := make(chan error, 1)

	go func() {
		done <- awaitLogin(context.Background(), gate, d, time.Minute, time.Minute)
	}()

	require.Eventually(t, gate.Waiting, time.Second, time.Millisecond)
	require.NoError(t, gate.Signal())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("continue signal did not release the login wait")
	}
}

func TestAwaitLogin_DOMPollConfirms(t *testing.T) {
	d := loginDriver(t, &memdriver.Page{
		URL: "https://portal.example.edu/login",
		Elements: []*memdriver.Element{
			{Tag: "input", Attrs: map[string]string{"type": "password"}},
		},
	})

	gate := NewGate()
	done := make(chan error, 1)

	go func() {
		done <- awaitLogin(context.Background(), gate, d, time.Minute, 10*time.Millisecond)
	}()

	// Simulate the operator finishing the login: the portal lands back on
	// the records page with a logout link.
	d.AddPage(&memdriver.Page{
		URL: "https://portal.example.edu/records",
		Elements: []*memdriver.Element{
			{Tag: "a", Attrs: map[string]string{"href": "/logout"}},
		},
	})
	require.NoError(t, d.Navigate(context.Background(), "https://portal.example.edu/records", browser.WaitLoad))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("poll never confirmed the login")
	}
}

func TestAwaitLogin_WindowTimeout(t *testing.T) {
	d := loginDriver(t, &memdriver.Page{
		URL: "https://portal.example.edu/login",
		Elements: []*memdriver.Element{
			{Tag: "input", Attrs: map[string]string{"type": "password"}},
		},
	})

	gate := NewGate()

	err := awaitLogin(context.Background(), gate, d, 30*time.Millisecond, time.Minute)

	assert.ErrorIs(t, err, ErrLoginTimeout)
}

func TestAwaitLogin_AbortPropagates(t *testing.T) {
	d := loginDriver(t, &memdriver.Page{
		URL: "https://portal.example.edu/login",
		Elements: []*memdriver.Element{
			{Tag: "input", Attrs: map[string]string{"type": "password"}},
		},
	})

	gate := NewGate()
	done := make(chan error, 1)

	go func() {
		done <- awaitLogin(context.Background(), gate, d, time.Minute, time.Minute)
	}()

	require.Eventually(t, gate.Waiting, time.Second, time.Millisecond)
	gate.Abort()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrWaitAborted)
	case <-time.After(time.Second):
		t.Fatal("abort did not release the login wait")
	}
}
