package browser

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Navigation error kinds, distinguished so the pipeline can decide
// retryability.
var (
	ErrNavTimeout = errors.New("navigation timeout")
	ErrNavNetwork = errors.New("network error")
	ErrNavigation = errors.New("navigation failed")
)

// WaitUntil selects how long Navigate blocks.
type WaitUntil string

const (
	// WaitLoad waits for the load event.
	WaitLoad WaitUntil = "load"
	// WaitCommit returns as soon as the navigation is committed; used for
	// shortlink resolution where only the final URL matters.
	WaitCommit WaitUntil = "commit"
)

// Response is the minimal navigation response surface.
type Response interface {
	OK() bool
	Status() int
}

// Page is the browser-tab surface the engine depends on. It deliberately
// mirrors a CDP page without binding to a specific driver.
type Page interface {
	// Navigate loads url and blocks per waitUntil, up to timeout.
	Navigate(ctx context.Context, url string, waitUntil WaitUntil, timeout time.Duration) (Response, error)
	// URL returns the current page URL (post-redirect).
	URL() string
	// Content returns the full serialized HTML.
	Content() (string, error)
	// Text returns document.body.innerText.
	Text() (string, error)
	// Eval runs a JS function string ((...) => {...}) with args and returns
	// its JSON-encoded result.
	Eval(js string, args ...interface{}) (json.RawMessage, error)
	// ClickByText clicks the first visible element whose text matches the
	// given regular expression.
	ClickByText(pattern string) error
	// Scroll wheels the page by deltaY pixels.
	Scroll(deltaY float64) error
	// Screenshot writes a JPEG of the viewport or the full page.
	Screenshot(path string, fullPage bool, quality int) error
	// SetCookie sets a cookie on the current origin.
	SetCookie(name, value string, ttl time.Duration) error
	// Close releases the tab.
	Close() error
}

// Browser owns tabs. One browser per batch worker; nothing is shared across
// workers.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}
