package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"clinicrawl/internal/logging"
)

// RodBrowser drives a headless Chromium through go-rod.
type RodBrowser struct {
	browser *rod.Browser
}

// Launch starts the browser. Certificate errors are ignored so clinic sites
// with misconfigured TLS still load.
func Launch(headless bool) (*RodBrowser, error) {
	l := launcher.New().
		Headless(headless).
		Set("ignore-certificate-errors").
		Set("lang", "ko-KR")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	logging.Debugf("browser launched: %s", controlURL)
	return &RodBrowser{browser: b}, nil
}

// NewPage opens a fresh tab.
func (b *RodBrowser) NewPage(ctx context.Context) (Page, error) {
	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return &RodPage{page: page}, nil
}

// Close shuts the browser down. Panics from an already-crashed browser are
// converted to errors.
func (b *RodBrowser) Close() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("browser close panic: %v", r)
		}
	}()
	return b.browser.Close()
}

// RodPage implements Page on top of a rod tab.
type RodPage struct {
	page *rod.Page
}

type rodResponse struct {
	status int
}

func (r *rodResponse) OK() bool    { return r.status >= 200 && r.status < 400 }
func (r *rodResponse) Status() int { return r.status }

// Navigate loads the URL, classifying failures into timeout/network/
// navigation kinds. Browser-level panics surface as navigation errors.
func (p *RodPage) Navigate(ctx context.Context, url string, waitUntil WaitUntil, timeout time.Duration) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("%w: panic: %v", ErrNavigation, r)
		}
	}()

	page := p.page.Context(ctx).Timeout(timeout)

	status := 0
	waitResp := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument {
			status = e.Response.Status
			return true
		}
		return false
	})

	if navErr := page.Navigate(url); navErr != nil {
		return nil, classifyNavError(navErr)
	}

	if waitUntil == WaitLoad {
		if loadErr := page.WaitLoad(); loadErr != nil {
			return nil, classifyNavError(loadErr)
		}
	}
	waitResp()

	if status == 0 {
		// Cached or about: navigations emit no document response.
		status = 200
	}
	return &rodResponse{status: status}, nil
}

func classifyNavError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "context deadline exceeded") || strings.Contains(msg, "timeout"):
		return fmt.Errorf("%w: %v", ErrNavTimeout, err)
	case strings.Contains(msg, "net::ERR_NAME") || strings.Contains(msg, "net::ERR_CONNECTION") ||
		strings.Contains(msg, "net::ERR_INTERNET") || strings.Contains(msg, "net::ERR_ADDRESS"):
		return fmt.Errorf("%w: %v", ErrNavNetwork, err)
	default:
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}
}

func (p *RodPage) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *RodPage) Content() (string, error) {
	html, err := p.page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page html: %w", err)
	}
	return html, nil
}

func (p *RodPage) Text() (string, error) {
	raw, err := p.Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return "", err
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", fmt.Errorf("failed to decode body text: %w", err)
	}
	return text, nil
}

// Eval runs a JS function and marshals its result to JSON. Promise results
// are awaited by rod.
func (p *RodPage) Eval(js string, args ...interface{}) (out json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("eval panic: %v", r)
		}
	}()

	obj, err := p.page.Eval(js, args...)
	if err != nil {
		return nil, fmt.Errorf("eval failed: %w", err)
	}
	b, err := json.Marshal(obj.Value.Val())
	if err != nil {
		return nil, fmt.Errorf("failed to encode eval result: %w", err)
	}
	return b, nil
}

func (p *RodPage) ClickByText(pattern string) error {
	el, err := p.page.Timeout(3 * time.Second).ElementR("a, button, [role=button], div, span, li", pattern)
	if err != nil {
		return fmt.Errorf("no element matching %q: %w", pattern, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (p *RodPage) Scroll(deltaY float64) error {
	if err := p.page.Mouse.Scroll(0, deltaY, 1); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

func (p *RodPage) Screenshot(path string, fullPage bool, quality int) error {
	req := &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: &quality,
	}
	data, err := p.page.Screenshot(fullPage, req)
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}

func (p *RodPage) SetCookie(name, value string, ttl time.Duration) error {
	expires := proto.TimeSinceEpoch(float64(time.Now().Add(ttl).Unix()))
	err := p.page.SetCookies([]*proto.NetworkCookieParam{{
		Name:    name,
		Value:   value,
		URL:     p.URL(),
		Expires: expires,
	}})
	if err != nil {
		return fmt.Errorf("failed to set cookie: %w", err)
	}
	return nil
}

func (p *RodPage) Close() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page close panic: %v", r)
		}
	}()
	return p.page.Close()
}
