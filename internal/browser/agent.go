package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"clinicrawl/internal/logging"
	"clinicrawl/internal/models"
)

// Agent wraps a single tab with the page-stabilization operations the
// pipeline needs. It holds no cross-hospital state; its only state is the
// underlying page handle.
type Agent struct {
	page Page
}

// NewAgent wraps a page.
func NewAgent(page Page) *Agent {
	return &Agent{page: page}
}

// Page exposes the wrapped tab to the extractors.
func (a *Agent) Page() Page { return a.page }

// Goto loads the URL and waits for the load event.
func (a *Agent) Goto(ctx context.Context, url string, timeout time.Duration) (Response, error) {
	return a.page.Navigate(ctx, url, WaitLoad, timeout)
}

// DetectCMS inspects the rendered HTML for generator fingerprints.
func (a *Agent) DetectCMS() models.CMSPlatform {
	html, err := a.page.Content()
	if err != nil {
		logging.Debugf("cms detection skipped: %v", err)
		return models.CMSUnknown
	}
	return DetectCMSFromHTML(html)
}

// CheckEncoding reports whether the page text is dominated by replacement
// characters (mojibake from a mislabeled legacy charset).
func (a *Agent) CheckEncoding() (bool, error) {
	text, err := a.page.Text()
	if err != nil {
		return false, err
	}
	return IsEncodingBroken(text), nil
}

// DetectAntibot looks for CloudFlare/CAPTCHA phrases; when found it waits
// once for the challenge to clear and re-checks.
func (a *Agent) DetectAntibot(ctx context.Context) (bool, error) {
	text, err := a.page.Text()
	if err != nil {
		return false, err
	}
	if !HasAntibotChallenge(text) {
		return false, nil
	}

	logging.Warnf("antibot challenge detected, waiting 15s for it to clear")
	select {
	case <-time.After(15 * time.Second):
	case <-ctx.Done():
		return true, ctx.Err()
	}

	text, err = a.page.Text()
	if err != nil {
		return true, err
	}
	return HasAntibotChallenge(text), nil
}

// DetectErrorPage flags obvious 404/error documents.
func (a *Agent) DetectErrorPage() bool {
	text, err := a.page.Text()
	if err != nil {
		return false
	}
	return LooksLikeErrorPage(text)
}

// DetectSplash applies the splash heuristic and, when the page qualifies,
// navigates through the best internal link. Returns the final URL when a
// pass-through happened.
func (a *Agent) DetectSplash(ctx context.Context, timeout time.Duration) (string, error) {
	raw, err := a.page.Eval(scriptPageStats)
	if err != nil {
		return "", err
	}
	var stats PageStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return "", fmt.Errorf("failed to decode page stats: %w", err)
	}
	if !stats.IsSplash() {
		return "", nil
	}

	target := PickSplashLink(stats.InternalLinks)
	if target == "" {
		return "", nil
	}
	logging.Infof("splash page detected, passing through to %s", target)
	if _, err := a.page.Navigate(ctx, target, WaitLoad, timeout); err != nil {
		return "", err
	}
	return a.page.URL(), nil
}

// popupCookieName suppresses re-opened popups for the rest of the crawl.
const popupCookieName = "clinicrawl_popup_seen"

// DismissPopups runs the three closing strategies up to three times: known
// close buttons, closing-word text buttons, then "do not show today"
// checkboxes. Best effort; failures are logged and swallowed.
func (a *Agent) DismissPopups(ctx context.Context) {
	for round := 0; round < 3; round++ {
		acted := 0
		for _, script := range []string{scriptClosePopupContainers, scriptClickClosingText, scriptCheckTodayClose} {
			raw, err := a.page.Eval(script)
			if err != nil {
				logging.Debugf("popup strategy failed: %v", err)
				continue
			}
			var n int
			if err := json.Unmarshal(raw, &n); err == nil {
				acted += n
			}
		}
		if acted == 0 {
			break
		}
		select {
		case <-time.After(300 * time.Millisecond):
		case <-ctx.Done():
			return
		}
	}

	if err := a.page.SetCookie(popupCookieName, "1", 24*time.Hour); err != nil {
		logging.Debugf("popup cookie not set: %v", err)
	}
}

// SPAWait blocks until DOM mutations stay quiet for 2 s, capped at 10 s.
// Only called when the page text is suspiciously short, which usually means
// hydration is still in flight.
func (a *Agent) SPAWait(ctx context.Context) error {
	_, err := a.page.Eval(scriptSpaWait, 2000, 10000)
	return err
}

// NeedsSPAWait reports whether the rendered text is short enough to suggest
// an unhydrated SPA shell.
func (a *Agent) NeedsSPAWait() bool {
	text, err := a.page.Text()
	if err != nil {
		return false
	}
	return len([]rune(text)) < 200
}

// ScrollToBottom performs human-like chunked scrolling with randomized
// pauses, stopping after three consecutive unchanged document heights or
// the timeout.
func (a *Agent) ScrollToBottom(ctx context.Context, maxScrolls int, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	lastHeight := -1
	unchanged := 0

	for i := 0; i < maxScrolls && time.Now().Before(deadline); i++ {
		if err := a.page.Scroll(600 + rand.Float64()*400); err != nil {
			logging.Debugf("scroll failed: %v", err)
			return
		}

		pause := time.Duration(200+rand.Intn(400)) * time.Millisecond
		select {
		case <-time.After(pause):
		case <-ctx.Done():
			return
		}

		height := a.scrollHeight()
		if height == lastHeight {
			unchanged++
			if unchanged >= 3 {
				return
			}
		} else {
			unchanged = 0
			lastHeight = height
		}
	}
}

func (a *Agent) scrollHeight() int {
	raw, err := a.page.Eval(scriptScrollHeight)
	if err != nil {
		return -1
	}
	var h int
	if err := json.Unmarshal(raw, &h); err != nil {
		return -1
	}
	return h
}

// ScreenshotFullpage resets the scroll position and writes one full-page
// JPEG artifact.
func (a *Agent) ScreenshotFullpage(path string, quality int) error {
	if _, err := a.page.Eval(scriptScrollTo, 0); err != nil {
		logging.Debugf("scroll reset failed: %v", err)
	}
	return a.page.Screenshot(path, true, quality)
}

// ScreenshotViewportChunks scrolls top-to-bottom in viewport-height steps
// and writes one viewport JPEG per chunk. Returns the paths written.
func (a *Agent) ScreenshotViewportChunks(ctx context.Context, pathPrefix string, maxChunks, quality int) ([]string, error) {
	if _, err := a.page.Eval(scriptScrollTo, 0); err != nil {
		return nil, err
	}

	viewport := 900
	if raw, err := a.page.Eval(scriptViewportHeight); err == nil {
		var vh int
		if json.Unmarshal(raw, &vh) == nil && vh > 0 {
			viewport = vh
		}
	}

	total := a.scrollHeight()
	var paths []string
	for i := 0; i < maxChunks; i++ {
		offset := i * viewport
		if total >= 0 && offset >= total {
			break
		}
		if _, err := a.page.Eval(scriptScrollTo, offset); err != nil {
			break
		}
		select {
		case <-time.After(250 * time.Millisecond):
		case <-ctx.Done():
			return paths, ctx.Err()
		}

		path := fmt.Sprintf("%s_%02d.jpg", pathPrefix, i)
		if err := a.page.Screenshot(path, false, quality); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
