package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"clinicrawl/internal/browser"
	"clinicrawl/internal/logging"
	"clinicrawl/internal/models"
)

// Pass payload shapes returned by the page scripts.
type anchorInfo struct {
	Href    string `json:"href"`
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

type iframeInfo struct {
	Src         string `json:"src"`
	SectionText string `json:"sectionText"`
}

type imageInfo struct {
	Src        string `json:"src"`
	Alt        string `json:"alt"`
	Cls        string `json:"cls"`
	ParentText string `json:"parentText"`
}

type redirectCandidate struct {
	Href    string `json:"href"`
	Text    string `json:"text"`
	Context string `json:"context"`
}

// Per-method default confidence. Direct DOM observations are certain;
// followed redirects and text-derived phones slightly less so.
var methodConfidence = map[models.ExtractionMethod]float64{
	models.MethodDOMStatic:           1.0,
	models.MethodDOMDynamic:          1.0,
	models.MethodIframe:              1.0,
	models.MethodMapsEmbed:           1.0,
	models.MethodStructuredData:      1.0,
	models.MethodShadowDOM:           1.0,
	models.MethodWindowOpenIntercept: 1.0,
	models.MethodScrollTriggered:     1.0,
	models.MethodSubpageScan:         1.0,
	models.MethodQRImage:             0.8,
	models.MethodPhoneText:           0.8,
	models.MethodRedirectFollow:      0.9,
}

// Extractor runs the multi-pass channel extraction against the current DOM.
// It is stateless; the worker's browser is passed per crawl for shortlink
// resolution and redirect following, which open throwaway tabs.
type Extractor struct{}

// New builds an extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract runs passes 1 through 6 in order against page, appending unique
// channels to result. Pass failures are recorded as non-fatal extraction
// errors; the remaining passes still run. b may be nil, which skips the
// passes that open helper tabs.
func (e *Extractor) Extract(ctx context.Context, b browser.Browser, page browser.Page, result *models.CrawlResult) {
	e.StaticPass(ctx, page, result, models.MethodDOMStatic)
	e.iframePass(page, result)
	e.structuredDataPass(page, result)
	e.dynamicPass(page, result)
	e.interceptPass(page, result)
	e.scrollTriggeredPass(page, result)
	e.qrImagePass(page, result)
	e.phoneTextPass(page, result)
	e.resolveShortlinks(ctx, b, result)
	e.redirectFollowPass(ctx, b, page, result)
}

// addClassified normalizes, classifies and appends one URL.
func addClassified(result *models.CrawlResult, rawURL string, method models.ExtractionMethod) bool {
	normalized := NormalizeURL(rawURL)
	platform, ok := Classify(normalized)
	if !ok {
		return false
	}
	return result.AddChannel(models.SocialChannel{
		Platform:         platform,
		URL:              normalized,
		ExtractionMethod: method,
		Confidence:       methodConfidence[method],
	})
}

func evalInto(page browser.Page, script string, out interface{}, args ...interface{}) error {
	raw, err := page.Eval(script, args...)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func recordPassError(result *models.CrawlResult, pass string, err error) {
	logging.Debugf("channel pass %s failed: %v", pass, err)
	result.AddError(models.ErrExtraction, "social", fmt.Sprintf("%s pass: %v", pass, err), true)
}

// StaticPass (pass 1) classifies every visible anchor. The doctor extractor
// reuses it on sub-pages with the subpage_scan method tag.
func (e *Extractor) StaticPass(_ context.Context, page browser.Page, result *models.CrawlResult, method models.ExtractionMethod) {
	var anchors []anchorInfo
	if err := evalInto(page, scriptStaticAnchors, &anchors); err != nil {
		recordPassError(result, "static", err)
		return
	}
	for _, a := range anchors {
		if !a.Visible {
			continue
		}
		addClassified(result, a.Href, method)
	}
}

var mapsEmbedPattern = regexp.MustCompile(`(?i)google\.[a-z.]+/maps|maps\.google`)

// iframePass (pass 1.5) classifies iframe sources. Google-Maps embeds get
// their enclosing section scanned for Korean phone numbers instead.
func (e *Extractor) iframePass(page browser.Page, result *models.CrawlResult) {
	var iframes []iframeInfo
	if err := evalInto(page, scriptIframes, &iframes); err != nil {
		recordPassError(result, "iframe", err)
		return
	}
	for _, f := range iframes {
		if mapsEmbedPattern.MatchString(f.Src) {
			for _, phone := range KoreanPhonePattern.FindAllString(f.SectionText, -1) {
				result.AddChannel(models.SocialChannel{
					Platform:         models.PlatformPhone,
					URL:              PhoneToTelURI(phone),
					ExtractionMethod: models.MethodMapsEmbed,
					Confidence:       methodConfidence[models.MethodMapsEmbed],
				})
			}
			continue
		}
		addClassified(result, f.Src, models.MethodIframe)
	}
}

// dynamicPass (pass 2) covers onclick window.open literals, chat-widget SDK
// globals and shadow-DOM anchors.
func (e *Extractor) dynamicPass(page browser.Page, result *models.CrawlResult) {
	var openTargets []string
	if err := evalInto(page, scriptOnclickWindowOpen, &openTargets); err != nil {
		recordPassError(result, "onclick", err)
	} else {
		for _, target := range openTargets {
			addClassified(result, target, models.MethodDOMDynamic)
		}
	}

	var widgets []string
	if err := evalInto(page, scriptWidgetGlobals, &widgets); err != nil {
		recordPassError(result, "widget", err)
	} else {
		for _, w := range widgets {
			// Widget sentinels are telemetry, not channels.
			result.AddError(models.ErrInfo, "social", "widget:"+w, true)
		}
	}

	var shadowAnchors []string
	if err := evalInto(page, scriptShadowAnchors, &shadowAnchors); err != nil {
		recordPassError(result, "shadow_dom", err)
	} else {
		for _, href := range shadowAnchors {
			addClassified(result, href, models.MethodShadowDOM)
		}
	}
}

// interceptPass (pass 2.5) wraps window.open, clicks consultation buttons
// and classifies whatever they tried to open.
func (e *Extractor) interceptPass(page browser.Page, result *models.CrawlResult) {
	var captured []string
	if err := evalInto(page, scriptWindowOpenIntercept, &captured); err != nil {
		recordPassError(result, "window_open_intercept", err)
		return
	}
	for _, target := range captured {
		addClassified(result, target, models.MethodWindowOpenIntercept)
	}
}

// scrollTriggeredPass (pass 2.75) scrolls halfway down and re-enumerates
// fixed/sticky anchors that only mount on scroll.
func (e *Extractor) scrollTriggeredPass(page browser.Page, result *models.CrawlResult) {
	var ok bool
	if err := evalInto(page, scriptHalfScroll, &ok); err != nil {
		recordPassError(result, "scroll", err)
		return
	}
	var anchors []string
	if err := evalInto(page, scriptFixedAnchors, &anchors); err != nil {
		recordPassError(result, "scroll_triggered", err)
		return
	}
	for _, href := range anchors {
		addClassified(result, href, models.MethodScrollTriggered)
	}
}

var qrHintPattern = regexp.MustCompile(`(?i)wechat|weixin|微信|위챗`)

// qrImagePass (pass 3) emits WeChat QR image sources.
func (e *Extractor) qrImagePass(page browser.Page, result *models.CrawlResult) {
	var images []imageInfo
	if err := evalInto(page, scriptImages, &images); err != nil {
		recordPassError(result, "qr_image", err)
		return
	}
	for _, img := range images {
		hint := img.Alt + " " + img.Cls + " " + img.ParentText
		if !qrHintPattern.MatchString(hint) {
			continue
		}
		result.AddChannel(models.SocialChannel{
			Platform:         models.PlatformWeChat,
			URL:              NormalizeURL(img.Src),
			ExtractionMethod: models.MethodQRImage,
			Confidence:       methodConfidence[models.MethodQRImage],
		})
	}
}

const maxTextPhones = 3

// phoneTextPass (pass 4) scans the visible body text for Korean phone
// numbers, capped at three unique numbers.
func (e *Extractor) phoneTextPass(page browser.Page, result *models.CrawlResult) {
	text, err := page.Text()
	if err != nil {
		recordPassError(result, "phone_text", err)
		return
	}
	seen := map[string]struct{}{}
	for _, match := range KoreanPhonePattern.FindAllString(text, -1) {
		uri := PhoneToTelURI(match)
		if _, dup := seen[uri]; dup {
			continue
		}
		seen[uri] = struct{}{}
		result.AddChannel(models.SocialChannel{
			Platform:         models.PlatformPhone,
			URL:              uri,
			ExtractionMethod: models.MethodPhoneText,
			Confidence:       methodConfidence[models.MethodPhoneText],
		})
		if len(seen) >= maxTextPhones {
			break
		}
	}
}

// resolveShortlinks (pass 5) opens each captured naver.me shortlink in a
// throwaway tab and rewrites the channel in place with the resolved URL and
// platform. Failures keep the shortlink as-is.
func (e *Extractor) resolveShortlinks(ctx context.Context, b browser.Browser, result *models.CrawlResult) {
	if b == nil {
		return
	}
	for i := range result.SocialChannels {
		ch := &result.SocialChannels[i]
		if ch.Platform != models.PlatformNaverShortlink {
			continue
		}
		resolved, err := resolveURL(ctx, b, ch.URL, browser.WaitCommit, 5*time.Second)
		if err != nil || resolved == "" {
			logging.Debugf("shortlink %s not resolved: %v", ch.URL, err)
			continue
		}
		normalized := NormalizeURL(resolved)
		if platform, ok := Classify(normalized); ok {
			ch.Platform = platform
			ch.URL = normalized
		}
	}
	dedupeChannels(result)
}

func resolveURL(ctx context.Context, b browser.Browser, target string, waitUntil browser.WaitUntil, timeout time.Duration) (string, error) {
	page, err := b.NewPage(ctx)
	if err != nil {
		return "", err
	}
	defer page.Close()

	if _, err := page.Navigate(ctx, target, waitUntil, timeout); err != nil {
		return "", err
	}
	return page.URL(), nil
}

// dedupeChannels keeps the first channel per normalized URL; earlier passes
// have higher-priority methods.
func dedupeChannels(result *models.CrawlResult) {
	seen := map[string]struct{}{}
	kept := result.SocialChannels[:0]
	for _, ch := range result.SocialChannels {
		if _, dup := seen[ch.URL]; dup {
			continue
		}
		seen[ch.URL] = struct{}{}
		kept = append(kept, ch)
	}
	result.SocialChannels = kept
}

var redirectKeywordPattern = regexp.MustCompile(`(?i)kakao|카카오|naver|네이버|blog|블로그|instagram|인스타|youtube|유튜브|facebook|페이스북|line|라인|talk|톡`)
var dynamicEndpointPattern = regexp.MustCompile(`(?i)\.(asp|aspx|php|jsp|do)(\?|$)|\.html?\?`)

const maxRedirectCandidates = 10

// filterRedirectCandidates selects up to 10 internal anchors worth
// following: internal href, messenger keyword in text/context/URL, not
// already a known social URL. Candidates whose own href carries the keyword
// sort before context-only matches; within a group DOM order is kept.
func filterRedirectCandidates(cands []redirectCandidate, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var hrefMatches, contextMatches []string
	seen := map[string]struct{}{}
	for _, c := range cands {
		href := strings.TrimSpace(c.Href)
		if href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#") {
			continue
		}
		if isKnownSocialURL(NormalizeURL(href)) {
			continue
		}
		if !isInternalHref(href, base) {
			continue
		}
		if _, dup := seen[href]; dup {
			continue
		}

		switch {
		case redirectKeywordPattern.MatchString(href):
			seen[href] = struct{}{}
			hrefMatches = append(hrefMatches, href)
		case redirectKeywordPattern.MatchString(c.Text) || redirectKeywordPattern.MatchString(c.Context):
			seen[href] = struct{}{}
			contextMatches = append(contextMatches, href)
		}
	}

	out := append(hrefMatches, contextMatches...)
	if len(out) > maxRedirectCandidates {
		out = out[:maxRedirectCandidates]
	}
	return out
}

func isInternalHref(href string, base *url.URL) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	if u.Host == "" {
		return true
	}
	if strings.EqualFold(u.Host, base.Host) {
		return true
	}
	return dynamicEndpointPattern.MatchString(u.Path + "?" + u.RawQuery)
}

// redirectFollowPass (pass 6) opens each candidate in a throwaway tab and
// classifies where it lands.
func (e *Extractor) redirectFollowPass(ctx context.Context, b browser.Browser, page browser.Page, result *models.CrawlResult) {
	if b == nil {
		return
	}
	var cands []redirectCandidate
	if err := evalInto(page, scriptRedirectCandidates, &cands); err != nil {
		recordPassError(result, "redirect_follow", err)
		return
	}

	for _, href := range filterRedirectCandidates(cands, page.URL()) {
		resolved, err := resolveURL(ctx, b, href, browser.WaitLoad, 8*time.Second)
		if err != nil || resolved == "" {
			logging.Debugf("redirect follow %s failed: %v", href, err)
			continue
		}
		addClassified(result, resolved, models.MethodRedirectFollow)
	}
}
