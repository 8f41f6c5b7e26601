package browser

import (
	"regexp"
	"strings"

	"clinicrawl/internal/models"
)

// CMS fingerprints: <meta name=generator> content plus known script src
// patterns, checked in order.
var cmsRules = []struct {
	cms     models.CMSPlatform
	pattern *regexp.Regexp
}{
	{models.CMSImweb, regexp.MustCompile(`(?i)imweb\.me|cdn\.imweb|generator"?\s*content="?imweb`)},
	{models.CMSModoo, regexp.MustCompile(`(?i)modoo\.at`)},
	{models.CMSCafe24, regexp.MustCompile(`(?i)cafe24\.com|cafe24img\.com|EC_(?:GLOBAL|FRONT)`)},
	{models.CMSWordpress, regexp.MustCompile(`(?i)wp-content|wp-includes|generator"?\s*content="?wordpress`)},
	{models.CMSWix, regexp.MustCompile(`(?i)wix\.com|wixstatic\.com|wix-code`)},
	{models.CMSGnuboard, regexp.MustCompile(`(?i)gnuboard|/bbs/board\.php|g5_url`)},
	{models.CMSNextJS, regexp.MustCompile(`(?i)__NEXT_DATA__|/_next/static`)},
	{models.CMSMobidoc, regexp.MustCompile(`(?i)mobidoc\.kr|mdapp\.kr`)},
}

// DetectCMSFromHTML classifies the site generator from raw HTML. The tag is
// telemetry only; extraction never branches on it.
func DetectCMSFromHTML(html string) models.CMSPlatform {
	for _, rule := range cmsRules {
		if rule.pattern.MatchString(html) {
			return rule.cms
		}
	}
	return models.CMSUnknown
}

// ReplacementRatio measures broken-encoding density: the share of U+FFFD
// replacement characters in the text.
func ReplacementRatio(text string) float64 {
	if len(text) == 0 {
		return 0
	}
	total := 0
	bad := 0
	for _, r := range text {
		total++
		if r == '�' {
			bad++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(bad) / float64(total)
}

// IsEncodingBroken reports a page dominated by replacement characters:
// more than 10% of runes on a page with under 500 chars of text.
func IsEncodingBroken(text string) bool {
	runes := []rune(text)
	return ReplacementRatio(text) > 0.10 && len(runes) < 500
}

var antibotPattern = regexp.MustCompile(`(?i)cloudflare|checking your browser|just a moment|attention required|captcha|ddos protection|verify you are human|사람인지 확인`)

// HasAntibotChallenge scans the first 1 KB of visible text for CloudFlare /
// CAPTCHA interstitial phrases.
func HasAntibotChallenge(text string) bool {
	runes := []rune(text)
	if len(runes) > 1024 {
		text = string(runes[:1024])
	}
	return antibotPattern.MatchString(text)
}

// SplashLink is one same-host anchor on a suspected splash page.
type SplashLink struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// PageStats is the splash-detection summary returned by scriptPageStats.
type PageStats struct {
	LinkCount     int          `json:"linkCount"`
	TextLen       int          `json:"textLen"`
	InternalLinks []SplashLink `json:"internalLinks"`
}

// IsSplash applies the splash heuristic: at most 10 links, under 500 chars
// of text, and at least one internal link to pass through.
func (s PageStats) IsSplash() bool {
	return s.LinkCount <= 10 && s.TextLen < 500 && len(s.InternalLinks) > 0
}

var splashKeywordPattern = regexp.MustCompile(`(?i)face|skin|피부|clinic|derma|main|home`)

// PickSplashLink chooses the internal link that best matches skin-clinic
// keywords, falling back to the first.
func PickSplashLink(links []SplashLink) string {
	for _, l := range links {
		if splashKeywordPattern.MatchString(l.Href) || splashKeywordPattern.MatchString(l.Text) {
			return l.Href
		}
	}
	if len(links) > 0 {
		return links[0].Href
	}
	return ""
}

// LooksLikeErrorPage flags obvious 404/error documents by their text.
var errorPagePattern = regexp.MustCompile(`(?i)404 not found|page not found|페이지를 찾을 수 없습니다|존재하지 않는 페이지|접속이 차단|사이트에 연결할 수 없음|service unavailable`)

func LooksLikeErrorPage(text string) bool {
	runes := []rune(text)
	if len(runes) > 2048 {
		text = string(runes[:2048])
	}
	return strings.TrimSpace(text) != "" && errorPagePattern.MatchString(text)
}
