package doctors

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// menuLink is one anchor harvested by scriptMenuLinks.
type menuLink struct {
	Href       string `json:"href"`
	Text       string `json:"text"`
	Visible    bool   `json:"visible"`
	ParentMenu string `json:"parentMenu"`
}

var (
	doctorURLPattern    = regexp.MustCompile(`(?i)/doctor|/staff|/team|/의료진|/원장|/전문의|about.*(?:doctor|team|staff)`)
	primaryLabelPattern = regexp.MustCompile(`의료진|대표원장|원장|전문의`)
	secondaryLabelPattern = regexp.MustCompile(`(?i)소개|about|staff|team`)
	genericParentPattern  = regexp.MustCompile(`(?i)/(about|소개|병원)/?$`)
	introTextPattern      = regexp.MustCompile(`(?i)소개|about|intro`)
)

// sitemapRosterKeywords pick roster-shaped URLs out of sitemap.xml.
var sitemapRosterKeywords = []string{
	"/doctor", "/staff", "/team", "/about", "/introduce", "/intro",
	"/의료진", "/원장", "/전문의",
}

const maxMenuCandidates = 5

type rankedLink struct {
	href     string
	priority int
	visible  bool
	order    int
}

// RankMenuCandidates scores harvested menu anchors and returns the top five
// hrefs, best first. URL-pattern matches beat primary labels beat secondary
// labels; generic parent pages come last. Off-site links are dropped.
func RankMenuCandidates(links []menuLink, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var ranked []rankedLink
	seen := map[string]struct{}{}
	for i, l := range links {
		href := strings.TrimSpace(l.Href)
		if href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#") {
			continue
		}
		u, err := url.Parse(href)
		if err != nil || (u.Host != "" && !strings.EqualFold(u.Host, base.Host)) {
			continue
		}
		if _, dup := seen[href]; dup {
			continue
		}

		priority := -1
		switch {
		case genericParentPattern.MatchString(u.Path):
			priority = 3
		case doctorURLPattern.MatchString(href):
			priority = 0
		case primaryLabelPattern.MatchString(l.Text):
			priority = 1
		case secondaryLabelPattern.MatchString(l.Text),
			strings.HasSuffix(l.ParentMenu, "소개"):
			priority = 2
		}
		if priority < 0 {
			continue
		}
		seen[href] = struct{}{}
		ranked = append(ranked, rankedLink{href: href, priority: priority, visible: l.Visible, order: i})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].priority != ranked[j].priority {
			return ranked[i].priority < ranked[j].priority
		}
		if ranked[i].visible != ranked[j].visible {
			return ranked[i].visible
		}
		return ranked[i].order < ranked[j].order
	})

	out := make([]string, 0, maxMenuCandidates)
	for _, r := range ranked {
		out = append(out, r.href)
		if len(out) >= maxMenuCandidates {
			break
		}
	}
	return out
}

// IntroLinks picks short intro/about anchors worth diving into.
func IntroLinks(links []menuLink) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, l := range links {
		if len([]rune(l.Text)) >= 20 || !introTextPattern.MatchString(l.Text) {
			continue
		}
		if l.Href == "" || strings.HasPrefix(l.Href, "javascript:") || strings.HasPrefix(l.Href, "#") {
			continue
		}
		if _, dup := seen[l.Href]; dup {
			continue
		}
		seen[l.Href] = struct{}{}
		out = append(out, l.Href)
	}
	return out
}

// FilterSitemapCandidates keeps sitemap URLs that look roster-shaped.
func FilterSitemapCandidates(urls []string) []string {
	var out []string
	for _, u := range urls {
		lower := strings.ToLower(u)
		for _, kw := range sitemapRosterKeywords {
			if strings.Contains(lower, kw) {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

// mergeCandidates concatenates candidate groups preserving priority order,
// deduping case-sensitively on the raw URL.
func mergeCandidates(groups ...[]string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, group := range groups {
		for _, u := range group {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}
