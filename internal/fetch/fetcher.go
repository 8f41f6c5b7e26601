package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/gocolly/colly/v2"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/html/charset"

	"clinicrawl/internal/logging"
)

// Client is the plain-HTTP fetch path used for robots.txt and sitemap.xml.
// Everything page-shaped goes through the browser instead. TLS verification
// is skipped because clinic sites routinely serve expired or mismatched
// certificates.
type Client struct {
	resty   *resty.Client
	timeout time.Duration
}

// New builds a client with the given per-request timeout.
func New(timeout time.Duration) *Client {
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	httpClient.Transport = cloudflarebp.AddCloudFlareByPass(httpClient.Transport)

	rc := resty.NewWithClient(httpClient).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &Client{resty: rc, timeout: timeout}
}

// RobotsPolicy is the parsed robots.txt decision surface for the wildcard
// user agent.
type RobotsPolicy struct {
	group         *robotstxt.Group
	rootAllowRule bool
}

// AllowsRoot reports whether a wildcard agent may fetch "/". A wildcard
// `Disallow: /` blocks the crawl unless an explicit wildcard `Allow: /` is
// also present; robotstxt resolves that pair as blocked, so the explicit
// rule is tracked separately and wins.
func (p *RobotsPolicy) AllowsRoot() bool {
	if p == nil || p.group == nil {
		return true
	}
	if p.rootAllowRule {
		return true
	}
	return p.group.Test("/")
}

// wildcardAllowsRoot scans robots.txt lines for an `Allow: /` rule inside a
// `User-agent: *` group.
func wildcardAllowsRoot(body []byte) bool {
	inWildcard := false
	prevWasAgent := false
	for _, line := range strings.Split(string(body), "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		if key == "user-agent" {
			// A user-agent line after rules starts a new group.
			if !prevWasAgent {
				inWildcard = false
			}
			if val == "*" {
				inWildcard = true
			}
			prevWasAgent = true
			continue
		}
		prevWasAgent = false
		if inWildcard && key == "allow" && val == "/" {
			return true
		}
	}
	return false
}

// FetchRobots downloads and parses {base}/robots.txt. Missing or erroring
// robots files allow everything; only a fetch-level failure is returned as
// an error so the caller can decide.
func (c *Client) FetchRobots(ctx context.Context, baseURL string) (*RobotsPolicy, error) {
	robotsURL := strings.TrimSuffix(baseURL, "/") + "/robots.txt"

	resp, err := c.resty.R().SetContext(ctx).Get(robotsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch robots.txt: %w", err)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode(), resp.Body())
	if err != nil {
		logging.Debugf("unparseable robots.txt at %s: %v", robotsURL, err)
		return &RobotsPolicy{}, nil
	}
	return &RobotsPolicy{
		group:         data.FindGroup("*"),
		rootAllowRule: resp.StatusCode() < 300 && wildcardAllowsRoot(resp.Body()),
	}, nil
}

var sitemapLocPattern = regexp.MustCompile(`(?is)<loc>\s*(.*?)\s*</loc>`)

// SitemapURLs fetches {base}/sitemap.xml through colly and returns every
// absolute URL it lists, capped at limit. A missing sitemap is not an error;
// it just yields nothing.
func (c *Client) SitemapURLs(ctx context.Context, baseURL string, limit int) []string {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return nil
	}
	sitemapURL := parsed.Scheme + "://" + parsed.Host + "/sitemap.xml"

	collector := colly.NewCollector()
	collector.SetClient(&http.Client{
		Timeout: c.timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	collector.SetRequestTimeout(c.timeout)

	var urls []string
	collector.OnResponse(func(r *colly.Response) {
		// Older Korean sites still serve EUC-KR sitemaps.
		body := r.Body
		if decoded, err := decodeCharset(body, r.Headers.Get("Content-Type")); err == nil {
			body = decoded
		}
		for _, m := range sitemapLocPattern.FindAllSubmatch(body, -1) {
			loc := strings.TrimSpace(string(m[1]))
			if !strings.HasPrefix(loc, "http") {
				continue
			}
			urls = append(urls, loc)
			if len(urls) >= limit {
				break
			}
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		logging.Debugf("sitemap fetch failed for %s: %v", sitemapURL, err)
	})

	if err := collector.Visit(sitemapURL); err != nil {
		logging.Debugf("sitemap visit failed for %s: %v", sitemapURL, err)
		return nil
	}
	collector.Wait()

	if len(urls) > limit {
		urls = urls[:limit]
	}
	return urls
}

// decodeCharset converts body to UTF-8 based on the Content-Type charset or
// byte sniffing. UTF-8 input passes through unchanged.
func decodeCharset(body []byte, contentType string) ([]byte, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}
