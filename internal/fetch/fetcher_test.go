package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func robotsServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(status)
			w.Write([]byte(body))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRobotsWildcardDisallowBlocks(t *testing.T) {
	srv := robotsServer(t, "User-agent: *\nDisallow: /\n", 200)
	c := New(5 * time.Second)

	policy, err := c.FetchRobots(context.Background(), srv.URL)
	require.NoError(t, err)
	require.False(t, policy.AllowsRoot())
}

func TestRobotsExplicitAllowOverrides(t *testing.T) {
	srv := robotsServer(t, "User-agent: *\nDisallow: /\nAllow: /\n", 200)
	c := New(5 * time.Second)

	policy, err := c.FetchRobots(context.Background(), srv.URL)
	require.NoError(t, err)
	require.True(t, policy.AllowsRoot())
}

func TestRobotsAllowInOtherGroupDoesNotOverride(t *testing.T) {
	srv := robotsServer(t, "User-agent: *\nDisallow: /\n\nUser-agent: Googlebot\nAllow: /\n", 200)
	c := New(5 * time.Second)

	policy, err := c.FetchRobots(context.Background(), srv.URL)
	require.NoError(t, err)
	require.False(t, policy.AllowsRoot())
}

func TestRobotsScopedDisallowAllows(t *testing.T) {
	srv := robotsServer(t, "User-agent: *\nDisallow: /admin/\n", 200)
	c := New(5 * time.Second)

	policy, err := c.FetchRobots(context.Background(), srv.URL)
	require.NoError(t, err)
	require.True(t, policy.AllowsRoot())
}

func TestRobotsMissingAllows(t *testing.T) {
	srv := robotsServer(t, "not found", 404)
	c := New(5 * time.Second)

	policy, err := c.FetchRobots(context.Background(), srv.URL)
	require.NoError(t, err)
	require.True(t, policy.AllowsRoot())
}

func TestRobotsOtherAgentDisallowIgnored(t *testing.T) {
	srv := robotsServer(t, "User-agent: BadBot\nDisallow: /\n\nUser-agent: *\nDisallow:\n", 200)
	c := New(5 * time.Second)

	policy, err := c.FetchRobots(context.Background(), srv.URL)
	require.NoError(t, err)
	require.True(t, policy.AllowsRoot())
}

func TestSitemapURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sitemap.xml" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<?xml version="1.0"?>
<urlset>
  <url><loc>https://clinic.example.kr/</loc></url>
  <url><loc> https://clinic.example.kr/doctor </loc></url>
  <url><loc>/relative-ignored</loc></url>
</urlset>`))
	}))
	defer srv.Close()

	c := New(5 * time.Second)
	urls := c.SitemapURLs(context.Background(), srv.URL, 100)
	require.Equal(t, []string{
		"https://clinic.example.kr/",
		"https://clinic.example.kr/doctor",
	}, urls)
}

func TestSitemapMissingYieldsNothing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := New(2 * time.Second)
	require.Empty(t, c.SitemapURLs(context.Background(), srv.URL, 10))
}
