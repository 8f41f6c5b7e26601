package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clinicrawl/internal/config"
	"clinicrawl/internal/fetch"
	"clinicrawl/internal/models"
)

func testPipeline() *Pipeline {
	return New(nil, fetch.New(5*time.Second), nil, nil, config.CrawlConfig{NavigateTimeoutSec: 5})
}

func TestPreflightRejectsBadScheme(t *testing.T) {
	p := testPipeline()
	for _, u := range []string{"ftp://clinic.example.kr", "not a url", "", "javascript:alert(1)"} {
		r := models.NewCrawlResult(1, "a", u)
		_, ok := p.preflight(context.Background(), r)
		require.False(t, ok, u)
		require.Equal(t, models.StatusFailed, r.Status)
		require.Equal(t, models.ErrInvalidURL, r.Errors[0].Type)
		require.False(t, r.Errors[0].Retryable)
	}
}

func TestPreflightRobotsBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /\n"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := testPipeline()
	r := models.NewCrawlResult(1, "a", srv.URL+"/")
	_, ok := p.preflight(context.Background(), r)
	require.False(t, ok)
	require.Equal(t, models.StatusRobotsBlocked, r.Status)
	require.Equal(t, models.ErrRobotsBlocked, r.Errors[0].Type)

	// The blocked status survives finalization with nothing extracted.
	Finalize(r, false)
	require.Equal(t, models.StatusRobotsBlocked, r.Status)
	require.False(t, r.HasChannels())
	require.False(t, r.HasDoctors())
}

func TestPreflightAllowsWhenRobotsPermits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /admin/\n"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := testPipeline()
	r := models.NewCrawlResult(1, "a", srv.URL+"/main")
	base, ok := p.preflight(context.Background(), r)
	require.True(t, ok)
	require.Equal(t, srv.URL, base)
	require.Empty(t, r.Errors)
}
