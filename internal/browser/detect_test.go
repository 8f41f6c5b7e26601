package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"clinicrawl/internal/models"
)

func TestDetectCMSFromHTML(t *testing.T) {
	tests := []struct {
		name string
		html string
		want models.CMSPlatform
	}{
		{"imweb script", `<html><script src="https://cdn.imweb.me/core.js"></script></html>`, models.CMSImweb},
		{"wordpress generator", `<meta name="generator" content="WordPress 6.2">`, models.CMSWordpress},
		{"wordpress assets", `<link href="/wp-content/themes/clinic/style.css">`, models.CMSWordpress},
		{"nextjs", `<script id="__NEXT_DATA__" type="application/json">{}</script>`, models.CMSNextJS},
		{"gnuboard", `<a href="/bbs/board.php?bo_table=notice">notice</a>`, models.CMSGnuboard},
		{"cafe24", `<img src="https://clinic.cafe24img.com/banner.png">`, models.CMSCafe24},
		{"unknown", `<html><body>plain</body></html>`, models.CMSUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DetectCMSFromHTML(tt.html))
		})
	}
}

func TestIsEncodingBroken(t *testing.T) {
	broken := strings.Repeat("�", 60) + strings.Repeat("a", 100)
	require.True(t, IsEncodingBroken(broken))

	// Same ratio but a long page is left alone.
	longPage := strings.Repeat("�", 60) + strings.Repeat("a", 100) + strings.Repeat("나", 500)
	require.False(t, IsEncodingBroken(longPage))

	require.False(t, IsEncodingBroken("피부과 전문의가 진료합니다"))
	require.False(t, IsEncodingBroken(""))
}

func TestHasAntibotChallenge(t *testing.T) {
	require.True(t, HasAntibotChallenge("Just a moment... Checking your browser before accessing"))
	require.True(t, HasAntibotChallenge("Attention Required! | Cloudflare"))
	require.False(t, HasAntibotChallenge("강남 피부과 의원입니다"))

	// Phrase beyond the first 1 KB is ignored.
	padded := strings.Repeat("가", 1100) + " captcha"
	require.False(t, HasAntibotChallenge(padded))
}

func TestSplashHeuristic(t *testing.T) {
	splash := PageStats{
		LinkCount: 2,
		TextLen:   200,
		InternalLinks: []SplashLink{
			{Href: "https://x.example.kr/event", Text: "이벤트"},
			{Href: "https://x.example.kr/main", Text: "피부과 바로가기"},
		},
	}
	require.True(t, splash.IsSplash())
	require.Equal(t, "https://x.example.kr/main", PickSplashLink(splash.InternalLinks))

	full := PageStats{LinkCount: 40, TextLen: 3000, InternalLinks: []SplashLink{{Href: "/a"}}}
	require.False(t, full.IsSplash())

	noLinks := PageStats{LinkCount: 3, TextLen: 100}
	require.False(t, noLinks.IsSplash())
}

func TestPickSplashLinkFallsBackToFirst(t *testing.T) {
	links := []SplashLink{
		{Href: "https://x.example.kr/notice", Text: "공지"},
		{Href: "https://x.example.kr/event", Text: "행사"},
	}
	require.Equal(t, "https://x.example.kr/notice", PickSplashLink(links))
	require.Equal(t, "", PickSplashLink(nil))
}

func TestLooksLikeErrorPage(t *testing.T) {
	require.True(t, LooksLikeErrorPage("404 Not Found - nginx"))
	require.True(t, LooksLikeErrorPage("요청하신 페이지를 찾을 수 없습니다."))
	require.False(t, LooksLikeErrorPage("피부과 진료 안내"))
	require.False(t, LooksLikeErrorPage("   "))
}
