package channels

import (
	"regexp"

	"clinicrawl/internal/models"
)

// platformRule maps a URL pattern to a platform tag. Rules are evaluated in
// order; the first match wins, so more specific messenger endpoints must
// appear before their parent platforms (m.me before facebook.com).
type platformRule struct {
	platform models.Platform
	pattern  *regexp.Regexp
}

var platformRules = []platformRule{
	{models.PlatformKakaoTalk, regexp.MustCompile(`(?i)pf\.kakao\.com|open\.kakao\.com/o|talk\.kakao\.com|kakao\.com/channel`)},
	{models.PlatformNaverTalk, regexp.MustCompile(`(?i)talk\.naver\.com/`)},
	{models.PlatformNaverShortlink, regexp.MustCompile(`(?i)naver\.me/`)},
	{models.PlatformLine, regexp.MustCompile(`(?i)line\.me/|lin\.ee/`)},
	{models.PlatformTelegram, regexp.MustCompile(`(?i)t\.me/[^/]+$`)},
	{models.PlatformWeChat, regexp.MustCompile(`(?i)u\.wechat\.com|weixin\.qq\.com`)},
	{models.PlatformWhatsApp, regexp.MustCompile(`(?i)wa\.me/|api\.whatsapp\.com`)},
	{models.PlatformNaverBooking, regexp.MustCompile(`(?i)booking\.naver\.com`)},
	{models.PlatformNaverBlog, regexp.MustCompile(`(?i)blog\.naver\.com/`)},
	{models.PlatformNaverCafe, regexp.MustCompile(`(?i)cafe\.naver\.com/`)},
	{models.PlatformInstagram, regexp.MustCompile(`(?i)instagram\.com/`)},
	{models.PlatformYouTube, regexp.MustCompile(`(?i)youtube\.com/|youtu\.be/`)},
	{models.PlatformFacebookMessenger, regexp.MustCompile(`(?i)m\.me/`)},
	{models.PlatformFacebook, regexp.MustCompile(`(?i)facebook\.com/`)},
	{models.PlatformPhone, regexp.MustCompile(`^tel:`)},
	{models.PlatformSMS, regexp.MustCompile(`^sms:`)},
}

// youtubeVideoPattern matches video permalinks, which are dropped so only
// channel-level YouTube URLs survive.
var youtubeVideoPattern = regexp.MustCompile(`(?i)youtube\.com/(embed|watch|shorts)[/?]|youtu\.be/`)

// knownSocialHost matches any URL already pointing at a classified platform,
// used by the redirect-follow pass to skip direct links.
func isKnownSocialURL(url string) bool {
	p, ok := Classify(url)
	return ok && p != models.PlatformPhone && p != models.PlatformSMS
}

// Classify returns the first matching platform for a normalized URL, or
// false when the URL maps to no platform in the taxonomy.
func Classify(url string) (models.Platform, bool) {
	if url == "" {
		return "", false
	}
	for _, rule := range platformRules {
		if rule.pattern.MatchString(url) {
			if rule.platform == models.PlatformYouTube && youtubeVideoPattern.MatchString(url) {
				return "", false
			}
			return rule.platform, true
		}
	}
	return "", false
}
