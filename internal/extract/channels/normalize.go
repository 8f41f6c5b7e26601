package channels

import (
	"net/url"
	"regexp"
	"strings"
)

// KoreanPhonePattern is the single source of truth for phone numbers found
// in page text: 0 plus one or two digits of area code, then 3-4 and 4 digit
// groups separated by dash, dot or space.
var KoreanPhonePattern = regexp.MustCompile(`(?:0\d{1,2})[-.\s]?\d{3,4}[-.\s]?\d{4}`)

var nonDigits = regexp.MustCompile(`[^\d+]`)

// NormalizeURL canonicalizes a URL for dedup: lowercased host, fragment
// removed, trailing slash stripped on non-root paths. tel:/sms: URIs keep
// digits only. Idempotent: NormalizeURL(NormalizeURL(u)) == NormalizeURL(u).
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "tel:") {
		return "tel:" + normalizePhoneDigits(raw[4:])
	}
	if strings.HasPrefix(lower, "sms:") {
		return "sms:" + normalizePhoneDigits(raw[4:])
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	if u.Path == "/" && u.RawQuery == "" {
		u.Path = ""
	}
	return u.String()
}

// normalizePhoneDigits strips dashes, dots, spaces, parens and leading plus
// noise, keeping digits (and a leading + for international forms).
func normalizePhoneDigits(s string) string {
	s = strings.TrimSpace(s)
	plus := strings.HasPrefix(s, "+")
	digits := nonDigits.ReplaceAllString(s, "")
	digits = strings.ReplaceAll(digits, "+", "")
	if plus {
		return "+" + digits
	}
	return digits
}

// PhoneToTelURI converts a phone-text match to a normalized tel: URI.
func PhoneToTelURI(match string) string {
	return "tel:" + normalizePhoneDigits(match)
}
