package channels

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase host", "https://PF.Kakao.com/_abc", "https://pf.kakao.com/_abc"},
		{"strip fragment", "https://blog.naver.com/clinic#posts", "https://blog.naver.com/clinic"},
		{"trailing slash", "https://blog.naver.com/clinic/", "https://blog.naver.com/clinic"},
		{"root slash dropped", "https://pf.kakao.com/", "https://pf.kakao.com"},
		{"query preserved", "https://booking.naver.com/booking?id=5", "https://booking.naver.com/booking?id=5"},
		{"tel digits only", "tel:02-1234-5678", "tel:0212345678"},
		{"tel with spaces", "tel: 010 1234 5678", "tel:01012345678"},
		{"sms digits only", "sms:010-1234-5678", "sms:01012345678"},
		{"whitespace trimmed", "  https://pf.kakao.com/_abc  ", "https://pf.kakao.com/_abc"},
		{"relative passthrough", "/consult", "/consult"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeURL(tt.in))
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	for _, u := range []string{
		"https://PF.Kakao.com/_abc/#x",
		"tel:02-1234-5678",
		"https://blog.naver.com/clinic/",
	} {
		once := NormalizeURL(u)
		require.Equal(t, once, NormalizeURL(once))
	}
}

func TestKoreanPhonePattern(t *testing.T) {
	matches := KoreanPhonePattern.FindAllString(
		"진료문의 02-1234-5678 / 010.9876.5432 또는 031-123-4567", -1)
	require.Equal(t, []string{"02-1234-5678", "010.9876.5432", "031-123-4567"}, matches)

	require.Empty(t, KoreanPhonePattern.FindAllString("사업자번호 123-45-67890", -1))
}

func TestPhoneToTelURI(t *testing.T) {
	require.Equal(t, "tel:0212345678", PhoneToTelURI("02-1234-5678"))
	require.Equal(t, "tel:01098765432", PhoneToTelURI("010.9876.5432"))
}
