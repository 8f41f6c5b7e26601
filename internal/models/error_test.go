package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestNewCrawlErrorTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("접속 시간 초과 ", 60)
	ce := NewCrawlError(1, ErrTimeout, "navigate", long, true)

	require.Equal(t, maxErrorMessageLen, utf8.RuneCountInString(ce.Message))
	require.True(t, utf8.ValidString(ce.Message))
}

func TestNewCrawlErrorKeepsShortMessages(t *testing.T) {
	ce := NewCrawlError(1, ErrNetwork, "navigate", "connection refused", true)
	require.Equal(t, "connection refused", ce.Message)
}
