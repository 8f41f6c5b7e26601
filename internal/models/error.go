package models

// ErrorType classifies a structured crawl error.
type ErrorType string

const (
	ErrInvalidURL          ErrorType = "invalid_url"
	ErrRobotsBlocked       ErrorType = "robots_blocked"
	ErrTimeout             ErrorType = "timeout"
	ErrNetwork             ErrorType = "network"
	ErrNavigation          ErrorType = "navigation"
	ErrEncoding            ErrorType = "encoding"
	ErrErrorPage           ErrorType = "error_page"
	ErrAntibot             ErrorType = "antibot"
	ErrExtraction          ErrorType = "extraction"
	ErrInfo                ErrorType = "info"
	ErrPartialData         ErrorType = "partial_data"
	ErrAllMethodsExhausted ErrorType = "all_methods_exhausted"
	ErrStorage             ErrorType = "storage_error"
)

// CrawlError is a structured, non-exception error accumulated during one
// crawl. The whole set is wiped and replaced per crawl.
type CrawlError struct {
	HospitalNo int       `json:"hospital_no"`
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Step       string    `json:"step"`
	Retryable  bool      `json:"retryable"`
}

const maxErrorMessageLen = 200

// NewCrawlError builds an error record with the message truncated to the
// persisted cap. The cap counts runes so Korean text is never cut
// mid-character.
func NewCrawlError(hospitalNo int, typ ErrorType, step, message string, retryable bool) CrawlError {
	if runes := []rune(message); len(runes) > maxErrorMessageLen {
		message = string(runes[:maxErrorMessageLen])
	}
	return CrawlError{
		HospitalNo: hospitalNo,
		Type:       typ,
		Message:    message,
		Step:       step,
		Retryable:  retryable,
	}
}
