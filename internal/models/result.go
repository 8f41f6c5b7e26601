package models

import "time"

// CrawlResult accumulates everything one crawl attempt observed about a
// hospital. It is owned exclusively by the pipeline step currently running.
type CrawlResult struct {
	HospitalNo      int             `json:"hospital_no"`
	Name            string          `json:"name"`
	URL             string          `json:"url"`
	FinalURL        string          `json:"final_url"`
	CMSPlatform     CMSPlatform     `json:"cms_platform"`
	Status          HospitalStatus  `json:"status"`
	SocialChannels  []SocialChannel `json:"social_channels"`
	Doctors         []Doctor        `json:"doctors"`
	Errors          []CrawlError    `json:"errors"`
	DoctorPageFound bool            `json:"doctor_page_found"`
	CrawledAt       time.Time       `json:"crawled_at"`
}

// NewCrawlResult seeds a result in pending state.
func NewCrawlResult(hospitalNo int, name, url string) *CrawlResult {
	return &CrawlResult{
		HospitalNo: hospitalNo,
		Name:       name,
		URL:        url,
		FinalURL:   url,
		Status:     StatusPending,
	}
}

// AddError appends a structured, truncated error record.
func (r *CrawlResult) AddError(typ ErrorType, step, message string, retryable bool) {
	r.Errors = append(r.Errors, NewCrawlError(r.HospitalNo, typ, step, message, retryable))
}

// AddChannel appends a channel, skipping URLs already present.
func (r *CrawlResult) AddChannel(ch SocialChannel) bool {
	for _, existing := range r.SocialChannels {
		if existing.URL == ch.URL {
			return false
		}
	}
	ch.HospitalNo = r.HospitalNo
	r.SocialChannels = append(r.SocialChannels, ch)
	return true
}

// HasChannels reports whether at least one channel was extracted.
func (r *CrawlResult) HasChannels() bool { return len(r.SocialChannels) > 0 }

// HasDoctors reports whether at least one doctor was extracted.
func (r *CrawlResult) HasDoctors() bool { return len(r.Doctors) > 0 }
