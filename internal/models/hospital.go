package models

import "time"

// HospitalStatus is the persisted lifecycle marker of a hospital.
type HospitalStatus string

const (
	StatusPending        HospitalStatus = "pending"
	StatusCrawling       HospitalStatus = "crawling" // transient, reset by RecoverInterrupted
	StatusSuccess        HospitalStatus = "success"
	StatusPartial        HospitalStatus = "partial"
	StatusEmpty          HospitalStatus = "empty"
	StatusFailed         HospitalStatus = "failed"
	StatusRobotsBlocked  HospitalStatus = "robots_blocked"
	StatusRequiresManual HospitalStatus = "requires_manual"
	StatusEncodingError  HospitalStatus = "encoding_error"
	StatusArchived       HospitalStatus = "archived"
)

// TerminalStatuses are not reconsidered on resume.
var TerminalStatuses = []HospitalStatus{StatusSuccess, StatusRobotsBlocked, StatusArchived}

// IsTerminal reports whether a hospital in this status is skipped on resume.
func (s HospitalStatus) IsTerminal() bool {
	for _, t := range TerminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// CMSPlatform tags the site generator, used only for telemetry.
type CMSPlatform string

const (
	CMSImweb     CMSPlatform = "imweb"
	CMSModoo     CMSPlatform = "modoo"
	CMSCafe24    CMSPlatform = "cafe24"
	CMSWordpress CMSPlatform = "wordpress"
	CMSWix       CMSPlatform = "wix"
	CMSGnuboard  CMSPlatform = "gnuboard"
	CMSNextJS    CMSPlatform = "nextjs"
	CMSMobidoc   CMSPlatform = "mobidoc"
	CMSUnknown   CMSPlatform = ""
)

// Hospital is one clinic row keyed by HospitalNo. Inserted on first crawl,
// updated on every subsequent crawl, never deleted.
type Hospital struct {
	HospitalNo       int            `json:"hospital_no"`
	Name             string         `json:"name"`
	URL              string         `json:"url"`
	FinalURL         string         `json:"final_url"`
	Category         string         `json:"category"`
	Phone            string         `json:"phone"`
	Address          string         `json:"address"`
	CMSPlatform      CMSPlatform    `json:"cms_platform"`
	Status           HospitalStatus `json:"status"`
	DoctorPageExists bool           `json:"doctor_page_exists"`
	SchemaVersion    int            `json:"schema_version"`
	CrawledAt        *time.Time     `json:"crawled_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// SchemaVersion is stamped on every row the current code writes.
const SchemaVersion = 2
