package models

// ExtractionSource records which strategy produced a doctor record.
// The source boundary (DOM vs OCR vs AI-suggested navigation) is modeled
// explicitly so downstream consumers can filter by provenance.
type ExtractionSource string

const (
	SourceDOM        ExtractionSource = "dom"
	SourceDOMText    ExtractionSource = "dom_text"
	SourceDOMHeading ExtractionSource = "dom_heading"
	SourceAINav      ExtractionSource = "ai_nav"
)

// Doctor is one clinician on a hospital's roster.
type Doctor struct {
	HospitalNo       int              `json:"hospital_no"`
	Name             string           `json:"name"`
	NameEnglish      string           `json:"name_english,omitempty"`
	Role             string           `json:"role,omitempty"`
	PhotoURL         string           `json:"photo_url,omitempty"`
	Education        []string         `json:"education,omitempty"`
	Career           []string         `json:"career,omitempty"`
	Credentials      []string         `json:"credentials,omitempty"`
	Branch           string           `json:"branch,omitempty"`
	Branches         []string         `json:"branches,omitempty"`
	ExtractionSource ExtractionSource `json:"extraction_source"`
	OCRSource        bool             `json:"ocr_source"`
}

// Merge folds other into d, keeping the best-filled record. Lists are
// unioned preserving order; the source is upgraded from dom_text to dom when
// the other record carries it.
func (d *Doctor) Merge(other Doctor) {
	if d.PhotoURL == "" {
		d.PhotoURL = other.PhotoURL
	}
	if d.Role == "" {
		d.Role = other.Role
	}
	if d.NameEnglish == "" {
		d.NameEnglish = other.NameEnglish
	}
	d.Education = unionStrings(d.Education, other.Education)
	d.Career = unionStrings(d.Career, other.Career)
	d.Credentials = unionStrings(d.Credentials, other.Credentials)
	if d.ExtractionSource == SourceDOMText && other.ExtractionSource == SourceDOM {
		d.ExtractionSource = SourceDOM
	}
	if other.OCRSource {
		d.OCRSource = true
	}
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
