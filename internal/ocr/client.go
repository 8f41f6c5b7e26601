package ocr

import (
	"context"
	"encoding/json"
)

// DoctorRecord is the shape the external tool is asked to return per
// clinician. List fields tolerate a bare string, which the tool emits for
// single-entry biographies.
type DoctorRecord struct {
	Name        string     `json:"name"`
	NameEnglish string     `json:"name_english,omitempty"`
	Role        string     `json:"role,omitempty"`
	Education   StringList `json:"education,omitempty"`
	Career      StringList `json:"career,omitempty"`
	Credentials StringList `json:"credentials,omitempty"`
	PhotoURL    string     `json:"photo_url,omitempty"`
}

// NavResult is the strict JSON contract of the navigation fallback.
type NavResult struct {
	Doctors        []DoctorRecord `json:"doctors"`
	SuggestedPaths []string       `json:"suggested_paths"`
}

// Client abstracts the external vision tool so the extractor can run
// against a test double.
type Client interface {
	// ExtractDoctors OCRs one screenshot into doctor records.
	ExtractDoctors(ctx context.Context, imagePath string) ([]DoctorRecord, error)
	// Navigate asks for doctors visible on the main-page screenshot plus
	// URL paths likely to hold a roster.
	Navigate(ctx context.Context, imagePath string) (*NavResult, error)
}

// StringList accepts both "서울대학교 의과대학 졸업" and a JSON array.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	if one == "" {
		*l = nil
		return nil
	}
	*l = []string{one}
	return nil
}
