package doctors

import "regexp"

// rolePattern matches clinician titles, longest first so 대표원장 does not
// split into 대표 + 원장.
var rolePattern = regexp.MustCompile(`대표원장|부원장|원장|전문의|의사`)

// medicalKeywordPattern decides whether a page is text-based at all. Fewer
// than two matching text nodes means the roster is baked into images.
var medicalKeywordPattern = regexp.MustCompile(
	`원장|대표원장|부원장|전문의|의사|학력|경력|약력|자격|졸업|수료|대학원|대학교|정회원|학회|인턴|레지던트|수련|피부과`)

// Bio line classifiers for the education/career/credentials split.
var (
	educationPattern   = regexp.MustCompile(`졸업|수료|대학교|대학원|의과대학|학사|석사|박사`)
	careerPattern      = regexp.MustCompile(`근무|역임|인턴|레지던트|수련|전공의|전임의|과장|진료`)
	credentialsPattern = regexp.MustCompile(`자격|면허|정회원|학회|인증|위원`)
)

// Name-adjacent-to-role patterns for the S3 text scan.
var (
	nameThenRolePattern = regexp.MustCompile(`([가-힣]{2,3})\s*(대표원장|부원장|원장|전문의|의사)`)
	roleThenNamePattern = regexp.MustCompile(`(대표원장|부원장|원장|전문의|의사)\s+([가-힣]{2,3})`)
	spacedNamePattern   = regexp.MustCompile(`([가-힣])\s([가-힣])\s?([가-힣])?\s*(대표원장|부원장|원장|전문의|의사)`)
)

// bioKind classifies one biography line.
type bioKind int

const (
	bioNone bioKind = iota
	bioEducation
	bioCareer
	bioCredentials
)

// classifyBioLine buckets a line into education, career or credentials.
// Education wins over career for lines naming a university, credentials win
// over career for society memberships.
func classifyBioLine(line string) bioKind {
	switch {
	case educationPattern.MatchString(line):
		return bioEducation
	case credentialsPattern.MatchString(line):
		return bioCredentials
	case careerPattern.MatchString(line):
		return bioCareer
	default:
		return bioNone
	}
}
