package doctors

import (
	"strings"
	"unicode/utf8"
)

// koreanSurnames is the frozen set of surname syllables a plausible doctor
// name must start with. Covers every surname observed across the clinic
// corpus; intentionally not exhaustive of the national registry.
var koreanSurnames = func() map[rune]struct{} {
	const syllables = "김이박최정강조윤장임한오서신권황안송류전홍고문양손배백허유남심노하곽성차주우구민진지엄채원천방공현함변염여추도소석선설마길연위표명기반왕금옥육인맹제모탁국어은편용예경봉사부"
	set := make(map[rune]struct{}, utf8.RuneCountInString(syllables))
	for _, r := range syllables {
		set[r] = struct{}{}
	}
	return set
}()

// roleWords are staff titles that show up where names are expected.
var roleWords = []string{
	"간호사", "간호조무사", "피부관리사", "상담사", "코디네이터", "스텝", "직원",
}

// brandWords are institutional fragments that disqualify a candidate.
var brandWords = []string{
	"병원", "의원", "클리닉", "외과", "내과", "센터", "학회", "학교", "대학",
	"피부과", "한의원", "약국", "의료원",
}

// nameBlacklist is matched exactly. The tail entries are branch location
// names that render inside roster cards on multi-branch sites.
var nameBlacklist = map[string]struct{}{
	"대표": {}, "멤버": {}, "보유": {}, "학력": {}, "경력": {}, "소개": {},
	"약력": {}, "진료": {}, "예약": {}, "문의": {}, "오시": {},
	"강남": {}, "천호": {}, "송파": {}, "서초": {}, "잠실": {}, "분당": {},
	"일산": {}, "수원": {}, "부산": {}, "대구": {}, "인천": {}, "광주": {},
	"대전": {}, "울산": {}, "홍대": {}, "신촌": {}, "목동": {}, "노원": {},
	"평촌": {}, "안양": {},
}

// truncationSuffixes mark three-syllable fragments cut off mid-word, like
// the leading three syllables of an institution name.
var truncationSuffixes = map[rune]struct{}{
	'의': {}, '과': {}, '에': {}, '적': {}, '대': {}, '는': {}, '여': {},
}

func isHangulSyllable(r rune) bool {
	return r >= 0xAC00 && r <= 0xD7A3
}

// isHangulName reports whether s is 2 or 3 hangul syllables and nothing else.
func isHangulName(s string) bool {
	n := 0
	for _, r := range s {
		if !isHangulSyllable(r) {
			return false
		}
		n++
	}
	return n == 2 || n == 3
}

func hasKnownSurname(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	_, ok := koreanSurnames[r]
	return ok
}

func containsRoleWord(s string) bool {
	for _, w := range roleWords {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func containsBrandWord(s string) bool {
	for _, w := range brandWords {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func isBlacklisted(s string) bool {
	_, ok := nameBlacklist[s]
	return ok
}

// hasTruncationSuffix rejects three-syllable strings ending in a connective
// syllable, like the "경희의" left over when "경희의료원" gets clipped.
func hasTruncationSuffix(s string) bool {
	runes := []rune(s)
	if len(runes) != 3 {
		return false
	}
	_, ok := truncationSuffixes[runes[2]]
	return ok
}

func hasRolePrefix(s string) bool {
	return strings.HasPrefix(s, "원장") || strings.HasPrefix(s, "전문")
}

// IsPlausibleKoreanName is the union of every rejection rule. It is applied
// to every candidate name regardless of which strategy produced it.
func IsPlausibleKoreanName(s string) bool {
	s = strings.TrimSpace(s)
	if !isHangulName(s) {
		return false
	}
	if containsRoleWord(s) || containsBrandWord(s) || isBlacklisted(s) {
		return false
	}
	if !hasKnownSurname(s) {
		return false
	}
	if hasTruncationSuffix(s) || hasRolePrefix(s) {
		return false
	}
	return true
}

// CleanName strips whitespace, including the interior spacing of stylized
// rosters ("김 민 수").
func CleanName(s string) string {
	return strings.Join(strings.Fields(s), "")
}
