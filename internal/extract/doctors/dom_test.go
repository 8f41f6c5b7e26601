package doctors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"clinicrawl/internal/models"
	"clinicrawl/internal/ocr"
)

func TestParseCardsSingleDoctor(t *testing.T) {
	cards := []cardInfo{{
		Text:  "김민수 대표원장\n서울대학교 의과대학 졸업\n삼성서울병원 레지던트 수련\n대한피부과학회 정회원",
		Photo: "https://c.example.kr/img/kim.jpg",
	}}

	got := parseCards(cards, models.SourceDOM)
	require.Len(t, got, 1)
	d := got[0]
	require.Equal(t, "김민수", d.Name)
	require.Equal(t, "대표원장", d.Role)
	require.Equal(t, "https://c.example.kr/img/kim.jpg", d.PhotoURL)
	require.Equal(t, []string{"서울대학교 의과대학 졸업"}, d.Education)
	require.Equal(t, []string{"삼성서울병원 레지던트 수련"}, d.Career)
	require.Equal(t, []string{"대한피부과학회 정회원"}, d.Credentials)
	require.Equal(t, models.SourceDOM, d.ExtractionSource)
	require.False(t, d.OCRSource)
}

func TestParseCardsMultiNameSkipsBioAttribution(t *testing.T) {
	cards := []cardInfo{{
		Text: "김민수 원장 박지훈 원장\n서울대학교 의과대학 졸업",
	}}

	got := parseCards(cards, models.SourceDOM)
	require.Len(t, got, 2)
	require.Empty(t, got[0].Education)
	require.Empty(t, got[1].Education)
}

func TestParseCardsRejectsInvalidNames(t *testing.T) {
	cards := []cardInfo{
		{Text: "경희의 원장"},
		{Text: "간호사 원장"},
		{Text: "진료시간 안내"},
	}
	require.Empty(t, parseCards(cards, models.SourceDOM))
}

func TestScanTextFindsRoleAdjacentNames(t *testing.T) {
	text := "인사말\n박지훈 원장\n연세대학교 의과대학 졸업\n강남성모병원 인턴 수련\n대한의사협회 정회원\n" +
		strings.Repeat("진료 안내 텍스트 ", 10)

	got := scanText(text)
	require.Len(t, got, 1)
	d := got[0]
	require.Equal(t, "박지훈", d.Name)
	require.Equal(t, "원장", d.Role)
	require.Equal(t, models.SourceDOMText, d.ExtractionSource)
	require.Contains(t, d.Education, "연세대학교 의과대학 졸업")
	require.Contains(t, d.Career, "강남성모병원 인턴 수련")
	require.Contains(t, d.Credentials, "대한의사협회 정회원")
}

func TestScanTextSpacedName(t *testing.T) {
	got := scanText("의료진 안내: 김 민 수 대표원장")
	require.Len(t, got, 1)
	require.Equal(t, "김민수", got[0].Name)
	require.Equal(t, "대표원장", got[0].Role)
}

func TestScanTextRoleThenName(t *testing.T) {
	got := scanText("원장 이영희 진료과목 피부과")
	require.Len(t, got, 1)
	require.Equal(t, "이영희", got[0].Name)
}

func TestParseHeadingsRequiresRoleInContainer(t *testing.T) {
	headings := []headingInfo{
		{Text: "김민수", ContainerText: "김민수 대표원장 피부과 전문의", Photo: "p.jpg"},
		{Text: "박지훈", ContainerText: "박지훈의 추천 시술"},
		{Text: "강남", ContainerText: "강남 원장 추천"},
	}

	got := parseHeadings(headings)
	require.Len(t, got, 1)
	require.Equal(t, "김민수", got[0].Name)
	require.Equal(t, "대표원장", got[0].Role)
	require.Equal(t, "p.jpg", got[0].PhotoURL)
	require.Equal(t, models.SourceDOMHeading, got[0].ExtractionSource)
}

func TestMergeDoctorsKeepsBestFilled(t *testing.T) {
	s1 := []models.Doctor{{
		Name: "김민수", Role: "대표원장", ExtractionSource: models.SourceDOM,
		Education: []string{"서울대학교 의과대학 졸업"},
	}}
	s3 := []models.Doctor{{
		Name: "김민수", ExtractionSource: models.SourceDOMText,
		PhotoURL:  "kim.jpg",
		Education: []string{"서울대학교 의과대학 졸업", "동 대학원 석사"},
	}, {
		Name: "박지훈", Role: "원장", ExtractionSource: models.SourceDOMText,
	}}

	got := mergeDoctors(s1, s3)
	require.Len(t, got, 2)
	require.Equal(t, "김민수", got[0].Name)
	require.Equal(t, "kim.jpg", got[0].PhotoURL)
	require.Equal(t, models.SourceDOM, got[0].ExtractionSource)
	require.Equal(t, []string{"서울대학교 의과대학 졸업", "동 대학원 석사"}, got[0].Education)
	require.Equal(t, "박지훈", got[1].Name)
}

func TestMergeDoctorsUpgradesTextSource(t *testing.T) {
	s3 := []models.Doctor{{Name: "김민수", ExtractionSource: models.SourceDOMText}}
	s1Again := []models.Doctor{{Name: "김민수", ExtractionSource: models.SourceDOM}}

	got := mergeDoctors(s3, s1Again)
	require.Len(t, got, 1)
	require.Equal(t, models.SourceDOM, got[0].ExtractionSource)
}

func TestValidateOCRRecords(t *testing.T) {
	records := []ocr.DoctorRecord{
		{Name: "박지훈", Role: "원장", Education: ocr.StringList{"고려대학교 의과대학 졸업"}},
		{Name: "경희의", Role: "원장"},
		{Name: "박지훈", Role: "중복"},
	}

	got := ValidateOCRRecords(records)
	require.Len(t, got, 1)
	require.Equal(t, "박지훈", got[0].Name)
	require.True(t, got[0].OCRSource)
	require.Equal(t, models.SourceDOM, got[0].ExtractionSource)
	require.Equal(t, []string{"고려대학교 의과대학 졸업"}, got[0].Education)
}

func TestJoinPath(t *testing.T) {
	require.Equal(t, "https://c.example.kr/doctor", joinPath("https://c.example.kr/", "/doctor"))
	require.Equal(t, "https://c.example.kr/doctor", joinPath("https://c.example.kr", "doctor"))
}
