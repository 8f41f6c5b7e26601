package doctors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsPlausibleKoreanNameAccepts(t *testing.T) {
	for _, name := range []string{"김민수", "박지훈", "이영희", "최준", "한가영"} {
		require.True(t, IsPlausibleKoreanName(name), name)
	}
}

func TestNameLengthBounds(t *testing.T) {
	require.False(t, IsPlausibleKoreanName("김"))
	require.False(t, IsPlausibleKoreanName("김민수진"))
	require.False(t, IsPlausibleKoreanName(""))
}

func TestNameRejectsNonHangul(t *testing.T) {
	require.False(t, IsPlausibleKoreanName("Kim"))
	require.False(t, IsPlausibleKoreanName("김M수"))

	// Leading/trailing whitespace is trimmed before validation.
	require.True(t, IsPlausibleKoreanName(" 김민수 "))
}

func TestNameRejectsRoleAndBrandWords(t *testing.T) {
	for _, s := range []string{"간호사", "상담사", "직원", "피부과", "한의원"} {
		require.False(t, IsPlausibleKoreanName(s), s)
	}
}

func TestNameRejectsBlacklistAndBranches(t *testing.T) {
	for _, s := range []string{"대표", "학력", "경력", "소개", "강남", "송파", "천호"} {
		require.False(t, IsPlausibleKoreanName(s), s)
	}
}

func TestNameRequiresKnownSurname(t *testing.T) {
	// 똑 is not a surname.
	require.False(t, IsPlausibleKoreanName("똑민수"))
}

func TestTruncationSuffixRejected(t *testing.T) {
	// Institutional fragments clipped to three syllables.
	for _, s := range []string{"경희의", "서울대", "고려대"} {
		require.False(t, IsPlausibleKoreanName(s), s)
	}
	// Two-syllable names never trip the rule.
	require.True(t, IsPlausibleKoreanName("김대"))
}

func TestRolePrefixRejected(t *testing.T) {
	require.False(t, IsPlausibleKoreanName("원장님"))
	require.False(t, IsPlausibleKoreanName("전문의"))
}

func TestValidationIdempotent(t *testing.T) {
	for _, s := range []string{"김민수", "경희의", "원장님", "간호사"} {
		require.Equal(t, IsPlausibleKoreanName(s), IsPlausibleKoreanName(s))
	}
}

func TestCleanName(t *testing.T) {
	require.Equal(t, "김민수", CleanName("김 민 수"))
	require.Equal(t, "김민수", CleanName("  김민수\n"))
}
