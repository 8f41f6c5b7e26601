package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"clinicrawl/internal/models"
)

func channel() models.SocialChannel {
	return models.SocialChannel{
		Platform: models.PlatformKakaoTalk, URL: "https://pf.kakao.com/_abc",
		ExtractionMethod: models.MethodDOMStatic, Confidence: 1.0,
	}
}

func doctor() models.Doctor {
	return models.Doctor{Name: "김민수", Role: "대표원장", ExtractionSource: models.SourceDOM}
}

func TestFinalizeBothPresent(t *testing.T) {
	r := models.NewCrawlResult(1, "a", "https://a.example.kr")
	r.AddChannel(channel())
	r.Doctors = append(r.Doctors, doctor())

	Finalize(r, false)
	require.Equal(t, models.StatusSuccess, r.Status)
	require.True(t, r.DoctorPageFound)
	require.Empty(t, r.Errors)
}

func TestFinalizeChannelsOnlyIsPartial(t *testing.T) {
	r := models.NewCrawlResult(1, "a", "https://a.example.kr")
	r.AddChannel(channel())

	Finalize(r, false)
	require.Equal(t, models.StatusPartial, r.Status)
	require.False(t, r.DoctorPageFound)
	require.Len(t, r.Errors, 1)
	require.Equal(t, models.ErrPartialData, r.Errors[0].Type)
	require.Contains(t, r.Errors[0].Message, "Missing doctors")
}

func TestFinalizeDoctorsOnlyIsPartial(t *testing.T) {
	r := models.NewCrawlResult(1, "a", "https://a.example.kr")
	r.Doctors = append(r.Doctors, doctor())

	Finalize(r, false)
	require.Equal(t, models.StatusPartial, r.Status)
	require.True(t, r.DoctorPageFound)
	require.Contains(t, r.Errors[0].Message, "Missing social channels")
}

func TestFinalizeNeitherIsEmpty(t *testing.T) {
	r := models.NewCrawlResult(1, "a", "https://a.example.kr")
	Finalize(r, false)
	require.Equal(t, models.StatusEmpty, r.Status)
}

func TestFinalizeRespectsEarlierTerminalStatus(t *testing.T) {
	for _, status := range []models.HospitalStatus{
		models.StatusRobotsBlocked,
		models.StatusRequiresManual,
		models.StatusEncodingError,
		models.StatusFailed,
	} {
		r := models.NewCrawlResult(1, "a", "https://a.example.kr")
		r.Status = status
		r.AddChannel(channel())
		r.Doctors = append(r.Doctors, doctor())

		Finalize(r, false)
		require.Equal(t, status, r.Status)
	}
}

func TestFinalizeErrorPageCapsSuccessAtPartial(t *testing.T) {
	r := models.NewCrawlResult(1, "a", "https://a.example.kr")
	r.AddChannel(channel())
	r.Doctors = append(r.Doctors, doctor())
	r.AddError(models.ErrErrorPage, "navigate", "page renders as an error document", true)

	Finalize(r, false)
	require.Equal(t, models.StatusPartial, r.Status)
}

func TestFinalizeDoctorPageFlag(t *testing.T) {
	r := models.NewCrawlResult(1, "a", "https://a.example.kr")
	Finalize(r, true)
	require.True(t, r.DoctorPageFound)
}
