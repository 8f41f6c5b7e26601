package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"clinicrawl/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "clinics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(no int, status models.HospitalStatus) *models.CrawlResult {
	r := models.NewCrawlResult(no, "서울피부과", "https://a.example.kr/")
	r.Status = status
	return r
}

func TestRegisterHospitalsIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	n, err := s.RegisterHospitals(ctx, map[int]string{1: "서울피부과", 2: "강남피부과"})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = s.RegisterHospitals(ctx, map[int]string{1: "서울피부과", 3: "부산피부과"})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	pending, err := s.GetByPhase(ctx, models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 3)
}

func TestSaveResultReplacesChannelsAndErrors(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := sampleResult(10, models.StatusPartial)
	r.AddChannel(models.SocialChannel{
		Platform:         models.PlatformKakaoTalk,
		URL:              "https://pf.kakao.com/_abc/chat",
		ExtractionMethod: models.MethodDOMStatic,
		Confidence:       1.0,
	})
	r.AddError(models.ErrPartialData, "finalize", "Missing doctors", true)
	require.NoError(t, s.SaveResult(ctx, r))

	r2 := sampleResult(10, models.StatusPartial)
	r2.AddChannel(models.SocialChannel{
		Platform:         models.PlatformNaverTalk,
		URL:              "https://talk.naver.com/xyz",
		ExtractionMethod: models.MethodDOMStatic,
		Confidence:       1.0,
	})
	require.NoError(t, s.SaveResult(ctx, r2))

	channels, err := s.GetChannels(ctx, 10)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	require.Equal(t, models.PlatformNaverTalk, channels[0].Platform)
}

func TestSaveResultPreservesSuccessAgainstEmptyRetry(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := sampleResult(20, models.StatusSuccess)
	r.AddChannel(models.SocialChannel{
		Platform: models.PlatformKakaoTalk, URL: "https://pf.kakao.com/_abc",
		ExtractionMethod: models.MethodDOMStatic, Confidence: 1.0,
	})
	r.Doctors = append(r.Doctors, models.Doctor{Name: "김민수", Role: "대표원장", ExtractionSource: models.SourceDOM})
	require.NoError(t, s.SaveResult(ctx, r))

	empty := sampleResult(20, models.StatusEmpty)
	require.NoError(t, s.SaveResult(ctx, empty))

	h, err := s.GetByID(ctx, 20)
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, h.Status)

	channels, err := s.GetChannels(ctx, 20)
	require.NoError(t, err)
	require.Len(t, channels, 1)
}

func TestSaveResultKeepsDoctorsOnEmptyRoster(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := sampleResult(30, models.StatusSuccess)
	r.AddChannel(models.SocialChannel{
		Platform: models.PlatformInstagram, URL: "https://instagram.com/clinic",
		ExtractionMethod: models.MethodDOMStatic, Confidence: 1.0,
	})
	r.Doctors = append(r.Doctors, models.Doctor{Name: "박지훈", Role: "원장", ExtractionSource: models.SourceDOM})
	require.NoError(t, s.SaveResult(ctx, r))

	// Retry found a channel but no doctors: channels replace, roster stays.
	retry := sampleResult(30, models.StatusPartial)
	retry.AddChannel(models.SocialChannel{
		Platform: models.PlatformYouTube, URL: "https://youtube.com/@clinic",
		ExtractionMethod: models.MethodDOMStatic, Confidence: 1.0,
	})
	require.NoError(t, s.SaveResult(ctx, retry))

	doctors, err := s.GetDoctors(ctx, 30)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	require.Equal(t, "박지훈", doctors[0].Name)
}

func TestSaveResultNormalizesToNFC(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	decomposed := norm.NFD.String("김민수")
	r := sampleResult(40, models.StatusSuccess)
	r.AddChannel(models.SocialChannel{
		Platform: models.PlatformKakaoTalk, URL: "https://pf.kakao.com/_x",
		ExtractionMethod: models.MethodDOMStatic, Confidence: 1.0,
	})
	r.Doctors = append(r.Doctors, models.Doctor{Name: decomposed, ExtractionSource: models.SourceDOM})
	require.NoError(t, s.SaveResult(ctx, r))

	doctors, err := s.GetDoctors(ctx, 40)
	require.NoError(t, err)
	require.Equal(t, "김민수", doctors[0].Name)
}

func TestSaveResultPreservesSuccessWhileMarkedCrawling(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := sampleResult(25, models.StatusSuccess)
	r.AddChannel(models.SocialChannel{
		Platform: models.PlatformKakaoTalk, URL: "https://pf.kakao.com/_abc",
		ExtractionMethod: models.MethodDOMStatic, Confidence: 1.0,
	})
	r.Doctors = append(r.Doctors, models.Doctor{Name: "김민수", Role: "대표원장", ExtractionSource: models.SourceDOM})
	require.NoError(t, s.SaveResult(ctx, r))

	// A re-crawl marks the row in progress before saving its (empty) result.
	require.NoError(t, s.MarkCrawling(ctx, 25))
	empty := sampleResult(25, models.StatusEmpty)
	require.NoError(t, s.SaveResult(ctx, empty))

	h, err := s.GetByID(ctx, 25)
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, h.Status)

	channels, err := s.GetChannels(ctx, 25)
	require.NoError(t, err)
	require.Len(t, channels, 1)

	doctors, err := s.GetDoctors(ctx, 25)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
}

func TestRecoverInterrupted(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.RegisterHospitals(ctx, map[int]string{1: "a", 2: "b", 3: "c"})
	require.NoError(t, err)
	require.NoError(t, s.MarkCrawling(ctx, 1))
	require.NoError(t, s.MarkCrawling(ctx, 2))

	n, err := s.RecoverInterrupted(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	pending, err := s.GetByPhase(ctx, models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 3)
}

func TestRecoverInterruptedRestoresPriorPhase(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := sampleResult(50, models.StatusSuccess)
	r.AddChannel(models.SocialChannel{
		Platform: models.PlatformInstagram, URL: "https://instagram.com/clinic",
		ExtractionMethod: models.MethodDOMStatic, Confidence: 1.0,
	})
	require.NoError(t, s.SaveResult(ctx, r))
	_, err := s.RegisterHospitals(ctx, map[int]string{51: "b"})
	require.NoError(t, err)

	require.NoError(t, s.MarkCrawling(ctx, 50))
	require.NoError(t, s.MarkCrawling(ctx, 51))

	n, err := s.RecoverInterrupted(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	h, err := s.GetByID(ctx, 50)
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, h.Status)

	h, err = s.GetByID(ctx, 51)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, h.Status)
}

func TestIsCrawled(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := sampleResult(50, models.StatusRobotsBlocked)
	require.NoError(t, s.SaveResult(ctx, r))

	crawled, err := s.IsCrawled(ctx, 50)
	require.NoError(t, err)
	require.True(t, crawled)

	crawled, err = s.IsCrawled(ctx, 999)
	require.NoError(t, err)
	require.False(t, crawled)

	partial := sampleResult(51, models.StatusPartial)
	require.NoError(t, s.SaveResult(ctx, partial))
	crawled, err = s.IsCrawled(ctx, 51)
	require.NoError(t, err)
	require.False(t, crawled)
}

func TestBatchRollsBackOnError(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Batch(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO hospitals (hospital_no, name) VALUES (77, 'x')`)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.GetByID(ctx, 77)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAggregates(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := sampleResult(60, models.StatusSuccess)
	r.AddChannel(models.SocialChannel{
		Platform: models.PlatformKakaoTalk, URL: "https://pf.kakao.com/_a",
		ExtractionMethod: models.MethodDOMStatic, Confidence: 1.0,
	})
	r.Doctors = append(r.Doctors, models.Doctor{Name: "김민수", ExtractionSource: models.SourceDOM, OCRSource: true})
	require.NoError(t, s.SaveResult(ctx, r))

	byPhase, err := s.CountByPhase(ctx)
	require.NoError(t, err)
	require.Equal(t, []CountRow{{Key: "success", Count: 1}}, byPhase)

	byPlatform, err := s.CountByPlatform(ctx)
	require.NoError(t, err)
	require.Equal(t, []CountRow{{Key: "KakaoTalk", Count: 1}}, byPlatform)

	total, ocr, err := s.DoctorCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, 1, ocr)
}
