package report

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"clinicrawl/internal/models"
	"clinicrawl/internal/storage"
)

func seededStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "clinics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	result := models.NewCrawlResult(1001, "강남피부과", "https://gangnam.example.kr")
	result.Status = models.StatusSuccess
	result.AddChannel(models.SocialChannel{
		Platform: models.PlatformKakaoTalk, URL: "https://pf.kakao.com/_abc",
		ExtractionMethod: models.MethodDOMStatic, Confidence: 1.0,
	})
	result.Doctors = append(result.Doctors, models.Doctor{
		Name: "김민수", Role: "대표원장",
		Education:        []string{"서울대학교 의과대학 졸업"},
		ExtractionSource: models.SourceDOM,
	})
	require.NoError(t, store.SaveResult(ctx, result))
	return store
}

func TestSummaryRenders(t *testing.T) {
	store := seededStore(t)
	var buf bytes.Buffer

	require.NoError(t, New(store, &buf).Summary(context.Background()))
	out := buf.String()
	require.Contains(t, out, "success")
	require.Contains(t, out, "KakaoTalk")
	require.Contains(t, out, "dom_static")
	require.Contains(t, out, "Doctors: 1 total, 0 via OCR")
}

func TestHospitalDetailRenders(t *testing.T) {
	store := seededStore(t)
	var buf bytes.Buffer

	require.NoError(t, New(store, &buf).Hospital(context.Background(), 1001))
	out := buf.String()
	require.Contains(t, out, "강남피부과")
	require.Contains(t, out, "pf.kakao.com")
	require.Contains(t, out, "김민수")
}

func TestExportCSV(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	var channels bytes.Buffer
	require.NoError(t, ExportChannelsCSV(ctx, store, &channels))
	require.Contains(t, channels.String(), "1001,KakaoTalk,https://pf.kakao.com/_abc,dom_static,1.00")

	var doctors bytes.Buffer
	require.NoError(t, ExportDoctorsCSV(ctx, store, &doctors))
	require.Contains(t, doctors.String(), "1001,김민수")
	require.Contains(t, doctors.String(), "서울대학교 의과대학 졸업")
}
