package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"clinicrawl/internal/storage"
)

func TestReadCSVSkipsHeaderAndJunk(t *testing.T) {
	input := `hospital_no,name,best_url
1001,강남피부과,https://gangnam.example.kr
1002,송파클리닉,
oops,이상한행,https://x.example.kr
1003,단독이름
`
	records, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, Record{HospitalNo: 1001, Name: "강남피부과", BestURL: "https://gangnam.example.kr"}, records[0])
	require.Equal(t, Record{HospitalNo: 1002, Name: "송파클리닉"}, records[1])
	require.Equal(t, Record{HospitalNo: 1003, Name: "단독이름"}, records[2])
}

func TestReadCSVNoHeader(t *testing.T) {
	records, err := ReadCSV(strings.NewReader("1001,강남피부과,https://gangnam.example.kr\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	listing := filepath.Join(dir, "clinics.csv")
	require.NoError(t, os.WriteFile(listing, []byte(
		"hospital_no,name,best_url\n1001,강남피부과,https://gangnam.example.kr\n1002,송파클리닉,\n"), 0o644))

	store, err := storage.Open(filepath.Join(dir, "clinics.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	inserted, err := LoadFile(ctx, store, listing)
	require.NoError(t, err)
	require.Equal(t, 2, inserted)

	h, err := store.GetByID(ctx, 1001)
	require.NoError(t, err)
	require.Equal(t, "강남피부과", h.Name)
	require.Equal(t, "https://gangnam.example.kr", h.URL)

	// Reloading the same file inserts nothing new.
	inserted, err = LoadFile(ctx, store, listing)
	require.NoError(t, err)
	require.Equal(t, 0, inserted)
}
