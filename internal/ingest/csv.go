package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"clinicrawl/internal/logging"
	"clinicrawl/internal/storage"
)

// Record is one clinic from the input listing.
type Record struct {
	HospitalNo int
	Name       string
	BestURL    string
}

// ReadCSV parses a hospital_no,name,best_url listing. A header row is
// detected by a non-numeric first column and skipped. Rows with a bad
// number or an empty name are skipped with a warning, not fatal; source
// listings are hand-maintained.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records []Record
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv parse: %w", err)
		}
		line++
		if len(row) < 2 {
			logging.Warnf("csv line %d: want at least hospital_no,name, got %d fields", line, len(row))
			continue
		}

		no, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			if line == 1 {
				continue // header
			}
			logging.Warnf("csv line %d: bad hospital_no %q", line, row[0])
			continue
		}
		name := strings.TrimSpace(row[1])
		if name == "" {
			logging.Warnf("csv line %d: empty name", line)
			continue
		}

		rec := Record{HospitalNo: no, Name: name}
		if len(row) > 2 {
			rec.BestURL = strings.TrimSpace(row[2])
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadFile registers every record in the store and sets the best URL where
// one is present. Returns how many hospitals were newly inserted.
func LoadFile(ctx context.Context, store *storage.Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open listing: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return 0, err
	}

	hospitals := make(map[int]string, len(records))
	for _, rec := range records {
		hospitals[rec.HospitalNo] = rec.Name
	}
	inserted, err := store.RegisterHospitals(ctx, hospitals)
	if err != nil {
		return 0, err
	}

	for _, rec := range records {
		if rec.BestURL == "" {
			continue
		}
		if err := store.SetURL(ctx, rec.HospitalNo, rec.BestURL); err != nil {
			return inserted, err
		}
	}

	logging.Infof("loaded %d records from %s (%d new)", len(records), path, inserted)
	return inserted, nil
}
