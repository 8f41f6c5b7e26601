package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"clinicrawl/internal/logging"
	"clinicrawl/internal/models"
)

// ErrStorage wraps any I/O level failure of a public write.
var ErrStorage = errors.New("storage_error")

// Store is the SQLite-backed persistence layer. WAL journaling plus a 5 s
// busy timeout lets small degrees of concurrent access serialize instead of
// failing.
type Store struct {
	db *sql.DB
}

// Open creates the database file if needed, applies pragmas and the
// idempotent schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: create db dir: %v", ErrStorage, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrStorage, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrStorage, p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: apply schema: %v", ErrStorage, err)
	}

	// Databases created before the in-progress marker kept its own column.
	if _, err := db.Exec(`ALTER TABLE hospitals ADD COLUMN prev_status TEXT NOT NULL DEFAULT ''`); err != nil &&
		!strings.Contains(err.Error(), "duplicate column") {
		db.Close()
		return nil, fmt.Errorf("%w: migrate prev_status: %v", ErrStorage, err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the handle for reporting queries.
func (s *Store) DB() *sql.DB { return s.db }

// nfc normalizes Korean text to NFC before it is stored.
func nfc(str string) string { return norm.NFC.String(str) }

// SaveResult persists one crawl attempt atomically:
//   - hospital row is upserted;
//   - channels and errors are row-replaced;
//   - doctors are replaced only when the new set is non-empty, so an empty
//     retry never wipes a known-good roster;
//   - a hospital already marked success is never overwritten by a crawl that
//     produced zero channels and zero doctors.
func (s *Store) SaveResult(ctx context.Context, result *models.CrawlResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	var rowStatus, markedOver string
	err = tx.QueryRowContext(ctx,
		`SELECT status, prev_status FROM hospitals WHERE hospital_no = ?`, result.HospitalNo,
	).Scan(&rowStatus, &markedOver)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: read status: %v", ErrStorage, err)
	}

	// The in-progress marker displaces the real phase into prev_status;
	// the preservation check must see through it.
	prevStatus := rowStatus
	if rowStatus == string(models.StatusCrawling) && markedOver != "" {
		prevStatus = markedOver
	}

	if prevStatus == string(models.StatusSuccess) && !result.HasChannels() && !result.HasDoctors() {
		logging.Warnf("hospital %d is already success and new crawl is empty, keeping previous data", result.HospitalNo)
		if rowStatus == string(models.StatusCrawling) {
			_, err := tx.ExecContext(ctx, `
				UPDATE hospitals SET status = ?, prev_status = '', updated_at = CURRENT_TIMESTAMP
				WHERE hospital_no = ?`,
				prevStatus, result.HospitalNo,
			)
			if err != nil {
				return fmt.Errorf("%w: restore status: %v", ErrStorage, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("%w: commit: %v", ErrStorage, err)
			}
		}
		return nil
	}

	crawledAt := result.CrawledAt
	if crawledAt.IsZero() {
		crawledAt = time.Now()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO hospitals (hospital_no, name, url, final_url, cms_platform, status, doctor_page_exists, schema_version, crawled_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(hospital_no) DO UPDATE SET
			name = excluded.name,
			url = excluded.url,
			final_url = excluded.final_url,
			cms_platform = excluded.cms_platform,
			status = excluded.status,
			prev_status = '',
			doctor_page_exists = excluded.doctor_page_exists,
			schema_version = excluded.schema_version,
			crawled_at = excluded.crawled_at,
			updated_at = CURRENT_TIMESTAMP`,
		result.HospitalNo, nfc(result.Name), result.URL, result.FinalURL,
		string(result.CMSPlatform), string(result.Status),
		boolToInt(result.DoctorPageFound || result.HasDoctors()),
		models.SchemaVersion, crawledAt,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert hospital: %v", ErrStorage, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM social_channels WHERE hospital_no = ?`, result.HospitalNo); err != nil {
		return fmt.Errorf("%w: clear channels: %v", ErrStorage, err)
	}
	for _, ch := range result.SocialChannels {
		status := ch.Status
		if status == "" {
			status = "active"
		}
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO social_channels (hospital_no, platform, url, extraction_method, confidence, status)
			VALUES (?, ?, ?, ?, ?, ?)`,
			result.HospitalNo, string(ch.Platform), ch.URL, string(ch.ExtractionMethod), ch.Confidence, status,
		)
		if err != nil {
			return fmt.Errorf("%w: insert channel: %v", ErrStorage, err)
		}
	}

	if result.HasDoctors() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM doctors WHERE hospital_no = ?`, result.HospitalNo); err != nil {
			return fmt.Errorf("%w: clear doctors: %v", ErrStorage, err)
		}
		for _, doc := range result.Doctors {
			if err := insertDoctor(ctx, tx, result.HospitalNo, doc); err != nil {
				return err
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM crawl_errors WHERE hospital_no = ?`, result.HospitalNo); err != nil {
		return fmt.Errorf("%w: clear errors: %v", ErrStorage, err)
	}
	for _, ce := range result.Errors {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO crawl_errors (hospital_no, type, message, step, retryable)
			VALUES (?, ?, ?, ?, ?)`,
			result.HospitalNo, string(ce.Type), nfc(ce.Message), ce.Step, boolToInt(ce.Retryable),
		)
		if err != nil {
			return fmt.Errorf("%w: insert error: %v", ErrStorage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStorage, err)
	}
	return nil
}

func insertDoctor(ctx context.Context, tx *sql.Tx, hospitalNo int, doc models.Doctor) error {
	edu, _ := json.Marshal(normList(doc.Education))
	career, _ := json.Marshal(normList(doc.Career))
	creds, _ := json.Marshal(normList(doc.Credentials))
	branches, _ := json.Marshal(normList(doc.Branches))

	_, err := tx.ExecContext(ctx, `
		INSERT INTO doctors (hospital_no, name, name_english, role, photo_url, education_json, career_json, credentials_json, branch, branches_json, extraction_source, ocr_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		hospitalNo, nfc(doc.Name), doc.NameEnglish, nfc(doc.Role), doc.PhotoURL,
		string(edu), string(career), string(creds),
		nfc(doc.Branch), string(branches), string(doc.ExtractionSource), boolToInt(doc.OCRSource),
	)
	if err != nil {
		return fmt.Errorf("%w: insert doctor: %v", ErrStorage, err)
	}
	return nil
}

func normList(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = nfc(s)
	}
	return out
}

// RegisterHospitals bulk-inserts (hospital_no, name) pairs as pending,
// ignoring numbers already present. Commits once.
func (s *Store) RegisterHospitals(ctx context.Context, hospitals map[int]string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	inserted := 0
	for no, name := range hospitals {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO hospitals (hospital_no, name, status) VALUES (?, ?, 'pending')
			ON CONFLICT(hospital_no) DO NOTHING`,
			no, nfc(name),
		)
		if err != nil {
			return 0, fmt.Errorf("%w: register %d: %v", ErrStorage, no, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", ErrStorage, err)
	}
	return inserted, nil
}

// SetURL records the selected best URL for a hospital.
func (s *Store) SetURL(ctx context.Context, hospitalNo int, url string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE hospitals SET url = ?, updated_at = CURRENT_TIMESTAMP WHERE hospital_no = ?`,
		url, hospitalNo,
	)
	if err != nil {
		return fmt.Errorf("%w: set url: %v", ErrStorage, err)
	}
	return nil
}

// MarkCrawling flags a hospital as in progress, parking the current phase in
// prev_status so recovery and the save path can restore it. Marking an
// already-marked row keeps the original parked phase.
func (s *Store) MarkCrawling(ctx context.Context, hospitalNo int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE hospitals
		SET prev_status = CASE WHEN status = ? THEN prev_status ELSE status END,
		    status = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE hospital_no = ?`,
		string(models.StatusCrawling), string(models.StatusCrawling), hospitalNo,
	)
	if err != nil {
		return fmt.Errorf("%w: mark crawling: %v", ErrStorage, err)
	}
	return nil
}

// RecoverInterrupted restores rows stuck in the in-progress phase to the
// phase they held before being marked, falling back to pending for rows
// that never completed a crawl. Returns the number of rows touched.
func (s *Store) RecoverInterrupted(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE hospitals
		SET status = CASE WHEN prev_status = '' THEN ? ELSE prev_status END,
		    prev_status = '',
		    updated_at = CURRENT_TIMESTAMP
		WHERE status = ?`,
		string(models.StatusPending), string(models.StatusCrawling),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: recover: %v", ErrStorage, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// GetByPhase returns hospitals currently in the given phase.
func (s *Store) GetByPhase(ctx context.Context, phase models.HospitalStatus) ([]models.Hospital, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hospital_no, name, url, final_url, category, phone, address, cms_platform, status, doctor_page_exists
		FROM hospitals WHERE status = ? ORDER BY hospital_no`, string(phase))
	if err != nil {
		return nil, fmt.Errorf("%w: get by phase: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []models.Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetByID returns one hospital, or sql.ErrNoRows wrapped when absent.
func (s *Store) GetByID(ctx context.Context, hospitalNo int) (*models.Hospital, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT hospital_no, name, url, final_url, category, phone, address, cms_platform, status, doctor_page_exists
		FROM hospitals WHERE hospital_no = ?`, hospitalNo)
	h, err := scanHospital(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: get by id: %v", ErrStorage, err)
	}
	return &h, nil
}

// IsCrawled reports whether a hospital reached a terminal phase.
func (s *Store) IsCrawled(ctx context.Context, hospitalNo int) (bool, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM hospitals WHERE hospital_no = ?`, hospitalNo,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: is crawled: %v", ErrStorage, err)
	}
	return models.HospitalStatus(status).IsTerminal(), nil
}

// GetChannels returns the persisted channels of a hospital.
func (s *Store) GetChannels(ctx context.Context, hospitalNo int) ([]models.SocialChannel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hospital_no, platform, url, extraction_method, confidence, status
		FROM social_channels WHERE hospital_no = ? ORDER BY id`, hospitalNo)
	if err != nil {
		return nil, fmt.Errorf("%w: get channels: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []models.SocialChannel
	for rows.Next() {
		var ch models.SocialChannel
		var platform, method string
		if err := rows.Scan(&ch.HospitalNo, &platform, &ch.URL, &method, &ch.Confidence, &ch.Status); err != nil {
			return nil, fmt.Errorf("%w: scan channel: %v", ErrStorage, err)
		}
		ch.Platform = models.Platform(platform)
		ch.ExtractionMethod = models.ExtractionMethod(method)
		out = append(out, ch)
	}
	return out, rows.Err()
}

// GetDoctors returns the persisted roster of a hospital.
func (s *Store) GetDoctors(ctx context.Context, hospitalNo int) ([]models.Doctor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hospital_no, name, name_english, role, photo_url, education_json, career_json, credentials_json, branch, branches_json, extraction_source, ocr_source
		FROM doctors WHERE hospital_no = ? ORDER BY id`, hospitalNo)
	if err != nil {
		return nil, fmt.Errorf("%w: get doctors: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []models.Doctor
	for rows.Next() {
		var d models.Doctor
		var edu, career, creds, branches, source string
		var ocr int
		if err := rows.Scan(&d.HospitalNo, &d.Name, &d.NameEnglish, &d.Role, &d.PhotoURL,
			&edu, &career, &creds, &d.Branch, &branches, &source, &ocr); err != nil {
			return nil, fmt.Errorf("%w: scan doctor: %v", ErrStorage, err)
		}
		json.Unmarshal([]byte(edu), &d.Education)
		json.Unmarshal([]byte(career), &d.Career)
		json.Unmarshal([]byte(creds), &d.Credentials)
		json.Unmarshal([]byte(branches), &d.Branches)
		d.ExtractionSource = models.ExtractionSource(source)
		d.OCRSource = ocr != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetErrors returns the crawl errors of a hospital in insertion order.
func (s *Store) GetErrors(ctx context.Context, hospitalNo int) ([]models.CrawlError, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hospital_no, type, message, step, retryable
		FROM crawl_errors WHERE hospital_no = ? ORDER BY id`, hospitalNo)
	if err != nil {
		return nil, fmt.Errorf("%w: get errors: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []models.CrawlError
	for rows.Next() {
		var ce models.CrawlError
		var typ string
		var retryable int
		if err := rows.Scan(&ce.HospitalNo, &typ, &ce.Message, &ce.Step, &retryable); err != nil {
			return nil, fmt.Errorf("%w: scan error: %v", ErrStorage, err)
		}
		ce.Type = models.ErrorType(typ)
		ce.Retryable = retryable != 0
		out = append(out, ce)
	}
	return out, rows.Err()
}

// Batch runs fn inside a single transaction so callers can amortize commits
// over many writes. On error the transaction rolls back.
func (s *Store) Batch(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStorage, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHospital(row rowScanner) (models.Hospital, error) {
	var h models.Hospital
	var cms, status string
	var doctorPage int
	err := row.Scan(&h.HospitalNo, &h.Name, &h.URL, &h.FinalURL, &h.Category,
		&h.Phone, &h.Address, &cms, &status, &doctorPage)
	if err != nil {
		return h, err
	}
	h.CMSPlatform = models.CMSPlatform(cms)
	h.Status = models.HospitalStatus(status)
	h.DoctorPageExists = doctorPage != 0
	return h, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
