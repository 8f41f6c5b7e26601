package storage

import (
	"context"
	"fmt"
)

// CountRow is one aggregate bucket.
type CountRow struct {
	Key   string
	Count int
}

func (s *Store) countBy(ctx context.Context, query string) ([]CountRow, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregate: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []CountRow
	for rows.Next() {
		var r CountRow
		if err := rows.Scan(&r.Key, &r.Count); err != nil {
			return nil, fmt.Errorf("%w: scan aggregate: %v", ErrStorage, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountByPhase aggregates hospitals per status.
func (s *Store) CountByPhase(ctx context.Context) ([]CountRow, error) {
	return s.countBy(ctx, `SELECT status, COUNT(*) FROM hospitals GROUP BY status ORDER BY COUNT(*) DESC`)
}

// CountByCategory aggregates hospitals per category.
func (s *Store) CountByCategory(ctx context.Context) ([]CountRow, error) {
	return s.countBy(ctx, `SELECT COALESCE(NULLIF(category, ''), '(none)'), COUNT(*) FROM hospitals GROUP BY category ORDER BY COUNT(*) DESC`)
}

// CountByPlatform aggregates channels per platform.
func (s *Store) CountByPlatform(ctx context.Context) ([]CountRow, error) {
	return s.countBy(ctx, `SELECT platform, COUNT(*) FROM social_channels GROUP BY platform ORDER BY COUNT(*) DESC`)
}

// CountByMethod aggregates channels per extraction method.
func (s *Store) CountByMethod(ctx context.Context) ([]CountRow, error) {
	return s.countBy(ctx, `SELECT extraction_method, COUNT(*) FROM social_channels GROUP BY extraction_method ORDER BY COUNT(*) DESC`)
}

// CountByCMS aggregates hospitals per detected CMS platform.
func (s *Store) CountByCMS(ctx context.Context) ([]CountRow, error) {
	return s.countBy(ctx, `SELECT COALESCE(NULLIF(cms_platform, ''), '(unknown)'), COUNT(*) FROM hospitals GROUP BY cms_platform ORDER BY COUNT(*) DESC`)
}

// DoctorCounts returns totals split by OCR provenance.
func (s *Store) DoctorCounts(ctx context.Context) (total, fromOCR int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(ocr_source), 0) FROM doctors`,
	).Scan(&total, &fromOCR)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: doctor counts: %v", ErrStorage, err)
	}
	return total, fromOCR, nil
}
