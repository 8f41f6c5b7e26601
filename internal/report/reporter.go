package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"clinicrawl/internal/models"
	"clinicrawl/internal/storage"
)

// Reporter renders crawl progress from the store. Output goes to w, which
// is stdout in the CLI and a buffer in tests.
type Reporter struct {
	store *storage.Store
	w     io.Writer
}

// New builds a reporter.
func New(store *storage.Store, w io.Writer) *Reporter {
	if w == nil {
		w = os.Stdout
	}
	return &Reporter{store: store, w: w}
}

// Summary prints the phase, platform, method and CMS breakdowns plus the
// doctor totals.
func (r *Reporter) Summary(ctx context.Context) error {
	phases, err := r.store.CountByPhase(ctx)
	if err != nil {
		return err
	}
	r.renderCounts("Hospitals by status", "status", phases)

	platforms, err := r.store.CountByPlatform(ctx)
	if err != nil {
		return err
	}
	r.renderCounts("Channels by platform", "platform", platforms)

	methods, err := r.store.CountByMethod(ctx)
	if err != nil {
		return err
	}
	r.renderCounts("Channels by extraction method", "method", methods)

	cms, err := r.store.CountByCMS(ctx)
	if err != nil {
		return err
	}
	r.renderCounts("Hospitals by CMS", "cms", cms)

	total, fromOCR, err := r.store.DoctorCounts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.w, "\nDoctors: %d total, %d via OCR\n", total, fromOCR)
	return nil
}

func (r *Reporter) renderCounts(title, keyHeader string, rows []storage.CountRow) {
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{keyHeader, "count"})
	for _, row := range rows {
		key := row.Key
		if key == "" {
			key = "(none)"
		}
		t.AppendRow(table.Row{key, row.Count})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	fmt.Fprintln(r.w)
}

// Hospital prints one hospital's row, channels, doctors and errors.
func (r *Reporter) Hospital(ctx context.Context, hospitalNo int) error {
	h, err := r.store.GetByID(ctx, hospitalNo)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetTitle(fmt.Sprintf("Hospital %d: %s", h.HospitalNo, h.Name))
	t.AppendRows([]table.Row{
		{"status", string(h.Status)},
		{"url", h.URL},
		{"final_url", h.FinalURL},
		{"cms", string(h.CMSPlatform)},
		{"doctor_page", strconv.FormatBool(h.DoctorPageExists)},
	})
	t.SetStyle(table.StyleLight)
	t.Render()

	channels, err := r.store.GetChannels(ctx, hospitalNo)
	if err != nil {
		return err
	}
	if len(channels) > 0 {
		ct := table.NewWriter()
		ct.SetOutputMirror(r.w)
		ct.AppendHeader(table.Row{"platform", "url", "method", "confidence"})
		for _, ch := range channels {
			ct.AppendRow(table.Row{string(ch.Platform), ch.URL, string(ch.ExtractionMethod), ch.Confidence})
		}
		ct.SetStyle(table.StyleLight)
		ct.Render()
	}

	doctors, err := r.store.GetDoctors(ctx, hospitalNo)
	if err != nil {
		return err
	}
	if len(doctors) > 0 {
		dt := table.NewWriter()
		dt.SetOutputMirror(r.w)
		dt.AppendHeader(table.Row{"name", "role", "source", "ocr", "education"})
		for _, d := range doctors {
			dt.AppendRow(table.Row{d.Name, d.Role, string(d.ExtractionSource), d.OCRSource, strings.Join(d.Education, "; ")})
		}
		dt.SetStyle(table.StyleLight)
		dt.Render()
	}

	errs, err := r.store.GetErrors(ctx, hospitalNo)
	if err != nil {
		return err
	}
	for _, e := range errs {
		fmt.Fprintf(r.w, "error[%s/%s]: %s\n", e.Step, e.Type, e.Message)
	}
	return nil
}

// ExportChannelsCSV writes every persisted channel of every hospital in
// statuses with data.
func ExportChannelsCSV(ctx context.Context, store *storage.Store, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"hospital_no", "platform", "url", "extraction_method", "confidence"}); err != nil {
		return err
	}
	return forEachCrawled(ctx, store, func(h models.Hospital) error {
		channels, err := store.GetChannels(ctx, h.HospitalNo)
		if err != nil {
			return err
		}
		for _, ch := range channels {
			if err := cw.Write([]string{
				strconv.Itoa(ch.HospitalNo),
				string(ch.Platform),
				ch.URL,
				string(ch.ExtractionMethod),
				strconv.FormatFloat(ch.Confidence, 'f', 2, 64),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// ExportDoctorsCSV writes every persisted doctor.
func ExportDoctorsCSV(ctx context.Context, store *storage.Store, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"hospital_no", "name", "name_english", "role", "extraction_source", "ocr_source", "education", "career", "credentials"}); err != nil {
		return err
	}
	return forEachCrawled(ctx, store, func(h models.Hospital) error {
		doctors, err := store.GetDoctors(ctx, h.HospitalNo)
		if err != nil {
			return err
		}
		for _, d := range doctors {
			if err := cw.Write([]string{
				strconv.Itoa(d.HospitalNo),
				d.Name,
				d.NameEnglish,
				d.Role,
				string(d.ExtractionSource),
				strconv.FormatBool(d.OCRSource),
				strings.Join(d.Education, " | "),
				strings.Join(d.Career, " | "),
				strings.Join(d.Credentials, " | "),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// forEachCrawled visits every hospital that holds crawl output.
func forEachCrawled(ctx context.Context, store *storage.Store, fn func(models.Hospital) error) error {
	for _, status := range []models.HospitalStatus{
		models.StatusSuccess, models.StatusPartial, models.StatusEmpty,
		models.StatusFailed, models.StatusRobotsBlocked,
		models.StatusRequiresManual, models.StatusEncodingError,
	} {
		hospitals, err := store.GetByPhase(ctx, status)
		if err != nil {
			return err
		}
		for _, h := range hospitals {
			if err := fn(h); err != nil {
				return err
			}
		}
	}
	return nil
}
