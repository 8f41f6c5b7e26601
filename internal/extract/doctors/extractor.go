package doctors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"clinicrawl/internal/browser"
	"clinicrawl/internal/extract/channels"
	"clinicrawl/internal/fetch"
	"clinicrawl/internal/logging"
	"clinicrawl/internal/models"
	"clinicrawl/internal/ocr"
)

const (
	candidateNavTimeout = 15 * time.Second
	lazyScrollCount     = 10
	lazyScrollTimeout   = 20 * time.Second
	tabClickPattern     = `의료진|원장|전문의|대표|doctor|staff|소개`
	minTextNodes        = 2
	maxIntroDives       = 3
	maxSuggestedPaths   = 3
	sitemapFetchLimit   = 200
)

// Options tunes the screenshot and OCR behavior.
type Options struct {
	ScreenshotQuality int
	DebugDir          string
	MaxOCRChunks      int
}

// Extractor discovers doctor pages and harvests rosters. OCR and the
// channel extractor are optional; without an OCR client the image-based
// tiers are skipped.
type Extractor struct {
	ocr      ocr.Client
	fetcher  *fetch.Client
	channels *channels.Extractor
	opts     Options
}

// New builds a doctor extractor.
func New(ocrClient ocr.Client, fetcher *fetch.Client, ch *channels.Extractor, opts Options) *Extractor {
	if opts.ScreenshotQuality == 0 {
		opts.ScreenshotQuality = 85
	}
	if opts.MaxOCRChunks == 0 {
		opts.MaxOCRChunks = 8
	}
	return &Extractor{ocr: ocrClient, fetcher: fetcher, channels: ch, opts: opts}
}

// Extract runs both phases against the hospital whose main page is already
// loaded in agent. It appends validated doctors to result and reports
// whether a dedicated doctor page was reached.
func (e *Extractor) Extract(ctx context.Context, agent *browser.Agent, result *models.CrawlResult, baseURL string) bool {
	tmpDir, err := os.MkdirTemp("", fmt.Sprintf("clinicrawl-%d-", result.HospitalNo))
	if err != nil {
		result.AddError(models.ErrExtraction, "doctor_extract", fmt.Sprintf("temp dir: %v", err), true)
		return false
	}
	defer os.RemoveAll(tmpDir)

	cands := e.collectCandidates(ctx, agent, result, baseURL)
	logging.Debugf("hospital %d: %d doctor page candidates", result.HospitalNo, len(cands))

	pageFound := false
	lastShot := ""
	tried := map[string]struct{}{}

	visit := func(candidate string) bool {
		tried[candidate] = struct{}{}
		if _, err := agent.Goto(ctx, candidate, candidateNavTimeout); err != nil {
			logging.Debugf("candidate %s unreachable: %v", candidate, err)
			return false
		}
		if candidate != baseURL {
			pageFound = true
		}
		agent.ScrollToBottom(ctx, lazyScrollCount, lazyScrollTimeout)
		if err := agent.Page().ClickByText(tabClickPattern); err == nil {
			time.Sleep(500 * time.Millisecond)
		}

		if e.isImageBased(agent) {
			shot := filepath.Join(tmpDir, fmt.Sprintf("page_%d.jpg", len(tried)))
			if err := agent.ScreenshotFullpage(shot, e.opts.ScreenshotQuality); err != nil {
				result.AddError(models.ErrExtraction, "doctor_extract", fmt.Sprintf("screenshot: %v", err), true)
				return false
			}
			lastShot = shot
			return e.appendOCR(ctx, result, shot)
		}

		found := e.extractFromPage(agent)
		if len(found) > 0 {
			result.Doctors = append(result.Doctors, stamp(found, result.HospitalNo)...)
			return true
		}

		// One Tier B pass when the DOM strategies all came up empty.
		shot := filepath.Join(tmpDir, fmt.Sprintf("page_%d.jpg", len(tried)))
		if err := agent.ScreenshotFullpage(shot, e.opts.ScreenshotQuality); err == nil {
			lastShot = shot
			return e.appendOCR(ctx, result, shot)
		}
		return false
	}

	for _, candidate := range cands {
		if visit(candidate) {
			break
		}
	}

	if !result.HasDoctors() && lastShot != "" {
		if !e.appendOCR(ctx, result, lastShot) {
			e.chunkOCR(ctx, agent, result, tmpDir)
		}
	}

	if !result.HasDoctors() {
		lastShot = e.aiNavigate(ctx, agent, result, baseURL, tmpDir, tried, visit, lastShot)
	}

	if !result.HasDoctors() {
		e.preserveDebugShot(result, lastShot)
		result.AddError(models.ErrAllMethodsExhausted, "doctor_extract",
			"no doctors found by DOM, OCR or navigation fallback", true)
	}

	return pageFound || result.HasDoctors()
}

// collectCandidates runs phase 1: menu scan, intro dive, sitemap scan, main
// page fallback.
func (e *Extractor) collectCandidates(ctx context.Context, agent *browser.Agent, result *models.CrawlResult, baseURL string) []string {
	links := e.menuLinks(agent)
	menuCands := RankMenuCandidates(links, baseURL)

	var introCands []string
	intros := IntroLinks(links)
	if len(intros) > maxIntroDives {
		intros = intros[:maxIntroDives]
	}
	for _, intro := range intros {
		if _, err := agent.Goto(ctx, intro, candidateNavTimeout); err != nil {
			continue
		}
		if e.channels != nil && !result.HasChannels() {
			e.channels.StaticPass(ctx, agent.Page(), result, models.MethodSubpageScan)
		}
		introCands = append(introCands, intro)
		introCands = append(introCands, RankMenuCandidates(e.menuLinks(agent), intro)...)
	}

	var sitemapCands []string
	if e.fetcher != nil {
		sitemapCands = FilterSitemapCandidates(e.fetcher.SitemapURLs(ctx, baseURL, sitemapFetchLimit))
	}

	return mergeCandidates(menuCands, introCands, sitemapCands, []string{baseURL})
}

func (e *Extractor) menuLinks(agent *browser.Agent) []menuLink {
	raw, err := agent.Page().Eval(scriptMenuLinks)
	if err != nil {
		logging.Debugf("menu scan failed: %v", err)
		return nil
	}
	var links []menuLink
	if err := json.Unmarshal(raw, &links); err != nil {
		return nil
	}
	return links
}

func (e *Extractor) isImageBased(agent *browser.Agent) bool {
	raw, err := agent.Page().Eval(scriptTextNodeCount)
	if err != nil {
		return false
	}
	var count int
	if err := json.Unmarshal(raw, &count); err != nil {
		return false
	}
	return count < minTextNodes
}

// extractFromPage runs the four DOM strategies independently and merges.
func (e *Extractor) extractFromPage(agent *browser.Agent) []models.Doctor {
	page := agent.Page()

	var s1, s2 []cardInfo
	if raw, err := page.Eval(scriptSelectorCards); err == nil {
		json.Unmarshal(raw, &s1)
	}
	if raw, err := page.Eval(scriptGenericCards); err == nil {
		json.Unmarshal(raw, &s2)
	}

	var s3 []models.Doctor
	if text, err := page.Text(); err == nil {
		s3 = scanText(text)
	}

	var headings []headingInfo
	if raw, err := page.Eval(scriptHeadingCards); err == nil {
		json.Unmarshal(raw, &headings)
	}

	return mergeDoctors(
		parseCards(s1, models.SourceDOM),
		parseCards(s2, models.SourceDOM),
		s3,
		parseHeadings(headings),
	)
}

// appendOCR runs one Tier B pass and appends validated records.
func (e *Extractor) appendOCR(ctx context.Context, result *models.CrawlResult, shotPath string) bool {
	if e.ocr == nil {
		return false
	}
	records, err := e.ocr.ExtractDoctors(ctx, shotPath)
	if err != nil {
		result.AddError(models.ErrExtraction, "doctor_extract", fmt.Sprintf("ocr: %v", err), true)
		return false
	}
	found := ValidateOCRRecords(records)
	if len(found) == 0 {
		return false
	}
	result.Doctors = append(result.Doctors, stamp(found, result.HospitalNo)...)
	return true
}

// chunkOCR is Tier C: viewport-height screenshot chunks OCRed independently.
func (e *Extractor) chunkOCR(ctx context.Context, agent *browser.Agent, result *models.CrawlResult, tmpDir string) {
	if e.ocr == nil {
		return
	}
	prefix := filepath.Join(tmpDir, "chunk")
	paths, err := agent.ScreenshotViewportChunks(ctx, prefix, e.opts.MaxOCRChunks, e.opts.ScreenshotQuality)
	if err != nil {
		logging.Debugf("chunk screenshots failed: %v", err)
	}
	for _, p := range paths {
		if e.appendOCR(ctx, result, p) {
			return
		}
	}
}

// aiNavigate is the last fallback: screenshot the main page, ask the
// navigator for doctors or roster paths, and retry up to three untried
// paths. Returns the latest screenshot path for debug preservation.
func (e *Extractor) aiNavigate(ctx context.Context, agent *browser.Agent, result *models.CrawlResult, baseURL, tmpDir string, tried map[string]struct{}, visit func(string) bool, lastShot string) string {
	if e.ocr == nil {
		return lastShot
	}
	if _, err := agent.Goto(ctx, baseURL, candidateNavTimeout); err != nil {
		return lastShot
	}
	shot := filepath.Join(tmpDir, "mainpage.jpg")
	if err := agent.ScreenshotFullpage(shot, e.opts.ScreenshotQuality); err != nil {
		return lastShot
	}

	nav, err := e.ocr.Navigate(ctx, shot)
	if err != nil {
		result.AddError(models.ErrExtraction, "doctor_extract", fmt.Sprintf("ai navigation: %v", err), true)
		return shot
	}

	if found := validateRecords(nav.Doctors, models.SourceAINav); len(found) > 0 {
		result.Doctors = append(result.Doctors, stamp(found, result.HospitalNo)...)
		return shot
	}

	followed := 0
	for _, path := range nav.SuggestedPaths {
		if followed >= maxSuggestedPaths {
			break
		}
		candidate := joinPath(baseURL, path)
		if _, done := tried[candidate]; done {
			continue
		}
		followed++
		if visit(candidate) {
			break
		}
	}
	return shot
}

// preserveDebugShot copies the last screenshot into the persistent debug
// directory keyed by hospital number.
func (e *Extractor) preserveDebugShot(result *models.CrawlResult, lastShot string) {
	if lastShot == "" || e.opts.DebugDir == "" {
		return
	}
	if err := os.MkdirAll(e.opts.DebugDir, 0o755); err != nil {
		return
	}
	dst := filepath.Join(e.opts.DebugDir, fmt.Sprintf("%d.jpg", result.HospitalNo))
	if err := copyFile(lastShot, dst); err != nil {
		logging.Debugf("debug screenshot not preserved: %v", err)
		return
	}
	logging.Infof("hospital %d: debug screenshot at %s", result.HospitalNo, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func joinPath(baseURL, path string) string {
	if path == "" {
		return baseURL
	}
	if path[0] != '/' {
		path = "/" + path
	}
	base := baseURL
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + path
}

// ValidateOCRRecords converts OCR output into validated doctors with OCR
// provenance.
func ValidateOCRRecords(records []ocr.DoctorRecord) []models.Doctor {
	out := validateRecords(records, models.SourceDOM)
	for i := range out {
		out[i].OCRSource = true
	}
	return out
}

func validateRecords(records []ocr.DoctorRecord, source models.ExtractionSource) []models.Doctor {
	var out []models.Doctor
	seen := map[string]struct{}{}
	for _, rec := range records {
		name := CleanName(rec.Name)
		if !IsPlausibleKoreanName(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, models.Doctor{
			Name:             name,
			NameEnglish:      rec.NameEnglish,
			Role:             rec.Role,
			PhotoURL:         rec.PhotoURL,
			Education:        rec.Education,
			Career:           rec.Career,
			Credentials:      rec.Credentials,
			ExtractionSource: source,
		})
	}
	return out
}

func stamp(doctors []models.Doctor, hospitalNo int) []models.Doctor {
	for i := range doctors {
		doctors[i].HospitalNo = hospitalNo
	}
	return doctors
}
