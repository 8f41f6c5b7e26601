package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"clinicrawl/internal/browser"
	"clinicrawl/internal/config"
	"clinicrawl/internal/extract/channels"
	"clinicrawl/internal/extract/doctors"
	"clinicrawl/internal/fetch"
	"clinicrawl/internal/logging"
	"clinicrawl/internal/models"
	"clinicrawl/internal/storage"
)

const robotsTimeout = 8 * time.Second

// Pipeline runs one crawl attempt per hospital: preflight, navigate,
// stabilize, extract channels and doctors, finalize, save. It is
// self-contained per hospital; the batch supervisor owns retries and
// cross-hospital scheduling.
type Pipeline struct {
	store    *storage.Store
	fetcher  *fetch.Client
	channels *channels.Extractor
	doctors  *doctors.Extractor
	cfg      config.CrawlConfig
}

// New wires a pipeline.
func New(store *storage.Store, fetcher *fetch.Client, ch *channels.Extractor, doc *doctors.Extractor, cfg config.CrawlConfig) *Pipeline {
	return &Pipeline{store: store, fetcher: fetcher, channels: ch, doctors: doc, cfg: cfg}
}

// Crawl performs one attempt for the hospital and persists exactly one
// result record. The returned error is non-nil only for storage failures;
// everything else lands in the persisted error list.
func (p *Pipeline) Crawl(ctx context.Context, b browser.Browser, hospital models.Hospital) (*models.CrawlResult, error) {
	result := models.NewCrawlResult(hospital.HospitalNo, hospital.Name, hospital.URL)
	result.CrawledAt = time.Now()

	if p.store != nil {
		if err := p.store.MarkCrawling(ctx, hospital.HospitalNo); err != nil {
			logging.Warnf("hospital %d: crawling marker not set: %v", hospital.HospitalNo, err)
		}
	}

	baseURL, ok := p.preflight(ctx, result)
	if ok {
		p.crawlPage(ctx, b, result, baseURL)
	}

	Finalize(result, result.DoctorPageFound)
	logging.Infof("hospital %d (%s): status=%s channels=%d doctors=%d",
		hospital.HospitalNo, hospital.Name, result.Status, len(result.SocialChannels), len(result.Doctors))

	if p.store != nil {
		if err := p.store.SaveResult(ctx, result); err != nil {
			result.AddError(models.ErrStorage, "save", err.Error(), true)
			return result, fmt.Errorf("hospital %d: %w", hospital.HospitalNo, err)
		}
	}
	return result, nil
}

// preflight validates the URL scheme and honors robots.txt. Returns the
// site base URL and whether the crawl may proceed.
func (p *Pipeline) preflight(ctx context.Context, result *models.CrawlResult) (string, bool) {
	u, err := url.Parse(result.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result.Status = models.StatusFailed
		result.AddError(models.ErrInvalidURL, "preflight", fmt.Sprintf("unusable url %q", result.URL), false)
		return "", false
	}
	baseURL := u.Scheme + "://" + u.Host

	robotsCtx, cancel := context.WithTimeout(ctx, robotsTimeout)
	defer cancel()
	policy, err := p.fetcher.FetchRobots(robotsCtx, baseURL)
	if err != nil {
		// An unreachable robots.txt does not block; the navigate step will
		// surface a dead site on its own.
		logging.Debugf("robots fetch failed for %s: %v", baseURL, err)
		return baseURL, true
	}
	if !policy.AllowsRoot() {
		result.Status = models.StatusRobotsBlocked
		result.AddError(models.ErrRobotsBlocked, "preflight", "robots.txt disallows / for *", false)
		return baseURL, false
	}
	return baseURL, true
}

// crawlPage runs steps 2 through 7 on a fresh tab.
func (p *Pipeline) crawlPage(ctx context.Context, b browser.Browser, result *models.CrawlResult, baseURL string) {
	page, err := b.NewPage(ctx)
	if err != nil {
		result.Status = models.StatusFailed
		result.AddError(models.ErrNavigation, "navigate", fmt.Sprintf("no page: %v", err), true)
		return
	}
	defer page.Close()
	agent := browser.NewAgent(page)

	if !p.navigate(ctx, agent, result) {
		return
	}

	agent.DismissPopups(ctx)
	if agent.NeedsSPAWait() {
		if err := agent.SPAWait(ctx); err != nil {
			logging.Debugf("spa wait failed: %v", err)
		}
	}

	p.channels.Extract(ctx, b, agent.Page(), result)

	found := p.doctors.Extract(ctx, agent, result, baseURL)
	result.DoctorPageFound = found
}

// navigate is the only fatal step after preflight. It loads the page and
// runs the detection battery: encoding, antibot, error page, splash, CMS.
func (p *Pipeline) navigate(ctx context.Context, agent *browser.Agent, result *models.CrawlResult) bool {
	timeout := time.Duration(p.cfg.NavigateTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if _, err := agent.Goto(ctx, result.URL, timeout); err != nil {
		result.Status = models.StatusFailed
		switch {
		case errors.Is(err, browser.ErrNavTimeout):
			result.AddError(models.ErrTimeout, "navigate", err.Error(), true)
		case errors.Is(err, browser.ErrNavNetwork):
			result.AddError(models.ErrNetwork, "navigate", err.Error(), true)
		default:
			result.AddError(models.ErrNavigation, "navigate", err.Error(), true)
		}
		return false
	}
	result.FinalURL = agent.Page().URL()

	if broken, err := agent.CheckEncoding(); err == nil && broken {
		result.Status = models.StatusEncodingError
		result.AddError(models.ErrEncoding, "navigate", "page text dominated by replacement characters", false)
		return false
	}

	if stuck, err := agent.DetectAntibot(ctx); err == nil && stuck {
		result.Status = models.StatusRequiresManual
		result.AddError(models.ErrAntibot, "navigate", "antibot challenge did not clear", false)
		return false
	}

	if agent.DetectErrorPage() {
		result.AddError(models.ErrErrorPage, "navigate", "page renders as an error document", true)
	}

	if finalURL, err := agent.DetectSplash(ctx, timeout); err == nil && finalURL != "" {
		result.FinalURL = finalURL
	}

	result.CMSPlatform = agent.DetectCMS()
	return true
}
