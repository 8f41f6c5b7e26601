package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"clinicrawl/internal/browser"
	"clinicrawl/internal/config"
	"clinicrawl/internal/logging"
	"clinicrawl/internal/models"
	"clinicrawl/internal/pipeline"
)

// BrowserFactory opens one browser per worker; workers never share one.
type BrowserFactory func() (browser.Browser, error)

// Summary is the tally of one batch run.
type Summary struct {
	RunID          string
	Total          int
	Success        int
	Partial        int
	Empty          int
	Failed         int
	RobotsBlocked  int
	RequiresManual int
	Duration       time.Duration
}

// Supervisor fans hospitals out over a bounded worker pool. It owns all
// cross-hospital concurrency; the pipeline stays single-hospital.
type Supervisor struct {
	pipeline   *pipeline.Pipeline
	newBrowser BrowserFactory
	monitor    *ResourceMonitor
	cfg        config.BatchConfig
	shutdown   atomic.Bool
}

// NewSupervisor wires a supervisor.
func NewSupervisor(p *pipeline.Pipeline, factory BrowserFactory, monitor *ResourceMonitor, cfg config.BatchConfig) *Supervisor {
	return &Supervisor{pipeline: p, newBrowser: factory, monitor: monitor, cfg: cfg}
}

// RequestShutdown stops enqueuing new hospitals. In-flight crawls finish or
// time out naturally.
func (s *Supervisor) RequestShutdown() {
	if s.shutdown.CompareAndSwap(false, true) {
		logging.Warn("shutdown requested, finishing in-flight hospitals")
	}
}

// Run crawls every hospital in the slice and returns the tally. Worker
// count is the configured maximum capped by machine capacity.
func (s *Supervisor) Run(ctx context.Context, hospitals []models.Hospital) *Summary {
	summary := &Summary{RunID: uuid.NewString(), Total: len(hospitals)}
	if len(hospitals) == 0 {
		return summary
	}
	start := time.Now()

	workers := s.cfg.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	if s.monitor != nil {
		if limit := s.monitor.WorkerCap(); limit < workers {
			logging.Warnf("worker count reduced from %d to %d by machine capacity", workers, limit)
			workers = limit
		}
	}
	if workers > len(hospitals) {
		workers = len(hospitals)
	}
	logging.Infof("batch %s: %d hospitals, %d workers", summary.RunID, len(hospitals), workers)

	bar := progressbar.NewOptions(len(hospitals),
		progressbar.OptionSetDescription("crawling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("clinic"),
	)

	jobs := make(chan models.Hospital)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			s.runWorker(ctx, worker, jobs, summary, &mu, bar)
		}(i)
	}

feed:
	for _, h := range hospitals {
		if s.shutdown.Load() {
			break
		}
		select {
		case jobs <- h:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	summary.Duration = time.Since(start)
	logging.Infof("batch done in %s: %d success, %d partial, %d empty, %d failed, %d robots_blocked, %d requires_manual",
		summary.Duration.Round(time.Second), summary.Success, summary.Partial, summary.Empty,
		summary.Failed, summary.RobotsBlocked, summary.RequiresManual)
	return summary
}

func (s *Supervisor) runWorker(ctx context.Context, worker int, jobs <-chan models.Hospital, summary *Summary, mu *sync.Mutex, bar *progressbar.ProgressBar) {
	b, err := s.newBrowser()
	if err != nil {
		logging.Errorf("worker %d: browser launch failed: %v", worker, err)
		// Drain so the feeder is not blocked forever.
		for range jobs {
			mu.Lock()
			summary.Failed++
			mu.Unlock()
			bar.Add(1)
		}
		return
	}
	defer b.Close()

	delay := time.Duration(s.cfg.DelaySeconds) * time.Second
	for hospital := range jobs {
		s.waitForHeadroom(ctx)

		result, err := s.pipeline.Crawl(ctx, b, hospital)
		mu.Lock()
		tally(summary, result, err)
		mu.Unlock()
		bar.Add(1)

		if err != nil && !s.cfg.ContinueOnError {
			logging.Errorf("worker %d: stopping batch on storage failure: %v", worker, err)
			s.RequestShutdown()
		}

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}
	}
}

// waitForHeadroom blocks admission while the machine CPU is saturated.
func (s *Supervisor) waitForHeadroom(ctx context.Context) {
	if s.monitor == nil {
		return
	}
	for s.monitor.Overloaded() {
		logging.Debug("cpu saturated, delaying next hospital")
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			return
		}
	}
}

func tally(summary *Summary, result *models.CrawlResult, err error) {
	if err != nil {
		summary.Failed++
		return
	}
	switch result.Status {
	case models.StatusSuccess:
		summary.Success++
	case models.StatusPartial:
		summary.Partial++
	case models.StatusEmpty:
		summary.Empty++
	case models.StatusRobotsBlocked:
		summary.RobotsBlocked++
	case models.StatusRequiresManual:
		summary.RequiresManual++
	default:
		summary.Failed++
	}
}
