package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clinicrawl/internal/batch"
	"clinicrawl/internal/browser"
	"clinicrawl/internal/config"
	"clinicrawl/internal/extract/channels"
	"clinicrawl/internal/extract/doctors"
	"clinicrawl/internal/fetch"
	"clinicrawl/internal/ingest"
	"clinicrawl/internal/logging"
	"clinicrawl/internal/models"
	"clinicrawl/internal/ocr"
	"clinicrawl/internal/pipeline"
	"clinicrawl/internal/report"
	"clinicrawl/internal/storage"
)

var (
	Version = "dev"

	configFile string
	logLevel   string

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "clinicrawl",
	Short:   "Consultation-channel and doctor-roster crawler for Korean dermatology clinics",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		appConfig = cfg

		logCfg := logging.Config{
			Level:      cfg.Logging.Level,
			LogDir:     cfg.Logging.LogDir,
			MaxSize:    cfg.Logging.Rotation.MaxSize,
			MaxBackups: cfg.Logging.Rotation.MaxBackups,
			MaxAge:     cfg.Logging.Rotation.MaxAge,
			Compress:   cfg.Logging.Rotation.Compress,
		}
		if logLevel != "" {
			logCfg.Level = logLevel
		}
		return logging.Init(logCfg)
	},
	SilenceUsage: true,
}

func openStore() (*storage.Store, error) {
	return storage.Open(appConfig.Storage.Path)
}

// wirePipeline assembles the extractors and their shared clients. The
// extractors are stateless; each crawl hands them the browser it runs on,
// so one pipeline serves both the single crawl and every batch worker.
func wirePipeline(store *storage.Store) *pipeline.Pipeline {
	fetcher := fetch.New(time.Duration(appConfig.Crawl.TimeoutSeconds) * time.Second)
	ocrClient := ocr.NewTool(appConfig.OCR.Tool, time.Duration(appConfig.OCR.TimeoutSeconds)*time.Second)

	channelExtractor := channels.New()
	doctorExtractor := doctors.New(ocrClient, fetcher, channelExtractor, doctors.Options{
		ScreenshotQuality: appConfig.Crawl.ScreenshotQuality,
		DebugDir:          appConfig.Crawl.DebugDir,
		MaxOCRChunks:      appConfig.OCR.MaxChunks,
	})
	return pipeline.New(store, fetcher, channelExtractor, doctorExtractor, appConfig.Crawl)
}

var registerCmd = &cobra.Command{
	Use:   "register <listing.csv>",
	Short: "Load a hospital_no,name,best_url listing into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		inserted, err := ingest.LoadFile(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("registered %d new hospitals\n", inserted)
		return nil
	},
}

var crawlCmd = &cobra.Command{
	Use:   "crawl <hospital_no>",
	Short: "Crawl one hospital and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var hospitalNo int
		if _, err := fmt.Sscanf(args[0], "%d", &hospitalNo); err != nil {
			return fmt.Errorf("hospital_no must be an integer: %w", err)
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		hospital, err := store.GetByID(cmd.Context(), hospitalNo)
		if err != nil {
			return err
		}
		if hospital.URL == "" {
			return fmt.Errorf("hospital %d has no URL; register one first", hospitalNo)
		}

		b, err := browser.Launch(appConfig.Crawl.Headless)
		if err != nil {
			return err
		}
		defer b.Close()

		p := wirePipeline(store)
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		result, err := p.Crawl(ctx, b, *hospital)
		if err != nil {
			return err
		}
		fmt.Printf("status=%s channels=%d doctors=%d errors=%d\n",
			result.Status, len(result.SocialChannels), len(result.Doctors), len(result.Errors))
		return report.New(store, os.Stdout).Hospital(cmd.Context(), hospitalNo)
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Crawl every pending hospital with a bounded worker pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		recovered, err := store.RecoverInterrupted(ctx)
		if err != nil {
			return err
		}
		if recovered > 0 {
			logging.Warnf("reset %d interrupted hospitals to pending", recovered)
		}

		pending, err := store.GetByPhase(ctx, models.StatusPending)
		if err != nil {
			return err
		}
		if appConfig.Batch.RetryFailed {
			failed, err := store.GetByPhase(ctx, models.StatusFailed)
			if err != nil {
				return err
			}
			pending = append(pending, failed...)
		}
		if len(pending) == 0 {
			fmt.Println("nothing to crawl")
			return nil
		}

		monitor := batch.NewResourceMonitor(batch.DefaultLimits(appConfig.Batch.MaxWorkers))
		factory := func() (browser.Browser, error) {
			return browser.Launch(appConfig.Crawl.Headless)
		}
		sup := batch.NewSupervisor(wirePipeline(store), factory, monitor, appConfig.Batch)

		go func() {
			<-ctx.Done()
			sup.RequestShutdown()
		}()

		summary := sup.Run(ctx, pending)
		fmt.Printf("done: %d/%d success, %d partial, %d empty, %d failed\n",
			summary.Success, summary.Total, summary.Partial, summary.Empty, summary.Failed)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report [hospital_no]",
	Short: "Show crawl progress, or one hospital's detail",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		r := report.New(store, os.Stdout)
		if len(args) == 1 {
			var hospitalNo int
			if _, err := fmt.Sscanf(args[0], "%d", &hospitalNo); err != nil {
				return fmt.Errorf("hospital_no must be an integer: %w", err)
			}
			return r.Hospital(cmd.Context(), hospitalNo)
		}
		return r.Summary(cmd.Context())
	},
}

var exportCmd = &cobra.Command{
	Use:       "export {channels|doctors}",
	Short:     "Write extracted data as CSV to stdout",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"channels", "doctors"},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		switch args[0] {
		case "channels":
			return report.ExportChannelsCSV(cmd.Context(), store, os.Stdout)
		case "doctors":
			return report.ExportDoctorsCSV(cmd.Context(), store, os.Stdout)
		default:
			return fmt.Errorf("unknown export target %q", args[0])
		}
	},
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Reset hospitals stuck in crawling state back to pending",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		recovered, err := store.RecoverInterrupted(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("reset %d hospitals to pending\n", recovered)
		return nil
	},
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Warnf("received %v, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug|info|warn|error)")

	rootCmd.AddCommand(registerCmd, crawlCmd, batchCmd, reportCmd, exportCmd, recoverCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
