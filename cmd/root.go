package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/sherine-k/infusion/pkg/chart"
	"github.com/sherine-k/infusion/pkg/config"
	"github.com/sherine-k/infusion/pkg/device"
	"github.com/sherine-k/infusion/pkg/simulation"
	"github.com/sherine-k/infusion/pkg/upload"
)

var (
	configFile       string
	inputFile        string
	showBasalChart   bool
	showTimeline     bool
	timelineLimit    int
	showEventSummary bool
	doUpload         bool
	watchMode        bool
	verbose          bool
)

var rootCmd = &cobra.Command{
	Use:   "infusion",
	Short: "Infusion Pump History Extractor",
	Long: `A CLI tool that extracts event records logged by an infusion pump and
converts them into a canonical, time-ordered log.

The tool decodes a raw history dump, reconciles open-ended basal segments
into closed, duration-bearing records, filters degenerate entries, and
re-establishes strict chronological order. The final log can be rendered
as a summary or uploaded to the central platform.`,
	RunE: runExtraction,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Path to raw history dump (defaults to the configured device path)")
	rootCmd.Flags().BoolVarP(&showEventSummary, "summary", "s", true, "Show event summary")
	rootCmd.Flags().BoolVarP(&showBasalChart, "basal-chart", "b", false, "Show basal rate chart")
	rootCmd.Flags().BoolVarP(&showTimeline, "timeline", "t", false, "Show detailed timeline of events")
	rootCmd.Flags().IntVarP(&timelineLimit, "timeline-limit", "l", 50, "Limit number of timeline events to display")
	rootCmd.Flags().BoolVarP(&doUpload, "upload", "u", false, "Upload the final log to the platform")
	rootCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Run extraction on the configured schedule, waiting for the device")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func runExtraction(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if doUpload {
		cfg.Upload.Enabled = true
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if watchMode {
		return runWatch(ctx, cfg, logger)
	}

	path := inputFile
	if path == "" {
		path = cfg.Scan.DevicePath
	}
	if path == "" {
		return fmt.Errorf("no input: pass --input or set scan.devicePath")
	}
	return extractOnce(ctx, cfg, logger, path)
}

// extractOnce runs the full pipeline against one history dump: decode, feed
// the simulator in chronological order, finalize, render, upload.
func extractOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read history dump: %w", err)
	}

	records, err := device.ParsePage(data)
	if err != nil {
		return fmt.Errorf("failed to decode history dump: %w", err)
	}
	logger.Debug("history dump decoded", "path", path, "records", len(records))

	// The simulator requires chronological input; the pump writes records in
	// page order, which is not always the same thing.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Time().Before(records[j].Time())
	})

	sim := simulation.New()
	for _, r := range records {
		if err := sim.Add(r); err != nil {
			return fmt.Errorf("extraction aborted: %w", err)
		}
	}
	sim.Finalize()
	final := sim.Events()

	chartGen := chart.NewGenerator()

	if showEventSummary {
		fmt.Println(chartGen.GenerateEventSummary(final))
	}

	if showBasalChart {
		fmt.Println(chartGen.GenerateBasalChart(final))
	}

	if showTimeline {
		fmt.Println(chartGen.GenerateDetailedTimeline(final, timelineLimit))
	}

	if cfg.Upload.Enabled {
		uploader := &upload.Uploader{
			URL:    cfg.Upload.URL,
			Client: &http.Client{Timeout: cfg.Upload.Timeout},
			Logger: logger,
		}
		if err := uploader.Upload(ctx, final); err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
	}

	return nil
}

// runWatch re-runs the extraction at each scheduled time, waiting for the
// device to show up before each run.
func runWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.WatchSchedule == "" {
		return fmt.Errorf("watch mode requires watchSchedule in the configuration")
	}
	if cfg.Scan.DevicePath == "" {
		return fmt.Errorf("watch mode requires scan.devicePath in the configuration")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cfg.WatchSchedule)
	if err != nil {
		return fmt.Errorf("failed to parse watch schedule: %w", err)
	}

	scanner := &device.Scanner{
		Interval: cfg.Scan.Interval,
		Timeout:  cfg.Scan.Timeout,
		Detect: func(ctx context.Context) (string, bool) {
			if _, err := os.Stat(cfg.Scan.DevicePath); err != nil {
				return "", false
			}
			return cfg.Scan.DevicePath, true
		},
		Logger: logger,
	}

	for {
		next := schedule.Next(time.Now())
		logger.Info("waiting for next run", "at", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		path, err := scanner.Scan(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("no device for this run", "error", err)
			continue
		}

		if err := extractOnce(ctx, cfg, logger, path); err != nil {
			logger.Error("extraction run failed", "error", err)
		}
	}
}
