package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bandfix/bands"
	"bandfix/config"
	"bandfix/corrector"
	"bandfix/exiftool"
	"bandfix/logger"
	"bandfix/report"
	"bandfix/sysinfo"
	"bandfix/tracing"
)

func main() {
	if err := tracing.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start trace: %v\n", err)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.LogLevel)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if cfg.Survey {
		counts, err := corrector.Survey(ctx, cfg)
		if err != nil {
			logger.Fatalf("Survey failed: %v", err)
		}
		corrector.WriteSurvey(os.Stdout, counts)
		tracing.Stop()
		return
	}

	// The external tool must be reachable before any file is touched.
	if err := exiftool.Check(); err != nil {
		logger.Fatalf("exiftool unavailable: %v", err)
	}

	table, err := loadTable(cfg)
	if err != nil {
		logger.Fatalf("Failed to load correction table: %v", err)
	}
	logger.Infof("Loaded correction table %s (%d bands)", table.Version, table.Len())

	if cfg.DryRun {
		logger.Info("Dry run: no file will be modified. Pass --apply to rewrite metadata.")
	}

	// Record start time
	startTime := time.Now()

	// Gather system information if requested
	var sysInfo *sysinfo.SystemInfo
	if cfg.CollectSystemInfo {
		sysInfo = sysinfo.Collect()
	}

	// Prepare the report
	writer, err := report.New(cfg, sysInfo, startTime.Format(time.RFC3339))
	if err != nil {
		logger.Fatalf("Failed to initialize report: %v", err)
	}

	factory := func() (exiftool.Tool, error) {
		return exiftool.Start()
	}

	err = corrector.Run(ctx, cfg, table, factory, writer)
	writer.Close(time.Now().Format(time.RFC3339))
	if err != nil {
		logger.Fatalf("Run failed: %v", err)
	}

	m := writer.Metrics()
	report.WriteSummary(os.Stdout, m, writer.Failures(), cfg.DryRun)

	tracing.Stop()
	if m.Failed > 0 {
		os.Exit(1)
	}
}

func loadTable(cfg *config.Config) (*bands.Table, error) {
	if cfg.TableFile != "" {
		return bands.LoadFile(cfg.TableFile)
	}
	return bands.Load(cfg.TableVersion)
}

func handleSignals(cancelFunc context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Interrupt signal received. Shutting down...")
	cancelFunc()
}
