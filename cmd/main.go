package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tidings/config"
	"tidings/diag"
	"tidings/header"
	"tidings/logger"
	"tidings/registry"
	"tidings/report"
	"tidings/tidy"
	"tidings/tracing"
	"tidings/update"
	"tidings/version"
)

func main() {
	if err := tracing.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start trace: %v\n", err)
	} else {
		defer tracing.Stop()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)

	if latest, notes, newer, err := update.CheckForUpdate(version.Version); err == nil && newer {
		if strings.Contains(strings.ToLower(notes), "security") {
			logger.Warnf("Update available: %s -> %s (security fixes included)", version.Version, latest)
		} else {
			logger.Infof("Update available: %s -> %s", version.Version, latest)
		}
	}

	startTime := time.Now()
	metrics := report.Metrics{
		StartTime: startTime.Format(time.RFC3339),
	}

	host := report.CollectHostInfo(cfg)

	writer, err := report.New(cfg, host, &metrics)
	if err != nil {
		logger.Fatalf("Failed to initialize report: %v", err)
	}
	defer writer.Close()

	reg, err := registry.Load(cfg.RegistryFile)
	if err != nil {
		logger.Fatalf("Failed to load registry: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go handleSignalEvent(cancel, writer, sigChan)

	if cfg.DiagStallThreshold > 0 {
		if err := tracing.StartFlightRecorder(16<<20, cfg.DiagStallThreshold); err != nil {
			logger.Warnf("Failed to start flight recorder: %v", err)
		} else {
			defer tracing.StopFlightRecorder()
		}
	}
	controller := diag.NewController(diag.Options{
		StallThreshold: cfg.DiagStallThreshold,
		Dir:            cfg.DiagDir,
		GoroutineLeak:  cfg.DiagGoroutineLeak,
		ProgressCountFn: func() int64 {
			m := writer.Metrics()
			return int64(m.FilesChecked + m.FilesSkipped + m.TidyInvocations)
		},
		DumpFlightRecorder: tracing.WriteFlightRecorder,
	})
	controller.Start(ctx)
	defer controller.Close()

	if cfg.CheckHeaders {
		if err := header.CheckFiles(ctx, cfg, reg, writer); err != nil && ctx.Err() == nil {
			logger.Fatalf("Header check failed: %v", err)
		}
	}
	if cfg.RunTidy && ctx.Err() == nil {
		if err := tidy.Run(ctx, cfg, writer); err != nil && ctx.Err() == nil {
			logger.Fatalf("clang-tidy run failed: %v", err)
		}
	}

	writer.UpdateMetrics(func(m *report.Metrics) {
		m.EndTime = time.Now().Format(time.RFC3339)
	})

	logger.Info("Check completed successfully.")
}

func handleSignalEvent(cancelFunc context.CancelFunc, w *report.Writer, sigChan chan os.Signal) {
	<-sigChan
	logger.Info("Interrupt signal received. Shutting down...")

	w.UpdateMetrics(func(m *report.Metrics) {
		m.EndTime = time.Now().Format(time.RFC3339)
	})

	cancelFunc()
}
