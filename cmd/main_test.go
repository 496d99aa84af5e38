package main

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"tidings/config"
	"tidings/logger"
	"tidings/report"
)

func TestHandleSignalEventCancelsContextAndSetsMetrics(t *testing.T) {
	logger.Init("error")

	cfg := &config.Config{
		OutputFileName: filepath.Join(t.TempDir(), "cmd-signal.ndjson"),
		OutputFormat:   "ndjson",
	}
	metrics := &report.Metrics{StartTime: time.Now().UTC().Format(time.RFC3339)}
	w, err := report.New(cfg, &report.HostInfo{}, metrics)
	if err != nil {
		t.Fatalf("report init: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)

	done := make(chan struct{})
	go func() {
		handleSignalEvent(cancel, w, sigChan)
		close(done)
	}()

	sigChan <- syscall.SIGTERM

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected context to be canceled")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("signal handler did not return")
	}

	end := w.Metrics().EndTime
	if end == "" {
		t.Fatal("expected EndTime to be set")
	}
	if _, err := time.Parse(time.RFC3339, end); err != nil {
		t.Fatalf("invalid EndTime format: %v", err)
	}
}
