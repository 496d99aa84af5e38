package header

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tidings/config"
	"tidings/registry"
	"tidings/report"
)

func checkerConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	return &config.Config{
		StartPaths:       []string{root},
		CheckHeaders:     true,
		OutputFormat:     "ndjson",
		OutputFileName:   filepath.Join(t.TempDir(), "report.ndjson"),
		Jobs:             2,
		JobsSet:          true,
		NiceLevel:        "medium",
		LogLevel:         "error",
		IgnoreMarker:     "LINT_IGNORE",
		SkipCount:        true,
		HeaderExtensions: []string{"cpp", "py"},
	}
}

func TestCheckFiles(t *testing.T) {
	t.Setenv("TIDINGS_DISABLE_PROGRESS", "1")
	root := t.TempDir()
	reg := registry.Default()

	writeTree := func(rel, content string) {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	writeTree("pkg/src/node.py",
		renderHeader(t, reg, "apache2", "#", "Copyright 2014 Open Source Robotics Foundation, Inc."))
	writeTree("pkg/src/plain.cpp", "int main() { return 0; }\n")
	writeTree("pkg/notes.txt", "ignored extension\n")
	writeTree("pkg/binary.cpp", "ELF\x00\x00\x00 not really source\n")

	cfg := checkerConfig(t, root)
	metrics := &report.Metrics{}
	w, err := report.New(cfg, &report.HostInfo{}, metrics)
	if err != nil {
		t.Fatalf("report init: %v", err)
	}

	if err := CheckFiles(context.Background(), cfg, reg, w); err != nil {
		t.Fatalf("CheckFiles failed: %v", err)
	}
	w.Close()

	if metrics.FilesChecked != 2 {
		t.Errorf("FilesChecked = %d, want 2 (py + plain cpp)", metrics.FilesChecked)
	}
	if metrics.FilesSkipped != 1 {
		t.Errorf("FilesSkipped = %d, want 1 (binary)", metrics.FilesSkipped)
	}
	if metrics.HeadersKnown != 1 {
		t.Errorf("HeadersKnown = %d, want 1", metrics.HeadersKnown)
	}
}

func TestCheckFilesCancelled(t *testing.T) {
	t.Setenv("TIDINGS_DISABLE_PROGRESS", "1")
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.cpp"), []byte("int x;\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := checkerConfig(t, root)
	w, err := report.New(cfg, &report.HostInfo{}, &report.Metrics{})
	if err != nil {
		t.Fatalf("report init: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := CheckFiles(ctx, cfg, registry.Default(), w); err == nil {
		t.Error("expected cancellation error")
	}
}

func TestEligibility(t *testing.T) {
	cfg := &config.Config{HeaderExtensions: []string{"cpp", "py"}}
	e := newEligibility(cfg, registry.Default())

	tests := []struct {
		path string
		want bool
	}{
		{"/ws/pkg/src/node.cpp", true},
		{"/ws/pkg/setup.py", true},
		{"/ws/pkg/node.CPP", true}, // extension match is case-insensitive
		{"/ws/pkg/README.md", false},
		{"/ws/pkg/LICENSE", true},
		{"/ws/pkg/CONTRIBUTING.md", true},
		{"/ws/pkg/Makefile", false},
	}
	for _, tt := range tests {
		if got := e.matches(tt.path); got != tt.want {
			t.Errorf("matches(%q) = %t, want %t", tt.path, got, tt.want)
		}
	}
}

func TestIsBinaryFile(t *testing.T) {
	dir := t.TempDir()

	text := filepath.Join(dir, "text.cpp")
	if err := os.WriteFile(text, []byte("int main() {}\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if binary, err := isBinaryFile(text); err != nil || binary {
		t.Errorf("text file classified binary=%t err=%v", binary, err)
	}

	withNul := filepath.Join(dir, "data.cpp")
	if err := os.WriteFile(withNul, []byte("abc\x00def"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if binary, err := isBinaryFile(withNul); err != nil || !binary {
		t.Errorf("NUL file classified binary=%t err=%v", binary, err)
	}

	empty := filepath.Join(dir, "empty.cpp")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if binary, err := isBinaryFile(empty); err != nil || binary {
		t.Errorf("empty file classified binary=%t err=%v", binary, err)
	}
}

func TestAdjustJobs(t *testing.T) {
	if got := adjustJobs(&config.Config{Jobs: 7, JobsSet: true}); got != 7 {
		t.Errorf("explicit jobs = %d, want 7", got)
	}
	if got := adjustJobs(&config.Config{NiceLevel: "low"}); got != 1 {
		t.Errorf("low nice jobs = %d, want 1", got)
	}
	if got := adjustJobs(&config.Config{NiceLevel: "medium"}); got < 1 {
		t.Errorf("medium nice jobs = %d, want >= 1", got)
	}
}
