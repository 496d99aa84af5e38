package tidy

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestDeduperFirst(t *testing.T) {
	dd := newDeduper()
	d := diagnostic{File: "/ws/a.hpp", Line: 3, Column: 7, Message: "use nullptr [check]"}
	if !dd.first(d) {
		t.Error("first occurrence rejected")
	}
	if dd.first(d) {
		t.Error("duplicate accepted")
	}
	other := d
	other.Line = 4
	if !dd.first(other) {
		t.Error("distinct diagnostic rejected")
	}
}

func TestBaselineEmptyPath(t *testing.T) {
	b, err := loadBaseline("")
	if err != nil {
		t.Fatalf("loadBaseline failed: %v", err)
	}
	if b.contains(diagnostic{File: "/ws/a.cpp", Line: 1, Column: 1, Message: "m"}) {
		t.Error("empty baseline suppressed a diagnostic")
	}
}

func TestBaselineSuppression(t *testing.T) {
	known := diagnostic{File: "/ws/a.cpp", Line: 10, Column: 5, Message: "use nullptr [check]"}
	content := "# known findings\n\n" +
		fmt.Sprintf("%s:%d:%d: %s\n", known.File, known.Line, known.Column, known.Message)
	path := filepath.Join(t.TempDir(), "baseline.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write baseline: %v", err)
	}

	b, err := loadBaseline(path)
	if err != nil {
		t.Fatalf("loadBaseline failed: %v", err)
	}
	if !b.contains(known) {
		t.Error("baselined diagnostic not suppressed")
	}
}

func TestBaselineMissingFile(t *testing.T) {
	if _, err := loadBaseline(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected an error for a missing baseline file")
	}
}

func TestBaselineDuplicateEntries(t *testing.T) {
	line := "/ws/a.cpp:1:1: duplicate entry"
	path := filepath.Join(t.TempDir(), "baseline.txt")
	if err := os.WriteFile(path, []byte(line+"\n"+line+"\n"), 0644); err != nil {
		t.Fatalf("failed to write baseline: %v", err)
	}
	if _, err := loadBaseline(path); err != nil {
		t.Fatalf("duplicate entries broke the filter: %v", err)
	}
}
