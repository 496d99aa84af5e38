package utils

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mkTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, file := range files {
		path := filepath.Join(root, file)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}

func collectFiles(t *testing.T, root, marker string) []string {
	t.Helper()
	var files []string
	err := WalkPruned(context.Background(), root, marker, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d != nil && !d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	return files
}

func TestWalkPrunedSkipsDotAndUnderscoreDirs(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root,
		"pkg/src/a.cpp",
		".git/config",
		"_build/b.cpp",
		"pkg/.cache/c.cpp",
	)

	files := collectFiles(t, root, "")
	want := []string{"pkg/src/a.cpp"}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", files, want)
	}
}

func TestWalkPrunedHonorsMarker(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root,
		"keep/a.cpp",
		"skip/b.cpp",
		"skip/nested/c.cpp",
	)
	if err := os.WriteFile(filepath.Join(root, "skip", "SKIP_ME"), nil, 0644); err != nil {
		t.Fatalf("write marker: %v", err)
	}

	files := collectFiles(t, root, "SKIP_ME")
	want := []string{"keep/a.cpp"}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", files, want)
	}
}

func TestWalkPrunedSortedOrder(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, "b.cpp", "a.cpp", "c/d.cpp")

	files := collectFiles(t, root, "")
	want := []string{"a.cpp", "b.cpp", "c/d.cpp"}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", files, want)
	}
}

func TestWalkPrunedMissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	var sawErr bool
	err := WalkPruned(context.Background(), missing, "", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			sawErr = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if !sawErr {
		t.Error("expected the callback to observe the stat error")
	}
}

func TestWalkPrunedContextCancel(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, "a.cpp")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WalkPruned(ctx, root, "", func(path string, d fs.DirEntry, err error) error {
		return nil
	})
	if err != context.Canceled {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
