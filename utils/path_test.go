package utils

import (
	"path/filepath"
	"testing"
)

func TestIsPathWithin(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "a", "b.cpp")
	outside := filepath.Join(filepath.Dir(root), "outside.cpp")

	if !IsPathWithin(child, []string{root}) {
		t.Fatalf("expected %s to be within %s", child, root)
	}
	if IsPathWithin(outside, []string{root}) {
		t.Fatalf("did not expect %s to be within %s", outside, root)
	}
}

func TestIsPathWithinMultipleRoots(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	inB := filepath.Join(rootB, "nested", "file.cpp")

	if !IsPathWithin(inB, []string{rootA, rootB}) {
		t.Fatal("expected path under second root to be within")
	}
}
