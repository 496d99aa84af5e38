package utils

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// WalkPruned walks the tree rooted at startPath depth-first in sorted order.
// Directories whose name starts with '.' or '_' are pruned, as is any
// directory that contains a file named marker (empty marker disables that
// check). fn is invoked for every surviving entry, directories included.
func WalkPruned(ctx context.Context, startPath, marker string, fn fs.WalkDirFunc) error {
	info, err := os.Stat(startPath)
	if err != nil {
		return fn(startPath, nil, err)
	}
	return walkPruned(ctx, startPath, fs.FileInfoToDirEntry(info), marker, fn)
}

func walkPruned(ctx context.Context, path string, entry fs.DirEntry, marker string, fn fs.WalkDirFunc) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := fn(path, entry, nil); err != nil {
		if err == fs.SkipDir {
			return nil
		}
		return err
	}
	if !entry.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if ferr := fn(path, entry, err); ferr != nil && ferr != fs.SkipDir {
			return ferr
		}
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	if marker != "" {
		for _, child := range entries {
			if !child.IsDir() && child.Name() == marker {
				return nil
			}
		}
	}

	for _, child := range entries {
		name := child.Name()
		if child.IsDir() && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			continue
		}
		if err := walkPruned(ctx, filepath.Join(path, name), child, marker, fn); err != nil {
			return err
		}
	}
	return nil
}
