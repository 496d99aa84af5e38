package tidy

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/FastFilter/xorfilter"
	"github.com/cespare/xxhash/v2"
)

func diagnosticKey(d diagnostic) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Message))
}

// deduper drops repeated diagnostics. Header findings surface once per
// including translation unit, so repeats are the common case, not the edge
// case.
type deduper struct {
	mu   sync.Mutex
	seen map[uint64]struct{}
}

func newDeduper() *deduper {
	return &deduper{seen: make(map[uint64]struct{})}
}

// first reports whether this diagnostic has not been seen before.
func (dd *deduper) first(d diagnostic) bool {
	key := diagnosticKey(d)
	dd.mu.Lock()
	defer dd.mu.Unlock()
	if _, ok := dd.seen[key]; ok {
		return false
	}
	dd.seen[key] = struct{}{}
	return true
}

// baseline suppresses known findings listed in a baseline file: one
// "path:line:column: message" entry per line, blank lines and #-comments
// ignored. The xor filter can rarely suppress a new finding that collides
// with a baselined one; it never resurfaces a baselined finding.
type baseline struct {
	filter *xorfilter.Xor8
}

func loadBaseline(path string) (*baseline, error) {
	if path == "" {
		return &baseline{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not read baseline file: %w", err)
	}
	defer f.Close()

	unique := make(map[uint64]struct{})
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		unique[xxhash.Sum64String(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read baseline file: %w", err)
	}
	if len(unique) == 0 {
		return &baseline{}, nil
	}

	keys := make([]uint64, 0, len(unique))
	for key := range unique {
		keys = append(keys, key)
	}
	filter, err := xorfilter.Populate(keys)
	if err != nil {
		return nil, fmt.Errorf("could not build baseline filter: %w", err)
	}
	return &baseline{filter: filter}, nil
}

func (b *baseline) contains(d diagnostic) bool {
	if b == nil || b.filter == nil {
		return false
	}
	return b.filter.Contains(diagnosticKey(d))
}
