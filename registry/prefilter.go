package registry

import (
	"sort"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// candidateIndex narrows the exact-equality comparisons of MatchLicense to
// the licenses whose distinctive template line occurs in the content.
// Equality against a template implies its needle is present in the content,
// so skipping non-candidates never changes a result. Several templates may
// share a needle (the built-in contributing guides differ only in the
// sentence naming the license), so each needle carries every id that uses it.
type candidateIndex struct {
	matcher *ahocorasick.Matcher
	owners  [][]string // owners[i] lists the ids whose needle is needles[i]
	always  []string   // ids with no usable needle, compared unconditionally
}

func newCandidateIndex(r *Registry, p Part) *candidateIndex {
	ci := &candidateIndex{}
	var needles []string
	indexOf := make(map[string]int)
	for _, id := range r.licenseIDs {
		template := r.licenses[id].part(p)
		if template == "" {
			continue
		}
		needle := distinctiveLine(template)
		if needle == "" {
			ci.always = append(ci.always, id)
			continue
		}
		idx, ok := indexOf[needle]
		if !ok {
			idx = len(needles)
			indexOf[needle] = idx
			needles = append(needles, needle)
			ci.owners = append(ci.owners, nil)
		}
		ci.owners[idx] = append(ci.owners[idx], id)
	}
	if len(needles) > 0 {
		ci.matcher = ahocorasick.NewStringMatcher(needles)
	}
	return ci
}

func (ci *candidateIndex) candidates(content string) []string {
	out := append([]string(nil), ci.always...)
	if ci.matcher != nil {
		for _, idx := range ci.matcher.MatchThreadSafe([]byte(content)) {
			if idx >= 0 && idx < len(ci.owners) {
				out = append(out, ci.owners[idx]...)
			}
		}
	}
	sort.Strings(out)
	return out
}

// distinctiveLine picks the first reasonably long template line that does
// not carry the placeholder.
func distinctiveLine(template string) string {
	for _, line := range strings.Split(template, "\n") {
		line = strings.TrimSpace(line)
		if len(line) >= 16 && !strings.Contains(line, "{copyright}") {
			return line
		}
	}
	return ""
}
