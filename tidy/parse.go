package tidy

import (
	"regexp"
	"strconv"
	"strings"
)

// diagnostic is one scraped clang-tidy finding.
type diagnostic struct {
	File           string
	Line           int
	Column         int
	Message        string
	Recommendation string
}

// diagnosticRe builds the line matcher for the configured source extensions:
// an absolute path with a recognized extension followed by line and column.
func diagnosticRe(extensions []string) *regexp.Regexp {
	quoted := make([]string, len(extensions))
	for i, ext := range extensions {
		quoted[i] = regexp.QuoteMeta(ext)
	}
	return regexp.MustCompile(`(/.*\.(?:` + strings.Join(quoted, "|") + `)):(\d+):(\d+):`)
}

// parseOutput scrapes diagnostics from raw clang-tidy output. A line matching
// the location pattern opens a diagnostic; subsequent non-matching lines are
// its code recommendation, accumulated verbatim. Lines before the first
// location are clang-tidy banner noise and are dropped.
func parseOutput(output string, extensions []string) map[string][]diagnostic {
	re := diagnosticRe(extensions)
	results := make(map[string][]diagnostic)

	var current *diagnostic
	flush := func() {
		if current == nil {
			return
		}
		results[current.File] = append(results[current.File], *current)
		current = nil
	}

	for _, line := range strings.Split(output, "\n") {
		m := re.FindStringSubmatch(line)
		if m == nil {
			if current != nil {
				current.Recommendation += line + "\n"
			}
			continue
		}
		flush()
		lineNum, _ := strconv.Atoi(m[2])
		colNum, _ := strconv.Atoi(m[3])
		current = &diagnostic{
			File:    m[1],
			Line:    lineNum,
			Column:  colNum,
			Message: messageOf(line),
		}
	}
	flush()
	return results
}

// messageOf extracts the text after the final colon of a diagnostic line.
func messageOf(line string) string {
	idx := strings.LastIndex(line, ":")
	if idx < 0 || idx+2 > len(line) {
		return ""
	}
	return line[idx+2:]
}
