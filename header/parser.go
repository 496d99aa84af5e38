// Package header parses the leading comment block of source, license, and
// contributing files to extract copyright ownership and classify the license
// by exact comparison against registered templates.
package header

import (
	"regexp"
	"strings"
)

// span is a half-open [Start, End) byte range into the text it was matched
// in.
type span struct {
	Start int
	End   int
}

// copyrightMatch locates one "Copyright <years> <holder>" statement.
// Either all three spans are present or the statement did not match at all;
// partial matches cannot occur.
type copyrightMatch struct {
	Word  span // the Copyright token itself
	Years span
	Name  span
}

var copyrightRe = func() *regexp.Regexp {
	year := `\d{4}`
	yearOrRange := `(?:` + year + `|` + year + `-` + year + `)`
	return regexp.MustCompile(
		`(?ms)^[^\n\r]?\s*(Copyright)\s+(` + yearOrRange + `(?:,\s*` + yearOrRange + `)*)\s+([^\n\r]+)$`)
}()

var commentStartRe = regexp.MustCompile(`(?m)^(#|//)`)

// searchCopyright returns the spans of the first copyright statement in
// content. Years are validated by shape only; 9999 is a year.
func searchCopyright(content string) (copyrightMatch, bool) {
	m := copyrightRe.FindStringSubmatchIndex(content)
	if m == nil {
		return copyrightMatch{}, false
	}
	return copyrightMatch{
		Word:  span{m[2], m[3]},
		Years: span{m[4], m[5]},
		Name:  span{m[6], m[7]},
	}, true
}

// nextLineIndex returns the offset just past the line terminator following
// index. A combined "\r\n" is one boundary and advances two bytes. With no
// terminator left it returns len(content).
func nextLineIndex(content string, index int) int {
	rest := content[index:]
	idxN := strings.Index(rest, "\n")
	idxR := strings.Index(rest, "\r")
	idxRN := strings.Index(rest, "\r\n")

	next := -1
	for _, idx := range []int{idxN, idxR, idxRN} {
		if idx != -1 && (next == -1 || idx < next) {
			next = idx
		}
	}
	if next == -1 {
		return len(content)
	}
	if idxRN != -1 && next == idxRN {
		return index + next + 2
	}
	return index + next + 1
}

func isCommentLine(content string, index int) bool {
	if index >= len(content) {
		return false
	}
	return content[index] == '#' || strings.HasPrefix(content[index:], "//")
}

func isShebangLine(content string, index int) bool {
	return strings.HasPrefix(content[index:], "#!")
}

func isCodingLine(content string, index int) bool {
	line := content[index:nextLineIndex(content, index)]
	return strings.Contains(line, "coding=") || strings.Contains(line, "coding:")
}

func isEmptyLine(content string, index int) bool {
	return nextLineIndex(content, index) == index+1
}

// scanPastCodingAndShebangLines advances over any leading interpreter
// directive or encoding-declaration comment lines. Re-running on a returned
// offset yields the same offset, and empty content yields the offset
// unchanged.
func scanPastCodingAndShebangLines(content string, index int) int {
	for isCommentLine(content, index) &&
		(isCodingLine(content, index) || isShebangLine(content, index)) {
		index = nextLineIndex(content, index)
	}
	return index
}

// scanPastEmptyLines advances over fully blank lines.
func scanPastEmptyLines(content string, index int) int {
	for isEmptyLine(content, index) {
		index = nextLineIndex(content, index)
	}
	return index
}

// commentBlock extracts the first contiguous comment block at or after
// index. The marker of the first comment line ('#' or '//') fixes the block;
// a line with the other marker or no marker ends it. Each line loses the
// marker and exactly one following character, and lines are rejoined with
// '\n'. The returned offset points just past the marker on the first line.
// ok is false when no comment line exists in the remaining text.
func commentBlock(content string, index int) (block string, offset int, ok bool) {
	m := commentStartRe.FindStringSubmatchIndex(content[index:])
	if m == nil {
		return "", 0, false
	}
	token := content[index+m[2] : index+m[3]]
	start := index + m[2]

	end := start
	for {
		end = nextLineIndex(content, end)
		if !strings.HasPrefix(content[end:], token) {
			break
		}
	}

	lines := splitLines(content[start:end])
	for i, line := range lines {
		if len(line) >= len(token)+1 {
			lines[i] = line[len(token)+1:]
		} else {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n"), start + len(token) + 1, true
}

// splitLines splits on '\n', '\r', and '\r\n' without keeping terminators.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			lines = append(lines, s[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, s[start:i])
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
