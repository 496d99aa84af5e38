package header

import (
	"strings"
	"testing"
)

func TestScanPastCodingAndShebangLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"plain code", "int main() {}\n", 0},
		{"shebang only", "#!/usr/bin/env python3\ncode\n", 23},
		{"coding only", "# -*- coding: utf-8 -*-\ncode\n", 24},
		{"shebang then coding", "#!/usr/bin/env python3\n# -*- coding: utf-8 -*-\ncode\n", 47},
		{"coding with equals", "# coding=utf-8\ncode\n", 15},
		{"ordinary comment stays", "# Copyright 2020 Foo\n", 0},
		{"shebang without newline", "#!/bin/sh", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanPastCodingAndShebangLines(tt.content, 0)
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
			// Applying the scan to its own result must not move further.
			if again := scanPastCodingAndShebangLines(tt.content, got); again != got {
				t.Errorf("not idempotent: %d then %d", got, again)
			}
		})
	}
}

func TestScanPastEmptyLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		index   int
		want    int
	}{
		{"empty", "", 0, 0},
		{"no blank", "x\n\n", 0, 0},
		{"single blank", "\nx\n", 0, 1},
		{"run of blanks", "\n\n\nx\n", 0, 3},
		{"from offset", "x\n\n\ny\n", 2, 4},
		// A \r\n line advances two bytes per boundary and is not treated
		// as a blank line here.
		{"crlf blank not skipped", "\r\nx\r\n", 0, 0},
		{"bare cr blank", "\rx\r", 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanPastEmptyLines(tt.content, tt.index)
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
			if again := scanPastEmptyLines(tt.content, got); again != got {
				t.Errorf("not idempotent: %d then %d", got, again)
			}
		})
	}
}

func TestNextLineIndex(t *testing.T) {
	tests := []struct {
		name    string
		content string
		index   int
		want    int
	}{
		{"lf", "ab\ncd", 0, 3},
		{"cr", "ab\rcd", 0, 3},
		{"crlf is one boundary", "ab\r\ncd", 0, 4},
		{"no terminator", "abcd", 0, 4},
		{"empty", "", 0, 0},
		{"from offset", "a\nb\nc", 2, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextLineIndex(tt.content, tt.index); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCommentBlock(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		index      int
		wantBlock  string
		wantOffset int
		wantOK     bool
	}{
		{
			name:   "no comment anywhere",
			content: "int main() {\n  return 0;\n}\n",
			wantOK: false,
		},
		{
			name:       "hash block",
			content:    "# Copyright 2020 Foo\n# line two\ncode\n",
			wantBlock:  "Copyright 2020 Foo\nline two",
			wantOffset: 2,
			wantOK:     true,
		},
		{
			name:       "slash block stops at blank",
			content:    "// alpha\n// beta\n\n// gamma\n",
			wantBlock:  "alpha\nbeta",
			wantOffset: 3,
			wantOK:     true,
		},
		{
			name: "marker of first line fixes the block",
			// the '//' line ends the '#' run
			content:    "# one\n// two\n",
			wantBlock:  "one",
			wantOffset: 2,
			wantOK:     true,
		},
		{
			name:       "short line strips to empty",
			content:    "# alpha\n#\n# beta\ncode\n",
			wantBlock:  "alpha\n\nbeta",
			wantOffset: 2,
			wantOK:     true,
		},
		{
			name:       "search starts at index",
			content:    "code\n# tail comment\n",
			index:      0,
			wantBlock:  "tail comment",
			wantOffset: 7,
			wantOK:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, offset, ok := commentBlock(tt.content, tt.index)
			if ok != tt.wantOK {
				t.Fatalf("ok = %t, want %t", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if block != tt.wantBlock {
				t.Errorf("block = %q, want %q", block, tt.wantBlock)
			}
			if offset != tt.wantOffset {
				t.Errorf("offset = %d, want %d", offset, tt.wantOffset)
			}
		})
	}
}

func TestSearchCopyright(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantOK    bool
		wantYears string
		wantName  string
	}{
		{
			name:      "single year",
			content:   "Copyright 2014 Open Source Robotics Foundation, Inc.",
			wantOK:    true,
			wantYears: "2014",
			wantName:  "Open Source Robotics Foundation, Inc.",
		},
		{
			name:      "year range",
			content:   "Copyright 2014-2019 Foo Corp",
			wantOK:    true,
			wantYears: "2014-2019",
			wantName:  "Foo Corp",
		},
		{
			name:      "comma separated list",
			content:   "Copyright 2014, 2016-2018, 2020 Foo Corp",
			wantOK:    true,
			wantYears: "2014, 2016-2018, 2020",
			wantName:  "Foo Corp",
		},
		{
			name:    "word without years",
			content: "Copyright Foo Corp",
			wantOK:  false,
		},
		{
			name:    "years without holder",
			content: "Copyright 2014\n",
			wantOK:  false,
		},
		{
			name:      "not at start of block",
			content:   "Some preamble text\nCopyright 2001 Ancient Industries\nmore",
			wantOK:    true,
			wantYears: "2001",
			wantName:  "Ancient Industries",
		},
		{
			name:      "future year accepted",
			content:   "Copyright 9999 Time Travel LLC",
			wantOK:    true,
			wantYears: "9999",
			wantName:  "Time Travel LLC",
		},
		{
			name:    "three digit year rejected",
			content: "Copyright 814 Carolingian Scribes",
			wantOK:  false,
		},
		{
			name:    "empty",
			content: "",
			wantOK:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := searchCopyright(tt.content)
			if ok != tt.wantOK {
				t.Fatalf("ok = %t, want %t", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got := tt.content[m.Years.Start:m.Years.End]; got != tt.wantYears {
				t.Errorf("years = %q, want %q", got, tt.wantYears)
			}
			if got := tt.content[m.Name.Start:m.Name.End]; got != tt.wantName {
				t.Errorf("name = %q, want %q", got, tt.wantName)
			}
			if got := tt.content[m.Word.Start:m.Word.End]; got != "Copyright" {
				t.Errorf("word = %q, want Copyright", got)
			}
		})
	}
}

func TestSearchCopyrightFindsFirstStatement(t *testing.T) {
	content := "Copyright 2010 First Holder\nCopyright 2020 Second Holder\n"
	m, ok := searchCopyright(content)
	if !ok {
		t.Fatal("expected a match")
	}
	if got := content[m.Years.Start:m.Years.End]; got != "2010" {
		t.Errorf("years = %q, want first statement's 2010", got)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lf", "a\nb\nc", []string{"a", "b", "c"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"mixed", "a\rb\nc\r\nd", []string{"a", "b", "c", "d"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitLines(tt.input)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
