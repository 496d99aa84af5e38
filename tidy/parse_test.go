package tidy

import (
	"testing"
)

var testExtensions = []string{"c", "cc", "cpp", "cxx", "h", "hh", "hpp", "hxx"}

func TestParseOutputSingleDiagnostic(t *testing.T) {
	output := "/ws/pkg/src/node.cpp:10:5: warning: use nullptr [modernize-use-nullptr]\n" +
		"  int *p = 0;\n" +
		"           ^\n"
	results := parseOutput(output, testExtensions)
	diags := results["/ws/pkg/src/node.cpp"]
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(diags))
	}
	d := diags[0]
	if d.Line != 10 || d.Column != 5 {
		t.Errorf("location = %d:%d, want 10:5", d.Line, d.Column)
	}
	if d.Message != "use nullptr [modernize-use-nullptr]" {
		t.Errorf("message = %q", d.Message)
	}
	if d.Recommendation != "  int *p = 0;\n           ^\n\n" {
		t.Errorf("recommendation = %q", d.Recommendation)
	}
}

func TestParseOutputMultipleFiles(t *testing.T) {
	output := "/ws/a.cpp:1:1: warning: first [check-a]\n" +
		"/ws/a.cpp:2:2: warning: second [check-b]\n" +
		"/ws/b.hpp:3:3: error: third [check-c]\n"
	results := parseOutput(output, testExtensions)
	if len(results["/ws/a.cpp"]) != 2 {
		t.Errorf("a.cpp: got %d diagnostics, want 2", len(results["/ws/a.cpp"]))
	}
	if len(results["/ws/b.hpp"]) != 1 {
		t.Errorf("b.hpp: got %d diagnostics, want 1", len(results["/ws/b.hpp"]))
	}
	if got := results["/ws/a.cpp"][1].Message; got != "second [check-b]" {
		t.Errorf("message = %q", got)
	}
}

func TestParseOutputBannerDropped(t *testing.T) {
	output := "12 warnings generated.\n" +
		"Suppressed 11 warnings.\n" +
		"/ws/a.cpp:1:1: warning: only [check]\n"
	results := parseOutput(output, testExtensions)
	diags := results["/ws/a.cpp"]
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(diags))
	}
	if diags[0].Recommendation != "" {
		t.Errorf("banner leaked into recommendation: %q", diags[0].Recommendation)
	}
}

func TestParseOutputUnlistedExtensionIgnored(t *testing.T) {
	output := "/ws/a.py:1:1: warning: not c++ [check]\n"
	if results := parseOutput(output, testExtensions); len(results) != 0 {
		t.Errorf("got %d files, want 0", len(results))
	}
}

func TestParseOutputEmpty(t *testing.T) {
	if results := parseOutput("", testExtensions); len(results) != 0 {
		t.Errorf("got %d files, want 0", len(results))
	}
}

func TestMessageOf(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"/ws/a.cpp:1:1: warning: use nullptr [check]", "use nullptr [check]"},
		{"no colon here", ""},
		{"trailing:", ""},
	}
	for _, tt := range tests {
		if got := messageOf(tt.line); got != tt.want {
			t.Errorf("messageOf(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
