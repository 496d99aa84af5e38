package report

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteXunit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lint.xunit.xml")
	failures := map[string][]XunitFailure{
		"/ws/a.cpp": {
			{Location: "/ws/a.cpp:3:5", Message: "use nullptr [check]", Detail: "  ptr = nullptr;"},
			{Location: "/ws/a.cpp:9:1", Message: "missing include [check]"},
		},
		"/ws/b.cpp": {},
	}
	if err := WriteXunit(path, failures, 1.5); err != nil {
		t.Fatalf("WriteXunit failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read xunit file: %v", err)
	}
	var suite struct {
		Name      string `xml:"name,attr"`
		Tests     int    `xml:"tests,attr"`
		Failures  int    `xml:"failures,attr"`
		Time      string `xml:"time,attr"`
		TestCases []struct {
			Name    string `xml:"name,attr"`
			Failure *struct {
				Message string `xml:"message,attr"`
				Detail  string `xml:",cdata"`
			} `xml:"failure"`
		} `xml:"testcase"`
	}
	if err := xml.Unmarshal(data, &suite); err != nil {
		t.Fatalf("invalid xunit XML: %v", err)
	}

	// name strips .xml then .xunit
	if suite.Name != "lint" {
		t.Errorf("suite name = %q, want lint", suite.Name)
	}
	// failing file counts one test per failure, clean file counts one
	if suite.Tests != 3 {
		t.Errorf("tests = %d, want 3", suite.Tests)
	}
	if suite.Failures != 2 {
		t.Errorf("failures = %d, want 2", suite.Failures)
	}
	if suite.Time != "1.500" {
		t.Errorf("time = %q, want 1.500", suite.Time)
	}
	if len(suite.TestCases) != 3 {
		t.Fatalf("got %d testcases, want 3", len(suite.TestCases))
	}
	// failing testcases are named by location and carry the recommendation
	first := suite.TestCases[0]
	if first.Name != "/ws/a.cpp:3:5" || first.Failure == nil {
		t.Fatalf("unexpected first testcase: %+v", first)
	}
	if first.Failure.Message != "use nullptr [check]" {
		t.Errorf("failure message = %q", first.Failure.Message)
	}
	if first.Failure.Detail != "  ptr = nullptr;" {
		t.Errorf("failure detail = %q", first.Failure.Detail)
	}
	if suite.TestCases[1].Name != "/ws/a.cpp:9:1" || suite.TestCases[1].Failure == nil {
		t.Errorf("unexpected second testcase: %+v", suite.TestCases[1])
	}
	// clean file contributes one passing testcase named by the file
	if suite.TestCases[2].Name != "/ws/b.cpp" || suite.TestCases[2].Failure != nil {
		t.Errorf("unexpected third testcase: %+v", suite.TestCases[2])
	}
	if !strings.HasPrefix(string(data), xml.Header) {
		t.Error("missing XML declaration")
	}
}

func TestWriteXunitEmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xml")
	if err := WriteXunit(path, map[string][]XunitFailure{}, 0); err != nil {
		t.Fatalf("WriteXunit failed: %v", err)
	}
	var suite struct {
		Tests    int `xml:"tests,attr"`
		Failures int `xml:"failures,attr"`
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read xunit file: %v", err)
	}
	if err := xml.Unmarshal(data, &suite); err != nil {
		t.Fatalf("invalid xunit XML: %v", err)
	}
	if suite.Tests != 0 || suite.Failures != 0 {
		t.Errorf("counts = %d/%d, want 0/0", suite.Tests, suite.Failures)
	}
}
