package report

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// XunitFailure is one diagnostic reported against a file: where it fired,
// the diagnostic message, and the replacement clang-tidy recommended.
type XunitFailure struct {
	Location string
	Message  string
	Detail   string
}

type xunitFailure struct {
	XMLName xml.Name `xml:"failure"`
	Message string   `xml:"message,attr"`
	Detail  string   `xml:",cdata"`
}

type xunitTestCase struct {
	XMLName xml.Name      `xml:"testcase"`
	Name    string        `xml:"name,attr"`
	Failure *xunitFailure `xml:"failure"`
}

type xunitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Time      string          `xml:"time,attr"`
	TestCases []xunitTestCase `xml:"testcase"`
	SystemOut string          `xml:"system-out"`
}

// WriteXunit renders per-file failure lists as an xunit XML file. A failing
// file contributes one testcase per failure, named by the failure's
// file:line:column location and carrying the recommendation as CDATA; a
// clean file contributes one passing testcase named by the file. The suite
// name derives from the output file name with trailing .xml and .xunit
// stripped.
func WriteXunit(path string, failuresByFile map[string][]XunitFailure, elapsedSeconds float64) error {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".xml")
	name = strings.TrimSuffix(name, ".xunit")

	files := make([]string, 0, len(failuresByFile))
	for file := range failuresByFile {
		files = append(files, file)
	}
	sort.Strings(files)

	suite := xunitTestSuite{
		Name: name,
		Time: fmt.Sprintf("%.3f", elapsedSeconds),
	}
	for _, file := range files {
		failures := failuresByFile[file]
		if len(failures) == 0 {
			suite.TestCases = append(suite.TestCases, xunitTestCase{Name: file})
			suite.Tests++
			continue
		}
		for _, f := range failures {
			suite.TestCases = append(suite.TestCases, xunitTestCase{
				Name:    f.Location,
				Failure: &xunitFailure{Message: f.Message, Detail: f.Detail},
			})
		}
		suite.Tests += len(failures)
		suite.Failures += len(failures)
	}
	suite.SystemOut = fmt.Sprintf("Checked %d files", len(files))

	data, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return err
	}
	out := append([]byte(xml.Header), data...)
	out = append(out, '\n')
	return os.WriteFile(path, out, 0644)
}
