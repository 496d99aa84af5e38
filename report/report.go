// Package report serializes classification and diagnostic results into a
// rotating report file, optionally mirroring every record to an OTLP logs
// endpoint.
package report

const SchemaVersion = "1.0"

// HeaderRecord is the per-file outcome of header classification. Identifier
// fields follow the registry convention: "unknown" after a failed comparison,
// empty when no comparison was attempted.
type HeaderRecord struct {
	Path                string `json:"path"`
	Category            string `json:"category"`
	Status              string `json:"status"`
	CopyrightYears      string `json:"copyright_years,omitempty"`
	CopyrightName       string `json:"copyright_name,omitempty"`
	CopyrightIdentifier string `json:"copyright_identifier,omitempty"`
	LicenseIdentifier   string `json:"license_identifier,omitempty"`
	NearestLicense      string `json:"nearest_license,omitempty"`
	NearestDistance     int    `json:"nearest_distance,omitempty"`
	Size                int64  `json:"size"`
	ContentDigest       string `json:"content_digest,omitempty"`
	ModTime             string `json:"mod_time,omitempty"`
	ChangeTime          string `json:"change_time,omitempty"`
	BirthTime           string `json:"birth_time,omitempty"`
}

// TidyRecord is one diagnostic scraped from clang-tidy output.
type TidyRecord struct {
	Package        string `json:"package,omitempty"`
	File           string `json:"file"`
	Line           int    `json:"line"`
	Column         int    `json:"column"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation,omitempty"`
	Suppressed     bool   `json:"suppressed,omitempty"`
}
