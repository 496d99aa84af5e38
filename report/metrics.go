package report

// Metrics accumulates run counters. All increments go through the Writer,
// whose mutex serializes them.
type Metrics struct {
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	TotalFiles       int    `json:"total_files"`
	FilesChecked     int    `json:"files_checked"`
	FilesSkipped     int    `json:"files_skipped"`
	HeadersKnown     int    `json:"headers_known"`
	HeadersUnknown   int    `json:"headers_unknown"`
	HeadersUnparsed  int    `json:"headers_unparsed"`
	TidyInvocations  int    `json:"tidy_invocations"`
	TidyDiagnostics  int    `json:"tidy_diagnostics"`
	TidySuppressed   int    `json:"tidy_suppressed"`
	TidyDuplicates   int    `json:"tidy_duplicates"`
	InvocationErrors int    `json:"invocation_errors"`
}
