package schema

// Severity classifies a single validation diagnostic.
type Severity string

const (
	SeverityError Severity = "ERROR"
	SeverityWarn  Severity = "WARN"
)

// Source identifies which engine produced a validation result.
type Source string

const (
	SourceAJV    Source = "ajv"
	SourceGoneat Source = "goneat"
)

// Diagnostic describes a single validation finding.
type Diagnostic struct {
	Pointer  string // JSON pointer, or "" for document-level findings
	Message  string
	Keyword  string
	Severity Severity
	Source   Source
	Data     any
}

// Result is the outcome of validating data or a file against a
// CompiledValidator. Data validation never throws; callers inspect
// Valid and Diagnostics instead (spec.md §4.2 failure model).
type Result struct {
	Valid       bool
	Diagnostics []Diagnostic
	Source      Source
}

// FormatDiagnostics renders diagnostics for human consumption.
// FormatDiagnostics(nil) returns the fixed "no issues" message.
func FormatDiagnostics(diags []Diagnostic) string {
	if len(diags) == 0 {
		return "No validation issues found."
	}
	out := ""
	for i, d := range diags {
		if i > 0 {
			out += "\n"
		}
		pointer := d.Pointer
		if pointer == "" {
			pointer = "(root)"
		}
		out += string(d.Severity) + " " + pointer + ": " + d.Message + " [" + d.Keyword + "]"
	}
	return out
}
