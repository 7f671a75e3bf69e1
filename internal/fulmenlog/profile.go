package fulmenlog

// Profile selects a pre-built combination of formatter, default
// middleware, and sink wiring (spec.md §4.5). CUSTOM opts out of the
// presets entirely and takes whatever the caller configures by hand.
type Profile string

const (
	// ProfileSimple is plain text, no redaction, console-only: local
	// development.
	ProfileSimple Profile = "SIMPLE"
	// ProfileStructured is JSON output with redaction, console-only:
	// typical service deployment.
	ProfileStructured Profile = "STRUCTURED"
	// ProfileEnterprise is JSON output with redaction and a rolling file
	// sink. Policy enforcement is not switched on by the preset; New
	// enforces a policy only when Config.Policy is set.
	ProfileEnterprise Profile = "ENTERPRISE"
	// ProfileCustom applies no preset at all.
	ProfileCustom Profile = "CUSTOM"
)

// profileDefaults describes what each preset wires in on top of the
// caller's Config. The preset redactor is added only when
// Config.Middlewares is empty: any caller-supplied middleware replaces
// it. New does not read enforcePolicy.
type profileDefaults struct {
	jsonFormat    bool
	redact        bool
	rollingFile   bool
	enforcePolicy bool
}

func defaultsFor(p Profile) profileDefaults {
	switch p {
	case ProfileSimple:
		return profileDefaults{jsonFormat: false, redact: false}
	case ProfileStructured:
		return profileDefaults{jsonFormat: true, redact: true}
	case ProfileEnterprise:
		return profileDefaults{jsonFormat: true, redact: true, rollingFile: true, enforcePolicy: true}
	default: // ProfileCustom
		return profileDefaults{}
	}
}
