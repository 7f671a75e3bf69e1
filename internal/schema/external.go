package schema

import (
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// externalValidatorPath resolves the optional external validator
// binary: $GONEAT_PATH first, then a bundled "goneat" on PATH. It never
// fails — an unavailable external validator degrades silently to the
// in-process validator per spec.md §9 ("External validator is a
// bridge, not a dependency").
func externalValidatorPath() (string, bool) {
	if p := strings.TrimSpace(os.Getenv("GONEAT_PATH")); p != "" {
		if isExecutable(p) {
			return p, true
		}
	}
	if p, err := exec.LookPath("goneat"); err == nil {
		return p, true
	}
	return "", false
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}

// bridgeLogger is the internal diagnostic logger for the external
// validator bridge, kept distinct from the user-facing logging engine
// (C5) so library-internal noise never reaches an application's sinks.
var bridgeLogger = zap.NewNop()

// SetBridgeLogger lets an embedder observe external-bridge diagnostics
// (bridge availability, subprocess failures) without wiring it through
// the C5 logging engine.
func SetBridgeLogger(l *zap.Logger) {
	if l != nil {
		bridgeLogger = l
	}
}

// ValidateDataExternal attempts to validate data against the schema at
// schemaPath using the external validator binary, if one is available.
// On unavailability it returns a Result carrying a single WARN
// diagnostic with keyword "goneat-unavailable" and ok=false, signaling
// the caller to fall back to the in-process validator.
func ValidateDataExternal(schemaPath string, dataPath string) (result Result, ok bool) {
	bin, available := externalValidatorPath()
	if !available {
		return Result{
			Valid: false,
			Diagnostics: []Diagnostic{{
				Message:  "external validator binary not found; falling back to in-process validation",
				Keyword:  "goneat-unavailable",
				Severity: SeverityWarn,
				Source:   SourceGoneat,
			}},
			Source: SourceGoneat,
		}, false
	}

	cmd := exec.Command(bin, "validate", "--schema", schemaPath, dataPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		bridgeLogger.Warn("external validator invocation failed",
			zap.String("binary", bin), zap.Error(err), zap.ByteString("output", out))
		return Result{
			Valid: false,
			Diagnostics: []Diagnostic{{
				Message:  "external validator exited with an error: " + err.Error(),
				Keyword:  "goneat-error",
				Severity: SeverityWarn,
				Source:   SourceGoneat,
			}},
			Source: SourceGoneat,
		}, false
	}
	return Result{Valid: true, Source: SourceGoneat}, true
}
