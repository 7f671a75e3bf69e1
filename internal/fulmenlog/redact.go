package fulmenlog

import (
	"regexp"
	"strings"
)

// maxRedactionDepth bounds recursive map/slice walking so a maliciously
// or accidentally deep structure can't blow the stack (spec.md §8
// invariant "redaction ... depth-100 safety").
const maxRedactionDepth = 100

// maxRedactionScanLen bounds the pattern-scanning pass over a single
// string value (spec.md §4.5): past this length the value is left
// alone rather than run through every secretValuePatterns regexp.
const maxRedactionScanLen = 10 * 1024

// secretValuePatterns catch secrets embedded in free-form string values
// (e.g. a log message that happens to contain "token: abc123"),
// independent of field-name based redaction.
var secretValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)["']?\s*[:=]\s*["']?([^"'\s,}]+)["']?`),
	regexp.MustCompile(`(?i)(secret|token|auth)["']?\s*[:=]\s*["']?([^"'\s,}]+)["']?`),
	regexp.MustCompile(`(?i)(Bearer)\s+[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
	regexp.MustCompile(`(?i)(password)["']?\s*[:=]\s*["']?[^"'\s,}]+["']?`),
	regexp.MustCompile(`(?i)(private[_-]?key|privkey)["']?\s*[:=]\s*["']?([^"'\s,}]+)["']?`),
}

// defaultRedactedFieldNames are matched case-insensitively as
// substrings of a field name (spec.md "redaction case-insensitivity").
var defaultRedactedFieldNames = []string{
	"password", "secret", "token", "apikey", "api_key",
	"private_key", "credential", "authorization",
	"accesstoken", "access_token", "refreshtoken", "refresh_token",
}

// RedactionConfig controls a Redactor.
type RedactionConfig struct {
	RedactionText string
	FieldNames    []string
}

// DefaultRedactionConfig returns the conventional field list and
// placeholder text.
func DefaultRedactionConfig() RedactionConfig {
	return RedactionConfig{
		RedactionText: "[REDACTED]",
		FieldNames:    defaultRedactedFieldNames,
	}
}

// Redactor scrubs secret-shaped field values out of a log entry's
// field map before it reaches any sink.
type Redactor struct {
	cfg RedactionConfig
}

// NewRedactor builds a Redactor from cfg, filling in defaults for any
// zero-value field.
func NewRedactor(cfg RedactionConfig) *Redactor {
	if cfg.RedactionText == "" {
		cfg.RedactionText = "[REDACTED]"
	}
	if cfg.FieldNames == nil {
		cfg.FieldNames = defaultRedactedFieldNames
	}
	return &Redactor{cfg: cfg}
}

// Middleware adapts the Redactor to the logging pipeline's Middleware
// shape.
func (r *Redactor) Middleware() Middleware {
	return func(fields map[string]any) map[string]any {
		return r.redactMap(fields, 0)
	}
}

func (r *Redactor) redactMap(m map[string]any, depth int) map[string]any {
	if depth >= maxRedactionDepth {
		return map[string]any{"_redaction_depth_exceeded": true}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch {
		case r.isSecretField(k):
			out[k] = r.cfg.RedactionText
		case v == nil:
			out[k] = v
		default:
			out[k] = r.redactValue(v, depth+1)
		}
	}
	return out
}

func (r *Redactor) redactValue(v any, depth int) any {
	if depth >= maxRedactionDepth {
		return "***REDACTION-DEPTH-EXCEEDED***"
	}
	switch t := v.(type) {
	case string:
		return r.redactString(t)
	case map[string]any:
		return r.redactMap(t, depth)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = r.redactValue(e, depth+1)
		}
		return out
	default:
		return v
	}
}

func (r *Redactor) redactString(s string) string {
	if len(s) > maxRedactionScanLen {
		return s
	}
	result := s
	for _, pattern := range secretValuePatterns {
		result = pattern.ReplaceAllString(result, "${1}: "+r.cfg.RedactionText)
	}
	return result
}

func (r *Redactor) isSecretField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, blocked := range r.cfg.FieldNames {
		if strings.Contains(lower, strings.ToLower(blocked)) {
			return true
		}
	}
	return false
}
