// Package fulmenerrors provides the structured error envelope shared by
// every fulmen-go subsystem: signals, logging, telemetry, schema, and
// catalog loading all wrap failures the same way.
package fulmenerrors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Severity classifies how urgently an error needs attention.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Code identifies the kind of failure, independent of its message.
type Code string

const (
	CodeConfigInvalid             Code = "config_invalid"
	CodeDataInvalid               Code = "data_invalid"
	CodeFileNotFound              Code = "file_not_found"
	CodeFileWrite                 Code = "file_write"
	CodeOperationFailed           Code = "operation_failed"
	CodeCatalogMissing            Code = "catalog_missing"
	CodeCatalogInvalidSchema      Code = "catalog_invalid_schema"
	CodeSchemaValidation          Code = "schema_validation"
	CodeSchemaNotFound            Code = "schema_not_found"
	CodeSchemaCompile             Code = "schema_compile"
	CodeSchemaExport              Code = "schema_export"
	CodePolicyViolation           Code = "policy_violation"
	CodeDigestState               Code = "digest_state"
	CodeInvalidChecksum           Code = "invalid_checksum"
	CodeUnsupportedAlgorithm      Code = "unsupported_algorithm"
	CodeExportFileExists          Code = "export_file_exists"
	CodeExportInvalidFormat       Code = "export_invalid_format"
	CodeHandlerTimeout            Code = "handler_timeout"
	CodeHandlerError              Code = "handler_error"
	CodeConfigReloadValidation    Code = "config_reload_validation_failed"
	CodeConfigReloadError         Code = "config_reload_error"
	CodeHTTPAuthFailed            Code = "http_auth_failed"
	CodeHTTPRateLimited           Code = "http_rate_limited"
)

// defaultSeverity and defaultExitCode give each code a conventional
// behavior when the caller doesn't override it explicitly.
var defaultSeverity = map[Code]Severity{
	CodeConfigInvalid:          SeverityHigh,
	CodeDataInvalid:            SeverityMedium,
	CodeFileNotFound:           SeverityMedium,
	CodeFileWrite:              SeverityHigh,
	CodeCatalogMissing:         SeverityHigh,
	CodeCatalogInvalidSchema:   SeverityHigh,
	CodeSchemaValidation:       SeverityMedium,
	CodeSchemaNotFound:         SeverityMedium,
	CodeSchemaCompile:          SeverityHigh,
	CodeSchemaExport:           SeverityMedium,
	CodePolicyViolation:        SeverityHigh,
	CodeDigestState:            SeverityMedium,
	CodeInvalidChecksum:        SeverityMedium,
	CodeUnsupportedAlgorithm:   SeverityHigh,
	CodeExportFileExists:       SeverityLow,
	CodeExportInvalidFormat:    SeverityMedium,
	CodeHandlerTimeout:         SeverityLow,
	CodeHandlerError:           SeverityLow,
	CodeConfigReloadValidation: SeverityLow,
	CodeConfigReloadError:      SeverityMedium,
	CodeHTTPAuthFailed:         SeverityLow,
	CodeHTTPRateLimited:        SeverityLow,
}

// defaultExitCode maps a handful of codes to conventional process exit
// codes (§4.8 and §6 of the spec). Codes not listed here carry no
// inherent exit code; CodeOperationFailed is caller-configurable.
var defaultExitCode = map[Code]int{
	CodeConfigInvalid:     30,
	CodeDataInvalid:       40,
	CodeFileNotFound:      51,
	CodeFileWrite:         54,
	CodeExportFileExists:  54,
	CodeConfigReloadError: 1,
}

// Error is the immutable envelope every fulmen-go subsystem returns for
// structured failures. Wrapping preserves the cause chain via Unwrap.
type Error struct {
	Code          Code
	Message       string
	Severity      Severity
	CorrelationID string
	Cause         error
	Context       map[string]any
}

// New builds an Error with a fresh correlation id and the code's default
// severity.
func New(code Code, message string) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		Severity:      severityFor(code),
		CorrelationID: uuid.New().String(),
	}
}

func severityFor(code Code) Severity {
	if s, ok := defaultSeverity[code]; ok {
		return s
	}
	return SeverityMedium
}

// ExitCode returns the conventional process exit code for this error's
// Code, or 0 when none is defined.
func (e *Error) ExitCode() int {
	return defaultExitCode[e.Code]
}

// WithContext attaches a key/value pair to the error's context map and
// returns the same error for chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithCause sets the underlying cause, replacing any cause already set;
// Unwrap still walks further when the supplied cause itself wraps
// another error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithSeverity overrides the code's default severity.
func (e *Error) WithSeverity(s Severity) *Error {
	e.Severity = s
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the cause chain to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Wrap lifts a plain error into an Error envelope, preserving it as the
// cause, without losing an already-wrapped Error's own chain.
func Wrap(code Code, message string, cause error) *Error {
	return New(code, message).WithCause(cause)
}

// FromError lifts an opaque error into the envelope with the given code
// and severity. If the input already is (or wraps) an Error, its
// message, correlation id, cause and context are reused.
func FromError(err error, code Code, severity Severity, context map[string]any) *Error {
	var existing *Error
	if errors.As(err, &existing) {
		merged := &Error{
			Code:          code,
			Message:       existing.Message,
			Severity:      severity,
			CorrelationID: existing.CorrelationID,
			Cause:         existing.Cause,
			Context:       existing.Context,
		}
		for k, v := range context {
			merged.WithContext(k, v)
		}
		return merged
	}
	e := New(code, err.Error()).WithCause(err)
	e.Severity = severity
	for k, v := range context {
		e.WithContext(k, v)
	}
	return e
}

// Is reports whether err carries the given Code anywhere in its chain.
func Is(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// As extracts the first *Error in err's chain, mirroring errors.As.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Helper constructors for the most frequently raised kinds across the
// other subsystems — mirrors the teacher's per-domain constructor
// pattern (infrastructure/errors.Unauthorized, .NotFound, ...).

func CatalogMissing(name string) *Error {
	return New(CodeCatalogMissing, fmt.Sprintf("catalog %q not found", name)).
		WithContext("catalog", name)
}

func CatalogInvalidSchema(name, reason string, cause error) *Error {
	return Wrap(CodeCatalogInvalidSchema, fmt.Sprintf("catalog %q failed schema validation: %s", name, reason), cause).
		WithContext("catalog", name)
}

func SchemaNotFound(id string) *Error {
	return New(CodeSchemaNotFound, fmt.Sprintf("schema %q not found", id)).
		WithContext("schema_id", id)
}

func SchemaCompileFailed(id string, cause error) *Error {
	return Wrap(CodeSchemaCompile, fmt.Sprintf("schema %q failed to compile", id), cause).
		WithContext("schema_id", id)
}

func PolicyViolation(message string) *Error {
	return New(CodePolicyViolation, message)
}

func DigestStateError(op, state string) *Error {
	return New(CodeDigestState, fmt.Sprintf("cannot %s a hasher in state %s", op, state)).
		WithContext("operation", op).
		WithContext("state", state)
}

func InvalidChecksum(reason string) *Error {
	return New(CodeInvalidChecksum, reason)
}

func UnsupportedAlgorithm(name string) *Error {
	return New(CodeUnsupportedAlgorithm, fmt.Sprintf("unsupported digest algorithm %q", name)).
		WithContext("algorithm", name)
}

func ExportFileExists(path string) *Error {
	return New(CodeExportFileExists, fmt.Sprintf("%s already exists", path)).
		WithContext("path", path)
}

func ExportInvalidFormat(format string) *Error {
	return New(CodeExportInvalidFormat, fmt.Sprintf("unsupported export format %q", format)).
		WithContext("format", format)
}
