// Package fulmenlog implements the C5 logging engine: four presets
// (SIMPLE/STRUCTURED/ENTERPRISE/CUSTOM) over a logrus core, a
// middleware pipeline (redaction, field injection, transforms) that
// runs before every sink, pluggable sinks (console/rolling-file/
// external/null), and optional policy enforcement at construction
// time.
package fulmenlog

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
)

// ContextKey namespaces context values the logger reads automatically.
type ContextKey string

const (
	CorrelationIDKey ContextKey = "fulmen_correlation_id"
	ServiceKey       ContextKey = "fulmen_service"
)

// Middleware transforms a log entry's fields before it's written.
// Middlewares run in registration order; each sees the previous one's
// output (spec.md §4.5 "middleware pipeline").
type Middleware func(fields map[string]any) map[string]any

// Config constructs a Logger.
type Config struct {
	Service     string
	Environment string
	Level       string
	Profile     Profile

	Sinks       []Sink
	Middlewares []Middleware
	Policy      *Policy
}

// Logger is the engine's handle: a logrus core plus fulmen-go's
// profile/middleware/sink/policy wiring.
type Logger struct {
	core        *logrus.Logger
	service     string
	environment string
	profile     Profile
	middlewares []Middleware
	sinks       []Sink
	fields      map[string]any
}

// New builds a Logger from cfg. If cfg.Policy is set, the profile is
// checked against it and New returns a PolicyViolation error instead
// of a Logger when the profile isn't allowed.
func New(cfg Config) (*Logger, error) {
	if cfg.Policy != nil {
		if err := cfg.Policy.Enforce(cfg.Profile, cfg.Environment); err != nil {
			return nil, err
		}
	}

	defaults := defaultsFor(cfg.Profile)
	core := logrus.New()

	level, err := logrus.ParseLevel(orDefault(cfg.Level, "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	core.SetLevel(level)

	if defaults.jsonFormat {
		core.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		core.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	sinks := cfg.Sinks
	if len(sinks) == 0 {
		sinks = []Sink{NewConsoleSink(nil)}
	}
	if defaults.rollingFile && !hasRollingFileSink(sinks) {
		sinks = append(sinks, NewRollingFileSink(RollingFileConfig{Path: cfg.Service + ".log"}))
	}
	core.SetOutput(multiWriter(sinks))

	mws := cfg.Middlewares
	if defaults.redact && !hasRedactionMiddleware(mws) {
		mws = append([]Middleware{NewRedactor(DefaultRedactionConfig()).Middleware()}, mws...)
	}

	return &Logger{
		core:        core,
		service:     cfg.Service,
		environment: cfg.Environment,
		profile:     cfg.Profile,
		middlewares: mws,
		sinks:       sinks,
		fields:      map[string]any{},
	}, nil
}

func hasRollingFileSink(sinks []Sink) bool {
	for _, s := range sinks {
		if _, ok := s.(*RollingFileSink); ok {
			return true
		}
	}
	return false
}

func hasRedactionMiddleware(mws []Middleware) bool {
	return len(mws) > 0
}

func multiWriter(sinks []Sink) io.Writer {
	writers := make([]io.Writer, len(sinks))
	for i, s := range sinks {
		writers[i] = s
	}
	return io.MultiWriter(writers...)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Child returns a derived Logger that always carries extraFields in
// addition to anything this logger already carries (spec.md
// supplement "child loggers").
func (l *Logger) Child(extraFields map[string]any) *Logger {
	merged := make(map[string]any, len(l.fields)+len(extraFields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range extraFields {
		merged[k] = v
	}
	return &Logger{
		core:        l.core,
		service:     l.service,
		environment: l.environment,
		profile:     l.profile,
		middlewares: l.middlewares,
		sinks:       l.sinks,
		fields:      merged,
	}
}

func (l *Logger) entry(ctx context.Context, extra map[string]any) *logrus.Entry {
	fields := make(map[string]any, len(l.fields)+len(extra)+4)
	fields["service"] = l.service
	for k, v := range l.fields {
		fields[k] = v
	}
	if ctx != nil {
		if cid := ctx.Value(CorrelationIDKey); cid != nil {
			fields["correlation_id"] = cid
		}
	}
	for k, v := range extra {
		fields[k] = v
	}
	if l.profile == ProfileEnterprise {
		fields["host"] = processHostname
		fields["pid"] = os.Getpid()
		if _, ok := fields["correlation_id"]; !ok {
			fields["correlation_id"] = uuid.NewString()
		}
	}
	for _, mw := range l.middlewares {
		fields = mw(fields)
	}
	return l.core.WithFields(logrus.Fields(fields))
}

// processHostname is resolved once at process start; ENTERPRISE-profile
// entries carry it on every log line (spec.md §4.5 "enterprise metadata").
var processHostname = func() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}()

func (l *Logger) Debug(msg string, fields map[string]any) { l.entry(nil, fields).Debug(msg) }
func (l *Logger) Info(msg string, fields map[string]any)  { l.entry(nil, fields).Info(msg) }
func (l *Logger) Warn(msg string, fields map[string]any)  { l.entry(nil, fields).Warn(msg) }
func (l *Logger) Error(msg string, fields map[string]any) { l.entry(nil, fields).Error(msg) }

// InfoContext logs at info level, pulling correlation id (and any
// future context-carried fields) out of ctx first.
func (l *Logger) InfoContext(ctx context.Context, msg string, fields map[string]any) {
	l.entry(ctx, fields).Info(msg)
}

// ErrorContext logs at error level, attaching err's message and, for a
// *fulmenerrors.Error, its code/severity/correlation id.
func (l *Logger) ErrorContext(ctx context.Context, msg string, err error, fields map[string]any) {
	merged := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		merged[k] = v
	}
	if err != nil {
		merged["error"] = err.Error()
		if fe, ok := fulmenerrors.As(err); ok {
			merged["error_code"] = string(fe.Code)
			merged["error_severity"] = string(fe.Severity)
			merged["error_correlation_id"] = fe.CorrelationID
		}
	}
	l.entry(ctx, merged).Error(msg)
}

// WithCorrelationID returns a context carrying id for later loggers to
// pick up automatically.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// Flush closes any sink that needs an explicit flush/close (currently
// only RollingFileSink); safe to call on a Logger with no such sinks.
func (l *Logger) Flush() error {
	var firstErr error
	for _, s := range l.sinks {
		if rf, ok := s.(*RollingFileSink); ok {
			if err := rf.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Discard builds a Logger that writes nowhere, for tests.
func Discard() *Logger {
	l, _ := New(Config{Service: "test", Profile: ProfileCustom, Sinks: []Sink{NullSink{}}})
	return l
}
