package fulmenlog

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink is anything the logging engine can write formatted output to.
// A Sink is just an io.Writer with a name, so multiple sinks compose
// via io.MultiWriter.
type Sink interface {
	Name() string
	io.Writer
}

// ConsoleSink writes to a process stream, stdout by default.
type ConsoleSink struct {
	name string
	w    io.Writer
}

// NewConsoleSink builds a ConsoleSink over w (os.Stdout if w is nil).
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{name: "console", w: w}
}

func (s *ConsoleSink) Name() string                { return s.name }
func (s *ConsoleSink) Write(p []byte) (int, error) { return s.w.Write(p) }

// RollingFileConfig parameterizes a rolling-file sink.
type RollingFileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// RollingFileSink writes to a size/age-rotated file via lumberjack.
type RollingFileSink struct {
	name    string
	logger  *lumberjack.Logger
}

// NewRollingFileSink builds a RollingFileSink from cfg, applying
// conventional defaults (100MB, 5 backups, 30 days) for zero fields.
func NewRollingFileSink(cfg RollingFileConfig) *RollingFileSink {
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 100
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 5
	}
	if cfg.MaxAgeDays == 0 {
		cfg.MaxAgeDays = 30
	}
	return &RollingFileSink{
		name: "rolling_file:" + cfg.Path,
		logger: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		},
	}
}

func (s *RollingFileSink) Name() string                { return s.name }
func (s *RollingFileSink) Write(p []byte) (int, error) { return s.logger.Write(p) }
func (s *RollingFileSink) Close() error                { return s.logger.Close() }

// ExternalSink adapts an arbitrary io.Writer (a network pipe, a test
// buffer, a custom exporter) supplied by the embedder.
type ExternalSink struct {
	name string
	w    io.Writer
}

// NewExternalSink wraps w, labeling it name for diagnostics.
func NewExternalSink(name string, w io.Writer) *ExternalSink {
	return &ExternalSink{name: name, w: w}
}

func (s *ExternalSink) Name() string                { return s.name }
func (s *ExternalSink) Write(p []byte) (int, error) { return s.w.Write(p) }

// NullSink discards everything written to it, for tests and disabled
// profiles.
type NullSink struct{}

func (NullSink) Name() string                { return "null" }
func (NullSink) Write(p []byte) (int, error) { return len(p), nil }
