package catalog

// SignalDescriptor is the catalog-sourced shape of one OS signal
// (spec.md §3 "Signal descriptor").
type SignalDescriptor struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	UnixNumber int   `yaml:"unix_number"`

	WindowsEvent      *int               `yaml:"windows_event"`
	PlatformOverrides PlatformOverrides  `yaml:"platform_overrides"`

	DefaultBehavior BehaviorVariant `yaml:"default_behavior"`
	ExitCode        int             `yaml:"exit_code"`

	DoubleTap      *DoubleTapParams      `yaml:"double_tap,omitempty"`
	WindowsFallback *WindowsFallback     `yaml:"windows_fallback,omitempty"`
}

// BehaviorVariant is the default handling strategy for a signal.
type BehaviorVariant string

const (
	BehaviorGracefulShutdown            BehaviorVariant = "graceful_shutdown"
	BehaviorGracefulShutdownDoubleTap   BehaviorVariant = "graceful_shutdown_with_double_tap"
	BehaviorReloadViaRestart            BehaviorVariant = "reload_via_restart"
	BehaviorImmediateExit               BehaviorVariant = "immediate_exit"
	BehaviorCustom                      BehaviorVariant = "custom"
	BehaviorObserveOnly                 BehaviorVariant = "observe_only"
)

// PlatformOverrides carries per-OS signal number remaps.
type PlatformOverrides struct {
	Darwin  *int `yaml:"darwin,omitempty"`
	FreeBSD *int `yaml:"freebsd,omitempty"`
}

// DoubleTapParams parameterizes the double-tap pattern (SIGINT).
type DoubleTapParams struct {
	WindowSeconds float64 `yaml:"window_seconds"`
	ExitCode      int     `yaml:"exit_code"`
	Message       string  `yaml:"message"`
}

// WindowsFallback describes the HTTP/log fallback used when a signal
// has no native Windows event.
type WindowsFallback struct {
	FallbackBehavior string            `yaml:"fallback_behavior"`
	LogLevel         string            `yaml:"log_level"`
	LogMessage       string            `yaml:"log_message"`
	OperationHint    string            `yaml:"operation_hint"`
	TelemetryEvent   string            `yaml:"telemetry_event"`
	TelemetryTags    map[string]string `yaml:"telemetry_tags,omitempty"`
}

// SignalCatalog is the parsed signals.yaml document.
type SignalCatalog struct {
	Version string             `yaml:"version"`
	Signals []SignalDescriptor `yaml:"signals"`
}

// ByName indexes the catalog's signals by name for O(1) lookup.
func (c *SignalCatalog) ByName() map[string]SignalDescriptor {
	out := make(map[string]SignalDescriptor, len(c.Signals))
	for _, s := range c.Signals {
		out[s.Name] = s
	}
	return out
}

// MetricDefinition is one entry of the metrics taxonomy catalog.
type MetricDefinition struct {
	Name            string    `yaml:"name"`
	Kind            string    `yaml:"kind"` // counter | gauge | histogram
	Unit            string    `yaml:"unit"`
	Description     string    `yaml:"description"`
	RequiredLabels  []string  `yaml:"required_labels,omitempty"`
	DefaultBuckets  []float64 `yaml:"default_buckets,omitempty"`
}

// MetricsTaxonomy is the parsed metrics taxonomy catalog.
type MetricsTaxonomy struct {
	Version string             `yaml:"version"`
	Metrics []MetricDefinition `yaml:"metrics"`
}

// ByName indexes taxonomy metrics by name.
func (t *MetricsTaxonomy) ByName() map[string]MetricDefinition {
	out := make(map[string]MetricDefinition, len(t.Metrics))
	for _, m := range t.Metrics {
		out[m.Name] = m
	}
	return out
}

// ExitCodeEntry documents one conventional process exit code.
type ExitCodeEntry struct {
	Code        int    `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// ExitCodeCatalog is the parsed exit-codes catalog.
type ExitCodeCatalog struct {
	Version   string          `yaml:"version"`
	ExitCodes []ExitCodeEntry `yaml:"exit_codes"`
}
