// Package fulmensignal provides cross-platform signal registration and
// dispatch: handlers register against catalog-defined signal names,
// fire in priority order with per-handler timeouts, and the manager
// understands the double-tap SIGINT pattern, SIGHUP's reload-via-
// restart convention, and Windows' lack of POSIX real-time signals.
package fulmensignal

import (
	"context"
	"os"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fulmenhq/fulmen-go/internal/catalog"
	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
)

// Logger is the minimal logging surface the manager needs; C5's
// Logger satisfies it, and tests can supply a stub.
type Logger interface {
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// Telemetry is the minimal metrics surface the manager uses to record
// signal activity and Windows fallback events; C6's Engine satisfies
// it. IncrCounter returns an error so dispatch failures that also fail
// to record their own telemetry aren't swallowed twice.
type Telemetry interface {
	IncrCounter(name string, labels map[string]string) error
}

type nopLogger struct{}

func (nopLogger) Info(string, map[string]any)  {}
func (nopLogger) Warn(string, map[string]any)  {}
func (nopLogger) Error(string, map[string]any) {}

type nopTelemetry struct{}

func (nopTelemetry) IncrCounter(string, map[string]string) error { return nil }

// ExitFunc terminates the process; tests override it to avoid actually
// exiting.
type ExitFunc func(code int)

// Manager owns handler registration, dispatch ordering, and the
// double-tap/reload state machines. A zero-value Manager is not
// usable; use NewManager.
type Manager struct {
	loader    *catalog.Loader
	logger    Logger
	telemetry Telemetry
	exit      ExitFunc

	mu       sync.Mutex
	handlers map[string][]*Handler
	seq      int64

	doubleTap map[string]*doubleTapState
	reload    *reloadTracker

	configValidate    ConfigValidator
	onConfigValidated func()

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithLogger overrides the manager's logger (default: no-op).
func WithLogger(l Logger) Option { return func(m *Manager) { m.logger = l } }

// WithTelemetry overrides the manager's telemetry sink (default: no-op).
func WithTelemetry(t Telemetry) Option { return func(m *Manager) { m.telemetry = t } }

// WithExitFunc overrides the function used for TimeoutForceExit and
// double-tap forced exits (default: os.Exit).
func WithExitFunc(f ExitFunc) Option { return func(m *Manager) { m.exit = f } }

// NewManager constructs a Manager backed by loader's signals catalog.
func NewManager(loader *catalog.Loader, opts ...Option) *Manager {
	m := &Manager{
		loader:    loader,
		logger:    nopLogger{},
		telemetry: nopTelemetry{},
		exit:      defaultExit,
		handlers:  make(map[string][]*Handler),
		doubleTap: make(map[string]*doubleTapState),
		reload:    newReloadTracker(),
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// emitTelemetry records a telemetry event and logs the failure (rather
// than silently discarding it) if the telemetry sink itself errors,
// e.g. because the event name isn't declared in the metrics taxonomy.
func (m *Manager) emitTelemetry(name string, labels map[string]string) {
	if err := m.telemetry.IncrCounter(name, labels); err != nil {
		m.logger.Warn("failed to emit telemetry", map[string]any{"metric": name, "error": err.Error()})
	}
}

// RegisterHandler adds h to the dispatch list for h.Signal. Handlers
// fire in descending Priority order; ties break by registration order
// (spec.md §4.4 "handler ordering").
func (m *Manager) RegisterHandler(h Handler) error {
	descriptors, err := m.descriptorsByName()
	if err != nil {
		return err
	}
	if _, ok := descriptors[h.Signal]; !ok {
		return fulmenerrors.New(fulmenerrors.CodeDataInvalid, "unknown signal "+h.Signal).
			WithContext("signal", h.Signal)
	}
	if h.Timeout <= 0 {
		h.Timeout = 5 * time.Second
	}
	if h.TimeoutBehavior == "" {
		h.TimeoutBehavior = TimeoutLogAndContinue
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	copied := h
	copied.registrationSeq = atomic.AddInt64(&m.seq, 1)
	m.handlers[h.Signal] = append(m.handlers[h.Signal], &copied)
	sort.SliceStable(m.handlers[h.Signal], func(i, j int) bool {
		a, b := m.handlers[h.Signal][i], m.handlers[h.Signal][j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.registrationSeq < b.registrationSeq
	})
	return nil
}

func (m *Manager) descriptorsByName() (map[string]catalog.SignalDescriptor, error) {
	cat, err := m.loader.Signals()
	if err != nil {
		return nil, err
	}
	return cat.ByName(), nil
}

// IsSupported reports whether name is deliverable natively on the
// current platform (spec.md "capability detection").
func (m *Manager) IsSupported(name string) bool {
	descriptors, err := m.descriptorsByName()
	if err != nil {
		return false
	}
	d, ok := descriptors[name]
	if !ok {
		return false
	}
	return platformSupports(d)
}

// ListSupported returns every catalog signal name deliverable natively
// on the current platform.
func (m *Manager) ListSupported() ([]string, error) {
	descriptors, err := m.descriptorsByName()
	if err != nil {
		return nil, err
	}
	var out []string
	for name, d := range descriptors {
		if platformSupports(d) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Handle runs every registered handler for name in priority order,
// applying each handler's timeout and TimeoutBehavior, plus the
// signal's double-tap/reload special cases. It is the single dispatch
// path used both by the real OS-signal listener loop (Start) and by
// programmatic/HTTP-fallback triggers (TriggerSignal), so tests can
// exercise the full algorithm without sending actual signals.
func (m *Manager) Handle(ctx context.Context, name string) error {
	descriptors, err := m.descriptorsByName()
	if err != nil {
		return err
	}
	d, ok := descriptors[name]
	if !ok {
		return fulmenerrors.New(fulmenerrors.CodeDataInvalid, "unknown signal "+name).WithContext("signal", name)
	}

	m.emitTelemetry("fulmen_signal_received_total", map[string]string{"signal": name})

	if d.DefaultBehavior == catalog.BehaviorGracefulShutdownDoubleTap && d.DoubleTap != nil {
		forced := m.recordDoubleTap(name, *d.DoubleTap)
		if forced {
			m.logger.Warn("double-tap threshold reached, forcing exit", map[string]any{"signal": name})
			m.exit(d.DoubleTap.ExitCode)
			return nil
		}
	}

	isReload := d.DefaultBehavior == catalog.BehaviorReloadViaRestart
	if isReload && m.configValidate != nil {
		return m.handleConfigReload(ctx, d)
	}
	if isReload {
		m.reload.recordAttempt()
	}

	m.mu.Lock()
	handlers := append([]*Handler(nil), m.handlers[name]...)
	m.mu.Unlock()

	allOK := true
	for _, h := range handlers {
		if herr := m.runOne(ctx, d, h); herr != nil {
			allOK = false
		}
	}

	if isReload {
		if exhausted := m.reload.recordOutcome(allOK); exhausted {
			m.logger.Error("reload failed three times consecutively, forcing exit", map[string]any{"signal": name})
			m.emitTelemetry("fulmen.signal.config_reload_threshold_exceeded", map[string]string{"signal": name})
			m.exit(fulmenerrors.New(fulmenerrors.CodeConfigReloadError, "reload exhausted").ExitCode())
		}
	}

	if d.DefaultBehavior == catalog.BehaviorImmediateExit {
		m.exit(d.ExitCode)
	}
	return nil
}

// runOne runs a single handler under its configured timeout. d is the
// dispatching signal's catalog descriptor, consulted for the
// conventional exit code a TimeoutForceExit handler should terminate
// the process with (spec.md §4.4: "calls process exit with the
// signal's conventional exit code").
func (m *Manager) runOne(parent context.Context, d catalog.SignalDescriptor, h *Handler) error {
	ctx, cancel := context.WithTimeout(parent, h.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fulmenerrors.New(fulmenerrors.CodeHandlerError, "handler panicked").WithContext("panic", r)
			}
		}()
		done <- h.Fn(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			m.logger.Error("signal handler returned an error", map[string]any{"handler": h.Name, "signal": h.Signal, "error": err.Error()})
			m.emitTelemetry("fulmen.signal.handler_error", map[string]string{"signal": h.Signal, "handler": h.Name})
		}
		return err
	case <-ctx.Done():
		m.logger.Warn("signal handler timed out", map[string]any{"handler": h.Name, "signal": h.Signal, "timeout": h.Timeout.String()})
		m.emitTelemetry("fulmen.signal.handler_timeout", map[string]string{"signal": h.Signal, "handler": h.Name})
		if h.TimeoutBehavior == TimeoutForceExit {
			m.exit(d.ExitCode)
		}
		return fulmenerrors.New(fulmenerrors.CodeHandlerTimeout, "handler timed out").WithContext("handler", h.Name)
	}
}

// TriggerSignal is the programmatic entry point used by the Windows
// HTTP-admin fallback (C9) and by tests: it runs the same dispatch
// path Handle does, recording the Windows-fallback telemetry event
// when the signal has no native delivery on this platform.
func (m *Manager) TriggerSignal(ctx context.Context, name string) error {
	if runtime.GOOS == "windows" && !m.IsSupported(name) {
		descriptors, err := m.descriptorsByName()
		if err == nil {
			if d, ok := descriptors[name]; ok && d.WindowsFallback != nil {
				tags := map[string]string{"signal": name}
				for k, v := range d.WindowsFallback.TelemetryTags {
					tags[k] = v
				}
				m.emitTelemetry(d.WindowsFallback.TelemetryEvent, tags)
				m.logger.Warn(d.WindowsFallback.LogMessage, map[string]any{"signal": name, "hint": d.WindowsFallback.OperationHint})
			}
		}
	}
	return m.Handle(ctx, name)
}

func defaultExit(code int) {
	os.Exit(code)
}
