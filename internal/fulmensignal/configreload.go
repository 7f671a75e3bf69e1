package fulmensignal

import (
	"context"

	"github.com/fulmenhq/fulmen-go/internal/catalog"
	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
)

// ConfigValidator reads and validates the configuration a SIGHUP
// reload would take effect, without mutating any running state. It
// returns nil when the candidate configuration is valid, or a
// *ConfigValidationError (or any other error, counted as a single
// failure) describing why it was rejected (spec.md §4.4 "Config
// reload").
type ConfigValidator func(ctx context.Context) error

// ConfigValidationError carries the individual failures found while
// revalidating a candidate configuration, so the rejected-reload
// telemetry/log can report how many there were.
type ConfigValidationError struct {
	Errors []error
}

func (e *ConfigValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "config validation failed"
	}
	msg := e.Errors[0].Error()
	for _, sub := range e.Errors[1:] {
		msg += "; " + sub.Error()
	}
	return msg
}

func configValidationErrorCount(err error) int {
	if cve, ok := err.(*ConfigValidationError); ok && len(cve.Errors) > 0 {
		return len(cve.Errors)
	}
	return 1
}

// WithConfigReload installs a ConfigValidator for SIGHUP's
// reload-via-restart behavior (spec.md §4.4). When set, Handle's
// SIGHUP dispatch runs validate instead of (not in addition to) the
// generic registered-handler loop: on failure it emits
// fulmen.signal.config_reload_rejected and returns without touching
// the running process; on success it emits
// fulmen.signal.config_reload_accepted, invokes onValidated (if
// non-nil), and exits with the signal's conventional restart code so a
// supervisor can restart the process against the new configuration.
// onValidated may be nil.
func WithConfigReload(validate ConfigValidator, onValidated func()) Option {
	return func(m *Manager) {
		m.configValidate = validate
		m.onConfigValidated = onValidated
	}
}

func (m *Manager) handleConfigReload(ctx context.Context, d catalog.SignalDescriptor) error {
	m.reload.recordAttempt()

	if err := m.configValidate(ctx); err != nil {
		errCount := configValidationErrorCount(err)
		m.logger.Warn("config reload rejected", map[string]any{"signal": d.Name, "errors": errCount, "error": err.Error()})
		m.emitTelemetry("fulmen.signal.config_reload_rejected", map[string]string{"signal": d.Name})

		if exhausted := m.reload.recordOutcome(false); exhausted {
			m.logger.Error("config reload failed three times consecutively, forcing exit", map[string]any{"signal": d.Name})
			m.emitTelemetry("fulmen.signal.config_reload_threshold_exceeded", map[string]string{"signal": d.Name})
			m.exit(fulmenerrors.New(fulmenerrors.CodeConfigReloadError, "reload exhausted").ExitCode())
		}
		return nil
	}

	m.reload.recordOutcome(true)
	m.logger.Info("config reload accepted", map[string]any{"signal": d.Name})
	m.emitTelemetry("fulmen.signal.config_reload_accepted", map[string]string{"signal": d.Name})
	if m.onConfigValidated != nil {
		m.onConfigValidated()
	}
	m.exit(d.ExitCode)
	return nil
}
