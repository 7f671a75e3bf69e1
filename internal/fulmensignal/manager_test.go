package fulmensignal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/fulmen-go/internal/catalog"
)

func testLoader() *catalog.Loader {
	return catalog.NewLoader(catalog.Paths{
		SignalsCatalog:        "../assets/catalogs/signals.yaml",
		SignalsSchema:         "../assets/schemas/signals.schema.json",
		MetricsTaxonomy:       "../assets/catalogs/metrics-taxonomy.yaml",
		MetricsTaxonomySchema: "../assets/schemas/metrics-taxonomy.schema.json",
		ExitCodes:             "../assets/catalogs/exit-codes.yaml",
		ExitCodesSchema:       "../assets/schemas/exit-codes.schema.json",
	})
}

func TestManager_HandlerOrdering(t *testing.T) {
	m := NewManager(testLoader())
	var order []string
	var mu sync.Mutex
	record := func(name string) HandlerFunc {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	require.NoError(t, m.RegisterHandler(Handler{Name: "low", Signal: "SIGTERM", Priority: 1, Fn: record("low")}))
	require.NoError(t, m.RegisterHandler(Handler{Name: "high", Signal: "SIGTERM", Priority: 10, Fn: record("high")}))
	require.NoError(t, m.RegisterHandler(Handler{Name: "mid-first", Signal: "SIGTERM", Priority: 5, Fn: record("mid-first")}))
	require.NoError(t, m.RegisterHandler(Handler{Name: "mid-second", Signal: "SIGTERM", Priority: 5, Fn: record("mid-second")}))

	require.NoError(t, m.Handle(context.Background(), "SIGTERM"))
	assert.Equal(t, []string{"high", "mid-first", "mid-second", "low"}, order)
}

func TestManager_UnknownSignalRejected(t *testing.T) {
	m := NewManager(testLoader())
	err := m.RegisterHandler(Handler{Name: "x", Signal: "SIGBOGUS", Fn: func(context.Context) error { return nil }})
	require.Error(t, err)
}

func TestManager_HandlerTimeout_LogAndContinue(t *testing.T) {
	m := NewManager(testLoader())
	var secondRan bool
	require.NoError(t, m.RegisterHandler(Handler{
		Name: "slow", Signal: "SIGTERM", Priority: 10, Timeout: 10 * time.Millisecond,
		TimeoutBehavior: TimeoutLogAndContinue,
		Fn: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}))
	require.NoError(t, m.RegisterHandler(Handler{
		Name: "fast", Signal: "SIGTERM", Priority: 1,
		Fn: func(context.Context) error { secondRan = true; return nil },
	}))

	require.NoError(t, m.Handle(context.Background(), "SIGTERM"))
	assert.True(t, secondRan)
}

func TestManager_ForceExitOnTimeout(t *testing.T) {
	m := NewManager(testLoader())
	var exitCode int
	var exitCalled bool
	m.exit = func(code int) { exitCalled = true; exitCode = code }

	require.NoError(t, m.RegisterHandler(Handler{
		Name: "stuck", Signal: "SIGTERM", Timeout: 5 * time.Millisecond,
		TimeoutBehavior: TimeoutForceExit,
		Fn: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}))

	require.NoError(t, m.Handle(context.Background(), "SIGTERM"))
	assert.True(t, exitCalled)
	assert.Equal(t, 143, exitCode, "force-exit must use the signal's catalog exit code, not a hardcoded value")
}

func TestManager_DoubleTap(t *testing.T) {
	m := NewManager(testLoader())
	var exitCode int
	var exitCalls int
	m.exit = func(code int) { exitCalls++; exitCode = code }

	require.NoError(t, m.Handle(context.Background(), "SIGINT"))
	assert.Equal(t, 0, exitCalls)

	require.NoError(t, m.Handle(context.Background(), "SIGINT"))
	assert.Equal(t, 1, exitCalls)
	assert.Equal(t, 130, exitCode)
}

func TestManager_DoubleTap_OutsideWindowDoesNotForce(t *testing.T) {
	m := NewManager(testLoader())
	var exitCalls int
	m.exit = func(code int) { exitCalls++ }

	m.doubleTap["SIGINT"] = &doubleTapState{firstTap: time.Now().Add(-10 * time.Second)}
	require.NoError(t, m.Handle(context.Background(), "SIGINT"))
	assert.Equal(t, 0, exitCalls)
}

func TestManager_ReloadThreeStrikes(t *testing.T) {
	m := NewManager(testLoader())
	var exitCalls int
	m.exit = func(code int) { exitCalls++ }

	failing := Handler{Name: "reload", Signal: "SIGHUP", Fn: func(context.Context) error {
		return assertErr
	}}
	require.NoError(t, m.RegisterHandler(failing))

	require.NoError(t, m.Handle(context.Background(), "SIGHUP"))
	require.NoError(t, m.Handle(context.Background(), "SIGHUP"))
	assert.Equal(t, 0, exitCalls)
	require.NoError(t, m.Handle(context.Background(), "SIGHUP"))
	assert.Equal(t, 1, exitCalls)
}

func TestManager_ListSupported(t *testing.T) {
	m := NewManager(testLoader())
	names, err := m.ListSupported()
	require.NoError(t, err)
	assert.Contains(t, names, "SIGTERM")
}

var assertErr = &stubError{"reload failed"}

type stubError struct{ msg string }

func (e *stubError) Error() string { return e.msg }

// recordingTelemetry captures every IncrCounter call so tests can
// assert on which events the manager emitted.
type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) IncrCounter(name string, labels map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
	return nil
}

func (r *recordingTelemetry) has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == name {
			return true
		}
	}
	return false
}

func TestManager_HandlerTimeout_EmitsTelemetry(t *testing.T) {
	telemetry := &recordingTelemetry{}
	m := NewManager(testLoader(), WithTelemetry(telemetry))
	require.NoError(t, m.RegisterHandler(Handler{
		Name: "slow", Signal: "SIGTERM", Timeout: 5 * time.Millisecond,
		Fn: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}))

	require.NoError(t, m.Handle(context.Background(), "SIGTERM"))
	assert.True(t, telemetry.has("fulmen.signal.handler_timeout"))
}

func TestManager_HandlerError_EmitsTelemetry(t *testing.T) {
	telemetry := &recordingTelemetry{}
	m := NewManager(testLoader(), WithTelemetry(telemetry))
	require.NoError(t, m.RegisterHandler(Handler{
		Name: "failing", Signal: "SIGTERM",
		Fn: func(context.Context) error { return assertErr },
	}))

	require.NoError(t, m.Handle(context.Background(), "SIGTERM"))
	assert.True(t, telemetry.has("fulmen.signal.handler_error"))
}

func TestManager_ConfigReload_RejectedKeepsRunning(t *testing.T) {
	telemetry := &recordingTelemetry{}
	var exitCalls int
	m := NewManager(testLoader(), WithTelemetry(telemetry), WithConfigReload(
		func(ctx context.Context) error {
			return &ConfigValidationError{Errors: []error{assertErr, assertErr}}
		},
		func() { t.Fatal("onValidated must not run when validation fails") },
	))
	m.exit = func(code int) { exitCalls++ }

	require.NoError(t, m.Handle(context.Background(), "SIGHUP"))
	assert.Equal(t, 0, exitCalls, "a rejected reload must not restart the process")
	assert.True(t, telemetry.has("fulmen.signal.config_reload_rejected"))
}

func TestManager_ConfigReload_AcceptedRestarts(t *testing.T) {
	telemetry := &recordingTelemetry{}
	var exitCode int
	var exitCalls int
	var onValidatedCalled bool
	m := NewManager(testLoader(), WithTelemetry(telemetry), WithConfigReload(
		func(ctx context.Context) error { return nil },
		func() { onValidatedCalled = true },
	))
	m.exit = func(code int) { exitCalls++; exitCode = code }

	require.NoError(t, m.Handle(context.Background(), "SIGHUP"))
	assert.Equal(t, 1, exitCalls)
	assert.Equal(t, 129, exitCode, "a successful reload exits with SIGHUP's conventional restart code")
	assert.True(t, onValidatedCalled)
	assert.True(t, telemetry.has("fulmen.signal.config_reload_accepted"))
}

func TestManager_ConfigReload_ThreeStrikesForcesExit(t *testing.T) {
	telemetry := &recordingTelemetry{}
	var exitCode int
	var exitCalls int
	m := NewManager(testLoader(), WithTelemetry(telemetry), WithConfigReload(
		func(ctx context.Context) error { return assertErr },
		nil,
	))
	m.exit = func(code int) { exitCalls++; exitCode = code }

	require.NoError(t, m.Handle(context.Background(), "SIGHUP"))
	require.NoError(t, m.Handle(context.Background(), "SIGHUP"))
	assert.Equal(t, 0, exitCalls)
	require.NoError(t, m.Handle(context.Background(), "SIGHUP"))
	assert.Equal(t, 1, exitCalls)
	assert.Equal(t, 1, exitCode, "exhaustion is a failure exit, distinct from the success-path restart code")
	assert.True(t, telemetry.has("fulmen.signal.config_reload_threshold_exceeded"))
}
