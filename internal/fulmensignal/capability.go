package fulmensignal

import (
	"runtime"

	"github.com/fulmenhq/fulmen-go/internal/catalog"
	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
)

// platformSupports reports whether d can be delivered as a native OS
// signal on the running platform. Windows lacks POSIX real-time
// signals; any descriptor carrying a windows_fallback entry is
// considered unsupported there and must go through the HTTP admin
// fallback (C9) instead.
func platformSupports(d catalog.SignalDescriptor) bool {
	if runtime.GOOS != "windows" {
		return true
	}
	return d.WindowsFallback == nil
}

// ensureSupported fails fast with a structured error when name isn't
// deliverable on this platform, instead of silently registering a
// handler that will never fire.
func (m *Manager) ensureSupported(name string) error {
	if m.IsSupported(name) {
		return nil
	}
	return fulmenerrors.New(fulmenerrors.CodeDataInvalid, "signal "+name+" is not supported on "+runtime.GOOS).
		WithContext("signal", name).
		WithContext("platform", runtime.GOOS)
}

// ensurePOSIX fails when called on a non-POSIX platform, for callers
// (e.g. a real-time-signal handler) that have no Windows fallback at
// all.
func ensurePOSIX() error {
	if runtime.GOOS == "windows" {
		return fulmenerrors.New(fulmenerrors.CodeDataInvalid, "operation requires a POSIX platform")
	}
	return nil
}

// ensureWindows is the mirror of ensurePOSIX, for Windows-only code
// paths such as the HTTP fallback trigger.
func ensureWindows() error {
	if runtime.GOOS != "windows" {
		return fulmenerrors.New(fulmenerrors.CodeDataInvalid, "operation requires Windows")
	}
	return nil
}
