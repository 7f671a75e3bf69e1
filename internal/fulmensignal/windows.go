//go:build windows

package fulmensignal

import (
	"os"
	"syscall"

	"github.com/fulmenhq/fulmen-go/internal/catalog"
)

// nativeSignal is only called for descriptors platformSupports already
// reported as supported on Windows (those with no windows_fallback
// entry: SIGINT/SIGTERM/SIGHUP/SIGQUIT), which the Windows syscall
// package models as notification signals even though only Ctrl-C/
// Ctrl-Break are actually deliverable by the OS.
func nativeSignal(d catalog.SignalDescriptor) os.Signal {
	return syscall.Signal(d.UnixNumber)
}
