//go:build !windows

package fulmensignal

import (
	"os"
	"runtime"
	"syscall"

	"github.com/fulmenhq/fulmen-go/internal/catalog"
)

// nativeSignal resolves a catalog descriptor's platform-specific
// signal number, applying the darwin/freebsd overrides the catalog
// carries for BSD-numbered signals like SIGUSR1/SIGUSR2.
func nativeSignal(d catalog.SignalDescriptor) os.Signal {
	n := d.UnixNumber
	switch runtime.GOOS {
	case "darwin":
		if d.PlatformOverrides.Darwin != nil {
			n = *d.PlatformOverrides.Darwin
		}
	case "freebsd":
		if d.PlatformOverrides.FreeBSD != nil {
			n = *d.PlatformOverrides.FreeBSD
		}
	}
	return syscall.Signal(n)
}
