package fulmensignal

import (
	"sync"
	"time"

	"github.com/fulmenhq/fulmen-go/internal/catalog"
)

// doubleTapState tracks whether a signal's previous occurrence fell
// inside its double-tap window.
type doubleTapState struct {
	mu       sync.Mutex
	firstTap time.Time
}

// recordDoubleTap registers one occurrence of a double-tap-eligible
// signal and reports whether this occurrence should force an
// immediate exit (i.e. it landed inside the configured window after a
// prior occurrence).
func (m *Manager) recordDoubleTap(name string, params catalog.DoubleTapParams) (forceExit bool) {
	m.mu.Lock()
	state, ok := m.doubleTap[name]
	if !ok {
		state = &doubleTapState{}
		m.doubleTap[name] = state
	}
	m.mu.Unlock()

	state.mu.Lock()
	defer state.mu.Unlock()

	now := time.Now()
	window := time.Duration(params.WindowSeconds * float64(time.Second))
	if !state.firstTap.IsZero() && now.Sub(state.firstTap) <= window {
		return true
	}
	state.firstTap = now
	return false
}
