package fulmensignal

import "sync"

// reloadExhaustionLimit is the number of consecutive failed reload
// attempts (spec.md "three-strikes tracker") after which the manager
// gives up and forces an exit instead of leaving the process in a
// half-reloaded state.
const reloadExhaustionLimit = 3

// reloadTracker counts consecutive SIGHUP reload failures.
type reloadTracker struct {
	mu               sync.Mutex
	consecutiveFails int
	attempts         int
}

func newReloadTracker() *reloadTracker {
	return &reloadTracker{}
}

func (t *reloadTracker) recordAttempt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts++
}

// recordOutcome records a reload attempt's success/failure and reports
// whether the tracker has now hit reloadExhaustionLimit consecutive
// failures.
func (t *reloadTracker) recordOutcome(success bool) (exhausted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if success {
		t.consecutiveFails = 0
		return false
	}
	t.consecutiveFails++
	return t.consecutiveFails >= reloadExhaustionLimit
}

// Attempts reports the total number of reload attempts observed.
func (t *reloadTracker) Attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

// ConsecutiveFailures reports the current failure streak.
func (t *reloadTracker) ConsecutiveFailures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.consecutiveFails
}
