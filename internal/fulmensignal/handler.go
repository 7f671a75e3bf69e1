package fulmensignal

import (
	"context"
	"time"
)

// TimeoutBehavior controls what the dispatcher does when a handler
// doesn't return within its allotted timeout (spec.md §4.4 dispatch
// algorithm).
type TimeoutBehavior string

const (
	// TimeoutLogAndContinue logs the overrun and moves on to the next
	// handler without waiting further.
	TimeoutLogAndContinue TimeoutBehavior = "log_and_continue"
	// TimeoutForceExit logs the overrun and terminates the process
	// immediately via the signal's catalog exit code.
	TimeoutForceExit TimeoutBehavior = "force_exit"
)

// HandlerFunc is invoked when its registered signal fires. It receives
// a context carrying the handler's configured timeout and should
// return promptly once ctx is Done.
type HandlerFunc func(ctx context.Context) error

// Handler is one registered responder to a signal.
type Handler struct {
	Name            string
	Signal          string // catalog signal name, e.g. "SIGTERM"
	Priority        int    // higher runs first
	Timeout         time.Duration
	TimeoutBehavior TimeoutBehavior
	Fn              HandlerFunc

	registrationSeq int64
}
