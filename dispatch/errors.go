package dispatch

import "errors"

var (
	// ErrInvalidArgument is returned by Disconnect when signal is nil.
	ErrInvalidArgument = errors.New("dispatch: signal must not be nil")

	// ErrDeadlockRisk is the value Emit panics with when a BlockingQueued
	// delivery would run on the receiver's own executor, i.e. the emitting
	// goroutine - such an emission would wait on itself forever.
	ErrDeadlockRisk = errors.New("dispatch: BlockingQueued connection targets its own executor")
)
