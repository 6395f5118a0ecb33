package executor

import (
	"runtime"
	"strconv"
	"sync"
)

// goroutineID extracts the calling goroutine's numeric id from its stack
// trace header ("goroutine 123 [running]: ..."). Go has no public API for
// this; parsing runtime.Stack's header is the standard workaround.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	data := buf[:n]

	const prefix = "goroutine "
	if len(data) < len(prefix) {
		return 0
	}
	data = data[len(prefix):]

	end := 0
	for end < len(data) && data[end] >= '0' && data[end] <= '9' {
		end++
	}
	id, err := strconv.ParseUint(string(data[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// GoroutineID exposes the calling goroutine's numeric id to other packages
// that need a per-goroutine key (the dispatch package's sender stacks).
func GoroutineID() uint64 {
	return goroutineID()
}

// bindings maps a goroutine id to the Executor currently running on it.
// Used to answer "is the calling goroutine executor E's own goroutine?",
// the question Auto delivery mode and CurrentSender both need answered.
var bindings sync.Map // uint64 -> ID

func bindGoroutine(id ID) {
	bindings.Store(goroutineID(), id)
}

func unregisterGoroutine() {
	bindings.Delete(goroutineID())
}

// Current returns the Executor ID bound to the calling goroutine, or the
// zero ID if the caller is not running on any Executor's goroutine.
func Current() (ID, bool) {
	v, ok := bindings.Load(goroutineID())
	if !ok {
		return ID(""), false
	}
	return v.(ID), true
}

// On reports whether the calling goroutine is executor e's own goroutine.
func (e *Executor) On() bool {
	current, ok := Current()
	return ok && current == e.id
}
