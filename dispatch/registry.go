// Package dispatch implements the cross-thread signal/slot publish-subscribe
// layer: typed SignalEndpoints emit to SlotEndpoints bound to an executor,
// under a choice of delivery modes. It generalizes the emitter/registry split
// found in event-bus style packages (a central routing table guarded by one
// lock, traversed under a second, narrower lock per emission) to a typed,
// two-table (forward/inverse) connection registry.
package dispatch

import "sync"

// globalMu is the single process-wide lock guarding any mutation that spans
// both a SignalEndpoint's forward table and a SlotEndpoint's inverse table:
// Connect, Disconnect, Unbind(All), and endpoint destruction. It is always
// acquired before any endpoint-local mutex, never after - emission itself
// never touches it, only the narrower local mutex of the emitting endpoint.
var globalMu sync.Mutex
