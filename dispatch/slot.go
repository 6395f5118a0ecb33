package dispatch

import (
	"sync"

	"github.com/jabolina/slotpool/executor"
	"github.com/jabolina/slotpool/internal/ids"
)

// SlotID is an opaque token distinguishing one bound callable on a receiver
// from another. A given (receiver, SlotID) pair names at most one row on any
// single SignalEndpoint.
type SlotID ids.ID

// NewSlotID mints a fresh slot identity.
func NewSlotID() SlotID {
	return SlotID(ids.New())
}

// Zero reports whether id is the wildcard value matched by every row on a
// receiver, regardless of which slot identity it was registered under.
func (id SlotID) Zero() bool {
	return ids.ID(id).Zero()
}

// Sender is the type-erased facade every SignalEndpoint[T] satisfies. It
// lets a SlotEndpoint hold references to emitters of differing payload
// types in its inverse table and sender stack, and lets CurrentSender
// report an emitter without the caller needing to know its payload type
// until it chooses to assert one with SenderAs.
type Sender interface {
	removeReceiver(receiver *SlotEndpoint)
	removeRow(receiver *SlotEndpoint, slot SlotID)
}

// SlotEndpoint is a thread-bound receiver context. It is pointer-stable and
// is itself the unit of identity that SignalEndpoints connect to.
type SlotEndpoint struct {
	mu      sync.Mutex
	exec    *executor.Executor
	inverse map[SlotID][]Sender

	senderMu    sync.Mutex
	senderStack map[uint64][]Sender
}

// NewSlot creates a SlotEndpoint bound to exec. exec need not be started
// yet; the SlotEndpoint does not own its lifecycle.
func NewSlot(exec *executor.Executor) *SlotEndpoint {
	return &SlotEndpoint{
		exec:        exec,
		inverse:     make(map[SlotID][]Sender),
		senderStack: make(map[uint64][]Sender),
	}
}

// Thread returns the executor this SlotEndpoint currently delivers on.
func (r *SlotEndpoint) Thread() *executor.Executor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exec
}

// Rebind moves the SlotEndpoint to a different executor. A slot may migrate
// between executors over its lifetime; sender-stack bookkeeping is keyed by
// the actual running goroutine, not by the executor, so migration needs no
// further coordination here.
func (r *SlotEndpoint) Rebind(exec *executor.Executor) {
	r.mu.Lock()
	r.exec = exec
	r.mu.Unlock()
}

// onOwnThread reports whether the calling goroutine is this receiver's
// current executor.
func (r *SlotEndpoint) onOwnThread() bool {
	exec := r.Thread()
	return exec != nil && exec.On()
}

// pushSender records signal as the emitter driving whatever slot is about to
// run on the calling goroutine.
func (r *SlotEndpoint) pushSender(signal Sender) {
	key := executor.GoroutineID()
	r.senderMu.Lock()
	r.senderStack[key] = append(r.senderStack[key], signal)
	r.senderMu.Unlock()
}

// popSender undoes the most recent pushSender on the calling goroutine.
func (r *SlotEndpoint) popSender() {
	key := executor.GoroutineID()
	r.senderMu.Lock()
	if stack := r.senderStack[key]; len(stack) > 0 {
		if len(stack) == 1 {
			delete(r.senderStack, key)
		} else {
			r.senderStack[key] = stack[:len(stack)-1]
		}
	}
	r.senderMu.Unlock()
}

// CurrentSender returns the emitter whose emission caused the slot presently
// executing on the calling goroutine to run, or false if the caller is not
// inside such a slot.
func (r *SlotEndpoint) CurrentSender() (Sender, bool) {
	key := executor.GoroutineID()
	r.senderMu.Lock()
	defer r.senderMu.Unlock()
	stack := r.senderStack[key]
	if len(stack) == 0 {
		return nil, false
	}
	return stack[len(stack)-1], true
}

// addRow records that signal now reaches this receiver under slot.
func (r *SlotEndpoint) addRow(signal Sender, slot SlotID) {
	r.mu.Lock()
	r.inverse[slot] = append(r.inverse[slot], signal)
	r.mu.Unlock()
}

// removeRow deletes the rows naming signal from the inverse table. A zero
// slot removes every row naming signal regardless of slot identity.
func (r *SlotEndpoint) removeRow(signal Sender, slot SlotID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot.Zero() {
		for s, handles := range r.inverse {
			if filtered := withoutSender(handles, signal); len(filtered) == 0 {
				delete(r.inverse, s)
			} else {
				r.inverse[s] = filtered
			}
		}
		return
	}
	if filtered := withoutSender(r.inverse[slot], signal); len(filtered) == 0 {
		delete(r.inverse, slot)
	} else {
		r.inverse[slot] = filtered
	}
}

func withoutSender(handles []Sender, target Sender) []Sender {
	filtered := handles[:0]
	for _, h := range handles {
		if h != target {
			filtered = append(filtered, h)
		}
	}
	return filtered
}

// Unbind disconnects every emitter bound to this receiver under slot,
// regardless of the emitter's payload type - the receiver-only wildcard half
// of disconnect, exposed as an explicit operation rather than a Disconnect
// call with a nil signal.
func (r *SlotEndpoint) Unbind(slot SlotID) {
	globalMu.Lock()
	defer globalMu.Unlock()

	r.mu.Lock()
	handles := append([]Sender(nil), r.inverse[slot]...)
	delete(r.inverse, slot)
	r.mu.Unlock()

	for _, h := range handles {
		h.removeRow(r, slot)
	}
}

// UnbindAll disconnects every emitter bound to this receiver, under any
// slot.
func (r *SlotEndpoint) UnbindAll() {
	globalMu.Lock()
	defer globalMu.Unlock()

	r.mu.Lock()
	all := r.inverse
	r.inverse = make(map[SlotID][]Sender)
	r.mu.Unlock()

	for slot, handles := range all {
		for _, h := range handles {
			h.removeRow(r, slot)
		}
	}
}

// Close tears the receiver down: every emitter still connected to it is told
// to drop its rows. After Close returns, no emission can reach this receiver
// again.
func (r *SlotEndpoint) Close() {
	r.UnbindAll()
}
