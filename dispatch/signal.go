package dispatch

import "sync"

// forwardEntry is one row of a SignalEndpoint's forward table: a receiver,
// the slot identity it was registered under, the delivery mode chosen at
// connect time, and the typed callable to invoke.
type forwardEntry[T any] struct {
	receiver *SlotEndpoint
	slot     SlotID
	mode     Mode
	handler  func(T)
}

// SignalEndpoint is a typed emitter. It is pointer-stable; connecting the
// same (receiver, slot) pair twice is a no-op, and emission reaches every
// receiver currently connected to it, in the order connections were made for
// that receiver.
type SignalEndpoint[T any] struct {
	localMu sync.RWMutex
	forward map[*SlotEndpoint][]*forwardEntry[T]
}

// NewSignal creates an unconnected SignalEndpoint.
func NewSignal[T any]() *SignalEndpoint[T] {
	return &SignalEndpoint[T]{forward: make(map[*SlotEndpoint][]*forwardEntry[T])}
}

// Connect registers receiver to be invoked through handler whenever signal
// emits, under the given slot identity and delivery mode. If (receiver,
// slot) is already connected, Connect is a no-op and returns false.
func Connect[T any](signal *SignalEndpoint[T], receiver *SlotEndpoint, slot SlotID, mode Mode, handler func(T)) bool {
	globalMu.Lock()
	defer globalMu.Unlock()

	signal.localMu.Lock()
	for _, e := range signal.forward[receiver] {
		if e.slot == slot {
			signal.localMu.Unlock()
			return false
		}
	}
	signal.forward[receiver] = append(signal.forward[receiver], &forwardEntry[T]{
		receiver: receiver,
		slot:     slot,
		mode:     mode,
		handler:  handler,
	})
	signal.localMu.Unlock()

	receiver.addRow(signal, slot)
	return true
}

// Disconnect removes rows matching (receiver, slot) from signal. A zero
// receiver removes every row on signal regardless of receiver; a zero slot
// removes every row regardless of slot identity. signal must be non-nil;
// the receiver-only wildcard (drop every emitter reaching a receiver,
// regardless of payload type) is exposed as SlotEndpoint.Unbind (one slot)
// and SlotEndpoint.UnbindAll (every slot) instead, since it cannot be
// expressed generically over T.
func Disconnect[T any](signal *SignalEndpoint[T], receiver *SlotEndpoint, slot SlotID) error {
	if signal == nil {
		return ErrInvalidArgument
	}

	globalMu.Lock()
	defer globalMu.Unlock()

	if receiver != nil {
		signal.removeRow(receiver, slot)
		receiver.removeRow(signal, slot)
		return nil
	}

	signal.localMu.Lock()
	receivers := make([]*SlotEndpoint, 0, len(signal.forward))
	for r := range signal.forward {
		receivers = append(receivers, r)
	}
	signal.localMu.Unlock()

	for _, r := range receivers {
		signal.removeRow(r, slot)
		r.removeRow(signal, slot)
	}
	return nil
}

// removeRow deletes rows naming receiver from the forward table. A zero
// slot removes every row naming receiver regardless of slot identity.
func (s *SignalEndpoint[T]) removeRow(receiver *SlotEndpoint, slot SlotID) {
	s.localMu.Lock()
	defer s.localMu.Unlock()

	entries := s.forward[receiver]
	if len(entries) == 0 {
		return
	}
	if slot.Zero() {
		delete(s.forward, receiver)
		return
	}
	filtered := entries[:0]
	for _, e := range entries {
		if e.slot != slot {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == 0 {
		delete(s.forward, receiver)
	} else {
		s.forward[receiver] = filtered
	}
}

// removeReceiver drops every row naming receiver, used when receiver is
// being torn down and tells every connected emitter to forget it.
func (s *SignalEndpoint[T]) removeReceiver(receiver *SlotEndpoint) {
	s.localMu.Lock()
	delete(s.forward, receiver)
	s.localMu.Unlock()
}

// Emit delivers payload to every connected slot, honoring each connection's
// delivery mode. The traversal is taken as a snapshot under the emitter's
// local mutex and then released before any invoker runs, so a handler is
// free to connect or disconnect (even itself) without deadlocking. Such a
// mutation changes the forward table at once, but it does not change which
// rows this Emit call delivers to.
func (s *SignalEndpoint[T]) Emit(payload T) {
	s.localMu.RLock()
	snapshot := make([]*forwardEntry[T], 0, len(s.forward))
	for _, entries := range s.forward {
		snapshot = append(snapshot, entries...)
	}
	s.localMu.RUnlock()

	for _, e := range snapshot {
		deliver(s, e, payload)
	}
}

// Destroy removes this signal from every receiver it reaches. After Destroy
// returns, no further emission from s can invoke any previously connected
// slot.
func (s *SignalEndpoint[T]) Destroy() {
	globalMu.Lock()
	defer globalMu.Unlock()

	s.localMu.Lock()
	receivers := make([]*SlotEndpoint, 0, len(s.forward))
	for r := range s.forward {
		receivers = append(receivers, r)
	}
	s.forward = make(map[*SlotEndpoint][]*forwardEntry[T])
	s.localMu.Unlock()

	for _, r := range receivers {
		r.removeRow(s, SlotID(""))
	}
}

// deliver dispatches a single forward-table row according to its resolved
// delivery mode, wrapping the call with the receiver's sender-stack
// bookkeeping so CurrentSender answers correctly regardless of mode.
func deliver[T any](signal *SignalEndpoint[T], e *forwardEntry[T], payload T) {
	mode := e.mode.resolve(e.receiver.onOwnThread())

	switch mode {
	case Direct:
		invokeWithSender(signal, e.receiver, func() { e.handler(payload) })
	case Queued:
		e.receiver.Thread().Submit(func() {
			invokeWithSender(signal, e.receiver, func() { e.handler(payload) })
		})
	case BlockingQueued:
		if e.receiver.onOwnThread() {
			panic(ErrDeadlockRisk)
		}
		e.receiver.Thread().SubmitWait(func() {
			invokeWithSender(signal, e.receiver, func() { e.handler(payload) })
		})
	}
}

func invokeWithSender(signal Sender, receiver *SlotEndpoint, call func()) {
	receiver.pushSender(signal)
	defer receiver.popSender()
	call()
}

// SenderAs asserts that sender is a SignalEndpoint[T], the typed
// counterpart to the type-erased Sender returned by CurrentSender.
func SenderAs[T any](sender Sender) (*SignalEndpoint[T], bool) {
	sig, ok := sender.(*SignalEndpoint[T])
	return sig, ok
}
