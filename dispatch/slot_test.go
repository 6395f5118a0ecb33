package dispatch

import (
	"testing"
	"time"
)

func TestCurrentSender_VisibleInsideSlotOnly(t *testing.T) {
	exec, receiver := newBoundSlot()
	defer exec.Stop()

	if _, ok := receiver.CurrentSender(); ok {
		t.Fatal("expected no current sender outside any slot invocation")
	}

	signal := NewSignal[int]()
	seen := make(chan bool, 1)
	Connect(signal, receiver, NewSlotID(), Direct, func(int) {
		sender, ok := receiver.CurrentSender()
		seen <- ok && sender == Sender(signal)
	})

	var leftover bool
	exec.SubmitWait(func() {
		signal.Emit(1)
		_, leftover = receiver.CurrentSender()
	})

	select {
	case ok := <-seen:
		if !ok {
			t.Fatal("expected currentSender to equal the emitting signal")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for slot invocation")
	}

	if leftover {
		t.Fatal("expected current sender to be popped after the slot returns")
	}
}

func TestSlotEndpoint_UnbindRemovesOnlyThatSlot(t *testing.T) {
	exec, receiver := newBoundSlot()
	defer exec.Stop()

	signal := NewSignal[int]()
	slotA := NewSlotID()
	slotB := NewSlotID()

	Connect(signal, receiver, slotA, Direct, func(int) {})
	Connect(signal, receiver, slotB, Direct, func(int) {})

	receiver.Unbind(slotA)

	if _, ok := receiver.inverse[slotA]; ok {
		t.Fatal("expected slotA to be removed")
	}
	if _, ok := receiver.inverse[slotB]; !ok {
		t.Fatal("expected slotB to remain connected")
	}
	if len(signal.forward[receiver]) != 1 {
		t.Fatalf("expected exactly one remaining row on the emitter, got %d", len(signal.forward[receiver]))
	}
}

func TestSlotEndpoint_CloseDisconnectsEveryEmitter(t *testing.T) {
	exec, receiver := newBoundSlot()
	defer exec.Stop()

	signalA := NewSignal[int]()
	signalB := NewSignal[string]()
	Connect(signalA, receiver, NewSlotID(), Direct, func(int) {})
	Connect(signalB, receiver, NewSlotID(), Direct, func(string) {})

	receiver.Close()

	if len(receiver.inverse) != 0 {
		t.Fatal("expected Close to clear the inverse table")
	}
	if len(signalA.forward) != 0 || len(signalB.forward) != 0 {
		t.Fatal("expected Close to remove the receiver from every connected emitter")
	}
}
