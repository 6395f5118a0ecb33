package slotpool

import "github.com/jabolina/slotpool/dispatch"

// Fixed slot identities for the internal connections every Controller wires
// up itself. A SlotID only needs to be unique within one SignalEndpoint's
// forward table, so reusing the same value across every worker's distinct
// taskSignal is safe - each is a different emitter entirely.
var (
	resultSlotID = dispatch.NewSlotID()
	readySlotID  = dispatch.NewSlotID()
	taskSlotID   = dispatch.NewSlotID()
)
