package slotpool

// Processor is implemented by user code that consumes completed task
// results. OnResult is called once per completed task, on the Processor's
// own executor thread.
type Processor[T, R any] interface {
	OnResult(result R)
}

// HandleBinder is implemented by Processor types that embed ProcessorHandle
// to gain access to the protected pool-mutating operations. A Processor
// satisfies it automatically by embedding ProcessorHandle[T, R] as a field;
// Controller's constructor calls SetHandle exactly once, before the pool
// starts accepting tasks.
type HandleBinder[T, R any] interface {
	SetHandle(h *ProcessorHandle[T, R])
}

// ProcessorHandle is embedded by Processor implementations that need
// SetThreadCount, ClearQueue, or ExtendQueue. Every method must be called
// from the Processor's own executor thread - the Controller forwards each
// as a blocking request to the WorkerController's executor and waits for it
// to complete there.
type ProcessorHandle[T, R any] struct {
	controller *workerController[T, R]
}

// SetHandle installs handle's state into h. It exists so that embedding
// ProcessorHandle[T, R] by value automatically satisfies HandleBinder via
// Go's method promotion.
func (h *ProcessorHandle[T, R]) SetHandle(handle *ProcessorHandle[T, R]) {
	*h = *handle
}

// SetThreadCount resizes the pool to n workers.
func (h *ProcessorHandle[T, R]) SetThreadCount(n int) {
	h.controller.requestSetThreadCount(n)
}

// ClearQueue drops every task not yet assigned to a worker. In-flight tasks
// are unaffected.
func (h *ProcessorHandle[T, R]) ClearQueue() {
	h.controller.requestClearQueue()
}

// ExtendQueue appends tasks to the pending queue and assigns them to any
// currently idle workers.
func (h *ProcessorHandle[T, R]) ExtendQueue(tasks []T) {
	h.controller.requestExtendQueue(tasks)
}
