package slotpool

import (
	"github.com/jabolina/slotpool/dispatch"
	"github.com/jabolina/slotpool/executor"
	"github.com/jabolina/slotpool/internal/ids"
	"github.com/jabolina/slotpool/internal/logging"
)

// defaultWorkerQueueCapacity bounds how many tasks a single worker's mailbox
// can buffer ahead of being drained; assignTasks only ever hands a worker
// one task at a time, so a small capacity is enough headroom.
const defaultWorkerQueueCapacity = 4

// readyMessage is what a worker emits once it has finished fulfilling a
// task. Carrying both the worker's index and its instance-id is what makes
// resizing safe under in-flight messages: a notification from a worker that
// has since been retired by a shrink is silently discarded.
type readyMessage struct {
	index      int
	instanceID ids.ID
}

// workerRecord is the tuple the WorkerController tracks per live worker:
// its executor thread, its receiver context, the per-worker signal used to
// hand it tasks, and the instance-id that distinguishes this incarnation of
// the slot from any that preceded or will follow it at the same index.
type workerRecord[T, R any] struct {
	index      int
	instanceID ids.ID
	worker     Worker[T, R]
	thread     *executor.Executor
	slot       *dispatch.SlotEndpoint
	taskSignal *dispatch.SignalEndpoint[T]
}

// workerController owns the worker vector, task queue, and ready set. Every
// method on it assumes it is already running on its own executor thread;
// callers reach it exclusively through requestSetThreadCount,
// requestClearQueue, requestExtendQueue (from the Processor, BlockingQueued)
// or through the shared readySignal (from workers, Queued).
type workerController[T, R any] struct {
	self   *dispatch.SlotEndpoint
	thread *executor.Executor

	prototype Worker[T, R]

	resultSignal *dispatch.SignalEndpoint[R]
	readySignal  *dispatch.SignalEndpoint[readyMessage]

	logger logging.Logger

	workers     []*workerRecord[T, R]
	tasks       []T
	ready       map[int]struct{}
	destructing bool
}

func (c *workerController[T, R]) requestSetThreadCount(n int) {
	c.thread.SubmitWait(func() { c.setThreadCount(n) })
}

func (c *workerController[T, R]) requestClearQueue() {
	c.thread.SubmitWait(func() { c.clearQueue() })
}

func (c *workerController[T, R]) requestExtendQueue(tasks []T) {
	c.thread.SubmitWait(func() { c.extendQueue(tasks) })
}

// setThreadCount grows or shrinks the worker vector to n entries. Shrinking
// stops and joins each removed worker's executor, so a task already in flight
// there runs to completion before setThreadCount returns; the ready
// notification it emits is discarded by the instance-id check in
// workerFinished.
func (c *workerController[T, R]) setThreadCount(n int) {
	current := len(c.workers)

	switch {
	case n == current:
		return
	case n < current:
		for i := n; i < current; i++ {
			c.retire(c.workers[i])
			delete(c.ready, i)
		}
		c.workers = c.workers[:n]
	case n > current:
		if c.destructing {
			return
		}
		for i := current; i < n; i++ {
			c.spawnWorker(i)
		}
		c.assignTasks()
	}
}

// retire disconnects and stops a worker that is leaving the pool. Its
// in-flight task, if any, is left to run to completion; the worker's
// eventual ready notification will name an instance-id no longer present at
// its index and will be ignored.
func (c *workerController[T, R]) retire(record *workerRecord[T, R]) {
	record.taskSignal.Destroy()
	record.slot.Close()
	record.thread.Stop()
}

// spawnWorker clones the prototype worker, gives it its own executor thread
// and receiver context, wires a dedicated per-worker task signal to it, and
// marks the new index ready.
func (c *workerController[T, R]) spawnWorker(index int) {
	worker := c.prototype.Clone()
	thread := executor.New(defaultWorkerQueueCapacity)
	thread.OnPanic = func(r interface{}) {
		c.logger.Errorf("slotpool: worker %d panicked outside Fulfill: %v", index, r)
	}
	slot := dispatch.NewSlot(thread)
	taskSignal := dispatch.NewSignal[T]()

	record := &workerRecord[T, R]{
		index:      index,
		instanceID: ids.New(),
		worker:     worker,
		thread:     thread,
		slot:       slot,
		taskSignal: taskSignal,
	}

	dispatch.Connect(taskSignal, slot, taskSlotID, dispatch.Queued, func(task T) {
		c.handleTask(record, task)
	})

	thread.Start()
	c.workers = append(c.workers, record)
	c.ready[index] = struct{}{}
}

// handleTask runs on the worker's own executor thread: it fulfills the task,
// forwards the result to the Processor, then reports ready. A panicking
// Fulfill is recovered here rather than left to the executor's own recovery,
// so the ready notification is never emitted - the worker stays in its
// non-ready state until a resize retires it.
func (c *workerController[T, R]) handleTask(record *workerRecord[T, R], task T) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Errorf("slotpool: worker %d panicked fulfilling a task: %v", record.index, r)
		}
	}()

	result := record.worker.Fulfill(task)
	c.resultSignal.Emit(result)
	c.readySignal.Emit(readyMessage{index: record.index, instanceID: record.instanceID})
}

// extendQueue appends tasks to the pending queue and assigns what it can.
// Dropped silently once the pool is destructing, per the task-queue
// operations being no-ops during teardown.
func (c *workerController[T, R]) extendQueue(tasks []T) {
	if c.destructing {
		return
	}
	c.tasks = append(c.tasks, tasks...)
	c.assignTasks()
}

// clearQueue drops every task not yet assigned to a worker. Tasks already
// dispatched to a worker are unaffected.
func (c *workerController[T, R]) clearQueue() {
	if c.destructing {
		return
	}
	c.tasks = nil
}

// assignTasks pairs pending tasks with ready workers until either runs dry.
// Which ready index is picked first is unspecified, matching the pool's own
// ordering contract.
func (c *workerController[T, R]) assignTasks() {
	for len(c.tasks) > 0 && len(c.ready) > 0 {
		index := firstReadyIndex(c.ready)
		delete(c.ready, index)

		task := c.tasks[0]
		c.tasks = c.tasks[1:]

		c.workers[index].taskSignal.Emit(task)
	}
}

func firstReadyIndex(ready map[int]struct{}) int {
	for index := range ready {
		return index
	}
	panic("slotpool: assignTasks called with an empty ready set")
}

// workerFinished marks a worker ready again, unless it has since been
// retired by a resize - the instance-id mismatch is what makes a stale
// notification from a removed worker harmless.
func (c *workerController[T, R]) workerFinished(index int, instanceID ids.ID) {
	if index < 0 || index >= len(c.workers) {
		return
	}
	if c.workers[index].instanceID != instanceID {
		return
	}
	c.ready[index] = struct{}{}
	c.assignTasks()
}
