package slotpool

import (
	"github.com/jabolina/slotpool/dispatch"
	"github.com/jabolina/slotpool/executor"
	"github.com/jabolina/slotpool/internal/logging"
)

// defaultQueueCapacity bounds the mailbox of the Controller's own and the
// Processor's executor threads.
const defaultQueueCapacity = 16

// Controller is the top-level owner of a pool: it places the
// WorkerController on its own executor thread, starts the Processor's
// executor thread, spawns the initial worker threads, and guarantees
// orderly teardown on Close.
type Controller[T, R any] struct {
	logger logging.Logger

	controllerExec *executor.Executor
	processorExec  *executor.Executor

	wc            *workerController[T, R]
	processorSlot *dispatch.SlotEndpoint
	resultSignal  *dispatch.SignalEndpoint[R]
}

// New constructs a Controller, starts its executor threads, spawns
// threadCount workers, and returns once the pool is fully wired and ready
// to receive tasks. Ownership of processor and prototype passes to the
// Controller.
func New[T, R any](processor Processor[T, R], prototype Worker[T, R], threadCount int) *Controller[T, R] {
	logger := logging.NewDefaultLogger()

	controllerExec := executor.New(defaultQueueCapacity)
	processorExec := executor.New(defaultQueueCapacity)
	controllerExec.OnPanic = func(r interface{}) {
		logger.Errorf("slotpool: controller executor panicked: %v", r)
	}
	processorExec.OnPanic = func(r interface{}) {
		logger.Errorf("slotpool: processor executor panicked: %v", r)
	}
	controllerExec.Start()
	processorExec.Start()

	controllerSlot := dispatch.NewSlot(controllerExec)
	processorSlot := dispatch.NewSlot(processorExec)

	resultSignal := dispatch.NewSignal[R]()
	dispatch.Connect(resultSignal, processorSlot, resultSlotID, dispatch.Queued, processor.OnResult)

	readySignal := dispatch.NewSignal[readyMessage]()

	wc := &workerController[T, R]{
		self:         controllerSlot,
		thread:       controllerExec,
		prototype:    prototype,
		resultSignal: resultSignal,
		readySignal:  readySignal,
		ready:        make(map[int]struct{}),
		logger:       logger,
	}
	dispatch.Connect(readySignal, controllerSlot, readySlotID, dispatch.Queued, func(msg readyMessage) {
		wc.workerFinished(msg.index, msg.instanceID)
	})

	if binder, ok := processor.(HandleBinder[T, R]); ok {
		binder.SetHandle(&ProcessorHandle[T, R]{controller: wc})
	}

	controllerExec.SubmitWait(func() {
		wc.setThreadCount(threadCount)
	})

	return &Controller[T, R]{
		logger:         logger,
		controllerExec: controllerExec,
		processorExec:  processorExec,
		wc:             wc,
		processorSlot:  processorSlot,
		resultSignal:   resultSignal,
	}
}

// Stats reports a snapshot of the pool, computed on the WorkerController's
// own executor so it never races with a concurrent resize or assignment.
func (c *Controller[T, R]) Stats() Stats {
	var snapshot Stats
	c.controllerExec.SubmitWait(func() {
		snapshot = Stats{
			WorkerCount: len(c.wc.workers),
			ReadyCount:  len(c.wc.ready),
			QueueLength: len(c.wc.tasks),
		}
	})
	return snapshot
}

// Close performs the orderly teardown sequence: mark the pool destructing,
// disconnect the Processor's dispatch bindings, stop and join every worker
// executor, then stop the Processor's executor, and finally the
// WorkerController's own.
//
// The WorkerController's executor is deliberately stopped last: a Processor
// slot may be blocked inside a BlockingQueued call to it (SetThreadCount,
// ClearQueue, ExtendQueue) when Close is invoked from another goroutine.
// Keeping the WorkerController's executor alive until the Processor's has
// fully drained lets that pending call complete instead of deadlocking.
func (c *Controller[T, R]) Close() {
	c.controllerExec.SubmitWait(func() {
		c.wc.destructing = true
	})

	c.resultSignal.Destroy()
	c.processorSlot.Close()

	c.controllerExec.SubmitWait(func() {
		c.wc.setThreadCount(0)
	})

	c.processorExec.Stop()

	c.wc.self.Close()
	c.controllerExec.Stop()
}
