package slotpool

// Worker is implemented by user code that performs the actual task work. A
// Worker instance is bound to exactly one executor thread for its entire
// lifetime; the WorkerController never calls Fulfill from more than one
// goroutine at a time for a given Worker.
type Worker[T, R any] interface {
	// Fulfill executes task and returns its result. It runs on the
	// worker's own executor thread.
	Fulfill(task T) R

	// Clone constructs a fresh Worker carrying equivalent user-supplied
	// state. The WorkerController clones the prototype worker once per new
	// slot whenever the pool grows.
	Clone() Worker[T, R]
}
