// Package test provides reusable fixtures shared by the scenario tests in
// fuzzy: a trivial identity-style worker, a slow worker for racing against
// clearQueue, a result-collecting processor, and small helpers for bounding
// a test by a timeout and for dumping every goroutine's stack when one
// doesn't return in time.
package test

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jabolina/slotpool"
)

// WaitThisOrTimeout runs cb on its own goroutine and reports whether it
// completed before duration elapsed.
func WaitThisOrTimeout(cb func(), duration time.Duration) bool {
	done := make(chan struct{})
	go func() {
		cb()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(duration):
		return false
	}
}

// PrintStackTrace dumps every goroutine's stack to t, for diagnosing a
// suspected deadlock after WaitThisOrTimeout reports a timeout.
func PrintStackTrace(t *testing.T) {
	buf := make([]byte, 1<<16)
	n := runtime.Stack(buf, true)
	t.Logf("%s", buf[:n])
}

// IncrementWorker fulfills every task with task+1.
type IncrementWorker struct{}

func (w *IncrementWorker) Fulfill(task int) int { return task + 1 }

func (w *IncrementWorker) Clone() slotpool.Worker[int, int] { return &IncrementWorker{} }

// SleepyWorker sleeps Delay before fulfilling with task+1, giving a test a
// window to race clearQueue or a resize against in-flight work.
type SleepyWorker struct {
	Delay time.Duration
}

func (w *SleepyWorker) Fulfill(task int) int {
	time.Sleep(w.Delay)
	return task + 1
}

func (w *SleepyWorker) Clone() slotpool.Worker[int, int] {
	return &SleepyWorker{Delay: w.Delay}
}

// CollectingProcessor appends every result it receives. Embedding
// ProcessorHandle gives it SetThreadCount/ClearQueue/ExtendQueue.
type CollectingProcessor struct {
	slotpool.ProcessorHandle[int, int]

	mu      sync.Mutex
	Results []int
}

func (p *CollectingProcessor) OnResult(result int) {
	p.mu.Lock()
	p.Results = append(p.Results, result)
	p.mu.Unlock()
}

// Snapshot returns a copy of the results collected so far.
func (p *CollectingProcessor) Snapshot() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.Results))
	copy(out, p.Results)
	return out
}

// Len reports how many results have been collected so far.
func (p *CollectingProcessor) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Results)
}
