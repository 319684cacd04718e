package engine

import (
	"sync"

	"github.com/roach88/tau/internal/core"
)

// task is one unit of work for the real-time worker.
type task struct {
	action core.Action

	// due is the scheduler time, in epoch millis, the task was meant to run.
	due int64
}

// taskQueue is a thread-safe unbounded FIFO of tasks.
//
// Producers are timer goroutines and external feeds; the single consumer is
// the real-time worker. Enqueue never blocks.
//
// The signal channel (buffered, size 1) coalesces wake-ups so the worker can
// select on it together with ctx.Done().
type taskQueue struct {
	mu     sync.Mutex
	tasks  []task
	closed bool
	signal chan struct{}
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		tasks:  make([]task, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends t. Returns false if the queue is closed.
func (q *taskQueue) Enqueue(t task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.tasks = append(q.tasks, t)

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front task without blocking.
func (q *taskQueue) TryDequeue() (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return task{}, false
	}

	t := q.tasks[0]
	// Release the closure so the backing array does not pin it.
	q.tasks[0] = task{}

	if len(q.tasks) == 1 {
		q.tasks = q.tasks[:0]
	} else {
		q.tasks = q.tasks[1:]
	}

	return t, true
}

// Wait returns a channel that signals when tasks may be available. The
// channel is closed once the queue is closed.
func (q *taskQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending tasks.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Closed reports whether Close has been called.
func (q *taskQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close rejects further tasks, discards pending ones and wakes waiters.
// Returns the number of discarded tasks.
func (q *taskQueue) Close() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0
	}

	dropped := len(q.tasks)
	q.tasks = nil
	q.closed = true
	close(q.signal)
	return dropped
}
