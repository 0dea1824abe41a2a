// Package dispatch runs non-critical side effects off the request path.
//
// A task handed to the dispatcher executes on a fixed pool of workers,
// detached from the lifetime of the request that scheduled it. Errors and
// panics inside a task are logged and discarded; they never reach the caller.
package dispatch

import (
	"context"
	"log"
	"sync"
	"time"
)

// Task is a side effect scheduled for background execution.
type Task func(ctx context.Context) error

type job struct {
	name string
	task Task
}

// Dispatcher is a bounded worker pool. The bound replaces the unbounded
// one-thread-per-side-effect spawning the system grew up with.
type Dispatcher struct {
	queue   chan job
	timeout time.Duration

	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

// New starts a dispatcher with the given number of workers and queue depth.
// taskTimeout bounds how long a single task may run.
func New(workers, queueDepth int, taskTimeout time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 1 {
		queueDepth = 1
	}

	d := &Dispatcher{
		queue:   make(chan job, queueDepth),
		timeout: taskTimeout,
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Dispatch schedules task to run on the pool. It never blocks: when the
// queue is full the task is dropped and the drop is logged. The returned
// bool reports whether the task was accepted.
func (d *Dispatcher) Dispatch(name string, task Task) bool {
	d.closeMu.Lock()
	defer d.closeMu.Unlock()
	if d.closed {
		log.Printf("[Dispatch] Rejecting %q: dispatcher is shut down", name)
		return false
	}

	select {
	case d.queue <- job{name: name, task: task}:
		return true
	default:
		log.Printf("[Dispatch] Dropping %q: queue full", name)
		return false
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Dispatch] Task %q panicked: %v", j.name, r)
		}
	}()

	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := j.task(ctx); err != nil {
		log.Printf("[Dispatch] Task %q failed: %v", j.name, err)
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.closeMu.Unlock()

	d.wg.Wait()
}
