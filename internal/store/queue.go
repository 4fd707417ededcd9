package store

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when an operation is submitted after Close.
var ErrClosed = errors.New("store closed")

// writeQueue totally orders mutations against one Store instance. Every
// read-modify-write cycle runs as a single job on a dedicated goroutine, so
// two interleaved updates can never clobber each other: submission order is
// execution order.
type writeQueue struct {
	jobs chan writeJob

	closeOnce sync.Once
	closed    chan struct{}
	drained   sync.WaitGroup
}

type writeJob struct {
	fn    func() error
	reply chan error
}

func newWriteQueue(buffer int) *writeQueue {
	q := &writeQueue{
		jobs:   make(chan writeJob, buffer),
		closed: make(chan struct{}),
	}
	q.drained.Add(1)
	go q.run()
	return q
}

func (q *writeQueue) run() {
	defer q.drained.Done()
	for {
		select {
		case job := <-q.jobs:
			job.reply <- job.fn()
		case <-q.closed:
			// Drain anything already enqueued before exiting.
			for {
				select {
				case job := <-q.jobs:
					job.reply <- job.fn()
				default:
					return
				}
			}
		}
	}
}

// submit enqueues fn and waits for it to execute. A write already submitted
// is never cancelled mid-flight; ctx only bounds the wait for queue space.
func (q *writeQueue) submit(ctx context.Context, fn func() error) error {
	job := writeJob{fn: fn, reply: make(chan error, 1)}

	select {
	case <-q.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case q.jobs <- job:
	}

	return <-job.reply
}

// close stops the queue after draining enqueued jobs.
func (q *writeQueue) close() {
	q.closeOnce.Do(func() { close(q.closed) })
	q.drained.Wait()
}
