// Package queue runs submitted tasks one at a time in submission order.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrClosed is returned for tasks submitted after Shutdown.
var ErrClosed = errors.New("queue: shut down")

// Task is a unit of work. The context is the queue's own, not the submitter's.
type Task func(ctx context.Context) error

type job struct {
	task   Task
	result chan error // nil for fire-and-forget
}

// SerialTaskQueue is a single-consumer FIFO. A worker goroutine is started on
// demand and exits once the queue is drained; a failing or panicking task is
// logged and the worker moves on to the next one.
type SerialTaskQueue struct {
	mu      sync.Mutex
	pending []job
	running bool
	closed  bool
	idle    chan struct{} // closed when no worker is running

	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

// New creates an empty queue.
func New(log zerolog.Logger) *SerialTaskQueue {
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &SerialTaskQueue{
		ctx:    ctx,
		cancel: cancel,
		log:    log,
		idle:   idle,
	}
}

// Enqueue appends task and returns immediately.
func (q *SerialTaskQueue) Enqueue(task Task) error {
	return q.push(job{task: task})
}

// Do enqueues task and waits for it to finish. If ctx ends first Do returns
// ctx.Err(), but the task still runs when its turn comes. A task that has
// already finished reports its own result even if ctx ended at the same time.
func (q *SerialTaskQueue) Do(ctx context.Context, task Task) error {
	result := make(chan error, 1)
	if err := q.push(job{task: task, result: result}); err != nil {
		return err
	}
	return await(ctx, result)
}

func await(ctx context.Context, result <-chan error) error {
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		select {
		case err := <-result:
			return err
		default:
			return ctx.Err()
		}
	}
}

// Len returns the number of tasks waiting, excluding the one running.
func (q *SerialTaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Shutdown rejects new tasks and waits for queued ones to finish. If ctx ends
// first the running task's context is cancelled and the rest are dropped.
func (q *SerialTaskQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		q.mu.Lock()
		dropped := q.pending
		q.pending = nil
		q.mu.Unlock()
		for _, j := range dropped {
			if j.result != nil {
				j.result <- ErrClosed
			}
		}
		return ctx.Err()
	}
}

func (q *SerialTaskQueue) push(j job) error {
	if j.task == nil {
		return errors.New("queue: nil task")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	q.pending = append(q.pending, j)
	if !q.running {
		q.running = true
		q.idle = make(chan struct{})
		go q.drain(q.idle)
	}
	return nil
}

func (q *SerialTaskQueue) drain(idle chan struct{}) {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			close(idle)
			q.mu.Unlock()
			return
		}
		j := q.pending[0]
		q.pending[0] = job{}
		q.pending = q.pending[1:]
		q.mu.Unlock()

		err := q.run(j.task)
		if err != nil {
			q.log.Error().Err(err).Msg("Queued task failed")
		}
		if j.result != nil {
			j.result <- err
		}
	}
}

func (q *SerialTaskQueue) run(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue: task panicked: %v", r)
		}
	}()
	return task(q.ctx)
}
