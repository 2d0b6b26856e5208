package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultQueueSize bounds how many submitted tasks may wait for a free worker.
const DefaultQueueSize = 4096

var (
	// ErrClosed is returned when submitting to a pool that has been shut down.
	ErrClosed = errors.New("pool is shut down")
	// ErrRejected is returned when the submission queue is full.
	ErrRejected = errors.New("pool queue is full")
)

// PanicError is the error a task completes with when it panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Pool runs submitted tasks on a fixed number of worker goroutines.
//
// Lifecycle: a Pool accepts work from New until Shutdown or ShutdownNow. A shut-down
// pool is never reopened; callers create a new one (see Manager).
type Pool struct {
	name  string
	size  int
	queue chan func()

	// ctx is the pool lifetime; ShutdownNow cancels it and with it every task context.
	ctx    context.Context
	cancel context.CancelFunc

	group errgroup.Group
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

func New(name string, size, queueSize int) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool %s: size must be >= 1, got %d", name, size)
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		name:   name,
		size:   size,
		queue:  make(chan func(), queueSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		p.group.Go(p.work)
	}
	go func() {
		_ = p.group.Wait()
		p.cancel()
		close(p.done)
	}()
	return p, nil
}

func (p *Pool) work() error {
	for run := range p.queue {
		run()
	}
	return nil
}

func (p *Pool) Name() string { return p.name }
func (p *Pool) Size() int    { return p.size }

// IsShutdown reports whether the pool stopped accepting work.
func (p *Pool) IsShutdown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Terminated reports whether every worker has exited.
func (p *Pool) Terminated() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Shutdown stops accepting new work. Queued and running tasks still complete.
// It does not wait; see Wait.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.queue)
}

// ShutdownNow stops accepting new work and cancels the context of every queued and
// running task. Queued tasks complete with context.Canceled without running.
func (p *Pool) ShutdownNow() {
	p.cancel()
	p.Shutdown()
}

// Wait blocks until every worker has exited or ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit queues task on p. The task receives a context that is canceled when ctx is
// done, when the returned future is canceled, or when the pool is shut down with
// ShutdownNow. Submit never blocks: a full queue is reported as ErrRejected.
func Submit[T any](ctx context.Context, p *Pool, task func(context.Context) (T, error)) (*Future[T], error) {
	if ctx == nil {
		return nil, errors.New("submit: nil context")
	}
	if p == nil {
		return nil, errors.New("submit: nil pool")
	}
	if task == nil {
		return nil, errors.New("submit: nil task")
	}

	taskCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.ctx, cancel)
	f := newFuture[T](cancel)

	run := func() {
		defer stop()
		defer cancel()
		if err := taskCtx.Err(); err != nil {
			var zero T
			f.complete(zero, err)
			return
		}
		// AfterFunc cancels asynchronously; check the pool lifetime directly too.
		if p.ctx.Err() != nil {
			var zero T
			f.complete(zero, context.Canceled)
			return
		}
		v, err := call(taskCtx, task)
		f.complete(v, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		stop()
		cancel()
		return nil, fmt.Errorf("pool %s: %w", p.name, ErrClosed)
	}
	select {
	case p.queue <- run:
		return f, nil
	default:
		stop()
		cancel()
		return nil, fmt.Errorf("pool %s: %w", p.name, ErrRejected)
	}
}

func call[T any](ctx context.Context, task func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v = zero
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return task(ctx)
}
