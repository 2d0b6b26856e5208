package pool

import (
	"context"
	"sync"
)

// Future is the pending result of a task submitted with Submit.
type Future[T any] struct {
	once   sync.Once
	done   chan struct{}
	value  T
	err    error
	cancel context.CancelFunc
}

func newFuture[T any](cancel context.CancelFunc) *Future[T] {
	return &Future[T]{done: make(chan struct{}), cancel: cancel}
}

// complete records the outcome; only the first call wins.
func (f *Future[T]) complete(v T, err error) bool {
	won := false
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
		won = true
	})
	return won
}

// Done is closed once the future has an outcome.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Cancel cancels the task context and, unless the task already finished, completes
// the future with context.Canceled right away. A running task that ignores its
// context keeps its worker until it returns; its result is discarded.
func (f *Future[T]) Cancel() bool {
	f.cancel()
	var zero T
	return f.complete(zero, context.Canceled)
}

// Wait returns the task outcome, or ctx.Err() if ctx is done first. An outcome that
// is already available is always preferred over an expired ctx.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}

	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		select {
		case <-f.done:
			return f.value, f.err
		default:
		}
		var zero T
		return zero, ctx.Err()
	}
}
