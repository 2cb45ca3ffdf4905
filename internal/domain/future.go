package domain

import (
	"context"
	"errors"
	"sync"
)

// Future is a single-resolution result with explicit cancellation.
// The first call to Resolve, Reject or Cancel wins; later calls are no-ops.
//
// Thread-safety: all methods may be called from any goroutine.
type Future[T any] struct {
	id   string
	once sync.Once
	done chan struct{}

	value T
	err   error
}

// NewFuture creates an unresolved future.
func NewFuture[T any](id string) *Future[T] {
	return &Future[T]{
		id:   id,
		done: make(chan struct{}),
	}
}

// ID returns the identifier given at construction.
func (f *Future[T]) ID() string {
	return f.id
}

// Resolve completes the future with a value.
// Returns false if the future was already completed.
func (f *Future[T]) Resolve(value T) bool {
	return f.complete(value, nil)
}

// Reject completes the future with an error.
// Returns false if the future was already completed.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.complete(zero, err)
}

// Cancel completes the future with ErrCancelled.
// Returns false if the future was already completed.
func (f *Future[T]) Cancel() bool {
	return f.Reject(ErrCancelled)
}

func (f *Future[T]) complete(value T, err error) bool {
	completed := false
	f.once.Do(func() {
		f.value = value
		f.err = err
		completed = true
		close(f.done)
	})
	return completed
}

// Done returns a channel closed once the future is completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the future is completed.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// IsCancelled reports whether the future was completed by Cancel.
func (f *Future[T]) IsCancelled() bool {
	if !f.IsDone() {
		return false
	}
	return errors.Is(f.err, ErrCancelled)
}

// Await blocks until the future completes or ctx is done.
// Cancelling ctx does not cancel the future.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the outcome without blocking.
// ok is false while the future is pending.
func (f *Future[T]) Result() (value T, ok bool, err error) {
	if !f.IsDone() {
		var zero T
		return zero, false, nil
	}
	return f.value, true, f.err
}
