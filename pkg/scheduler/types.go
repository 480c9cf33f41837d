package scheduler

import (
	"context"
)

// Work is one unit of deferred work.
type Work[T any] func(ctx context.Context) (T, error)

// Result carries the outcome of one Work unit.
type Result[T any] struct {
	Data T
	Err  error
}

// Future is the handle to a dispatched Work unit.
type Future[T any] struct {
	c      chan Result[T]
	cancel context.CancelFunc
}

// C delivers the result exactly once.
func (f *Future[T]) C() <-chan Result[T] {
	return f.c
}

// Wait blocks until the result is available.
func (f *Future[T]) Wait() Result[T] {
	return <-f.c
}

// Stop cancels the work's context. The future still delivers a result.
func (f *Future[T]) Stop() {
	f.cancel()
}
