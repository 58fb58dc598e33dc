package async

import (
	"context"
	"fmt"
)

// Future is the eventual result of a task started with Async.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Outcome pairs a task result with its error.
type Outcome[U any] struct {
	Value U
	Err   error
}

// Async runs fn(ctx, param) in its own goroutine and returns immediately.
// A panic inside fn is recovered and reported as ErrPanic, so one failing
// task never takes down its siblings.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				var zero U
				f.result = zero
				f.err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}

		f.result, f.err = fn(ctx, param)
	}()

	return f
}

// Await blocks until the task finishes.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// Settle waits for every future and returns their outcomes in order. A failed
// task does not hide the others.
func Settle[U any](futures ...*Future[U]) []Outcome[U] {
	out := make([]Outcome[U], len(futures))
	for i, f := range futures {
		v, err := f.Await()
		out[i] = Outcome[U]{Value: v, Err: err}
	}
	return out
}
