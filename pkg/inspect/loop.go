package inspect

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrLoopClosed is returned by Do after Close.
var ErrLoopClosed = errors.New("inspect: loop closed")

// Loop runs functions one at a time on a single goroutine. The state tree is
// not safe for concurrent use, so every HTTP handler and stream goes through
// the tree's loop.
type Loop struct {
	tasks     chan func()
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewLoop starts a loop goroutine. Call Close to stop it.
func NewLoop() *Loop {
	l := &Loop{
		tasks:   make(chan func()),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		select {
		case task := <-l.tasks:
			task()
		case <-l.done:
			return
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to return. A panic in fn
// is recovered and returned as an error.
//
// If ctx ends before fn is picked up, fn never runs. If ctx ends while fn is
// running, Do returns ctx.Err() and fn still runs to completion.
//
// Do must not be called from inside a function running on the same loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	result := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("inspect: task panicked: %v", r)
			}
		}()
		fn()
		result <- nil
	}

	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop and waits for a running task to finish. Calling it
// more than once is safe.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
	<-l.stopped
}
