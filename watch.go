package nlxd

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Watch iterates over the polled states of an operation.
//
// Use [Client.WatchOperation] to create a watch, then call Next until it
// returns false:
//
//	w := client.WatchOperation(ctx, handle)
//	defer w.Close()
//
//	for w.Next() {
//	    op := w.Operation()
//	    fmt.Printf("%s: %s\n", op.Description, op.Status)
//	}
//
//	if err := w.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// Each call to Next performs one short-lived request. Nothing is held open
// while the watch sleeps between polls.
type Watch struct {
	ctx      context.Context
	client   *Client
	handle   OperationHandle
	deadline time.Time
	interval time.Duration

	current   *Operation
	state     OperationState
	polls     int
	done      bool
	err       error
	closed    atomic.Bool
	stop      chan struct{}
	closeOnce sync.Once
}

// WatchOperation starts watching an operation. The watch ends when the
// operation reaches a terminal state or ctx is done.
func (c *Client) WatchOperation(ctx context.Context, handle OperationHandle) *Watch {
	return c.watch(ctx, handle, -1)
}

func (c *Client) watch(ctx context.Context, handle OperationHandle, timeout time.Duration) *Watch {
	w := &Watch{
		ctx:      ctx,
		client:   c,
		handle:   handle,
		interval: c.pollInterval,
		state:    StateCreated,
		stop:     make(chan struct{}),
	}
	if timeout >= 0 {
		w.deadline = time.Now().Add(timeout)
	}
	return w
}

// Next polls the operation once, sleeping first unless this is the
// first poll.
//
// Returns true if a new state is available, false once a terminal state
// was already returned, the watch was closed or an error occurred. Call
// [Watch.Err] to check for errors.
func (w *Watch) Next() bool {
	if w.closed.Load() || w.done || w.err != nil {
		return false
	}

	if w.polls > 0 {
		if err := w.sleep(); err != nil {
			if !w.closed.Load() {
				w.err = err
			}
			return false
		}
	}

	pollCtx := w.ctx
	if !w.deadline.IsZero() && time.Until(w.deadline) > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithDeadline(w.ctx, w.deadline)
		defer cancel()
	}

	op, err := w.client.GetOperation(pollCtx, w.handle)
	w.polls++
	if err != nil {
		if ctxErr := w.ctx.Err(); ctxErr != nil {
			err = derive(ErrWaitTimedOut, "wait aborted", errors.Join(ctxErr, err))
		} else if pollCtx.Err() != nil {
			err = derive(ErrWaitTimedOut, fmt.Sprintf("operation %s did not answer before the wait deadline", w.handle.ID), err)
		}
		w.err = err
		return false
	}

	state, err := op.State()
	if err != nil {
		w.current = op
		w.err = err
		return false
	}

	w.client.logger.Debug().
		Str("operation", w.handle.ID).
		Int("status_code", int(op.StatusCode)).
		Str("state", state.String()).
		Int("poll", w.polls).
		Msg("operation polled")

	w.current = op
	w.state = state
	w.done = state.IsTerminal()
	return true
}

var errWatchClosed = errors.New("watch closed")

// sleep waits for the current interval, bounded by the deadline and the
// context, then grows the interval.
func (w *Watch) sleep() error {
	d := w.interval
	if !w.deadline.IsZero() {
		remaining := time.Until(w.deadline)
		if remaining <= 0 {
			return derive(ErrWaitTimedOut, fmt.Sprintf("operation %s still %s", w.handle.ID, w.current.StatusCode), nil)
		}
		d = min(d, remaining)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-w.ctx.Done():
		return derive(ErrWaitTimedOut, "wait aborted", w.ctx.Err())
	case <-w.stop:
		return errWatchClosed
	case <-timer.C:
	}

	w.interval = min(w.interval*2, w.client.maxPollInterval)
	return nil
}

// Operation returns the most recently polled operation, or nil before the
// first successful poll.
func (w *Watch) Operation() *Operation {
	return w.current
}

// State returns the tracker state of the most recent poll.
func (w *Watch) State() OperationState {
	return w.state
}

// Err returns the error that ended the watch, if any.
func (w *Watch) Err() error {
	return w.err
}

// Close stops the watch and ends any [Watch.Updates] goroutine, even one
// whose consumer stopped reading. Close is safe to call multiple times.
func (w *Watch) Close() {
	w.closed.Store(true)
	w.closeOnce.Do(func() { close(w.stop) })
}

// Updates returns a channel yielding each polled operation.
//
// The channel is closed when the operation ends, an error occurs, the
// watch is closed or its context is done. Check [Watch.Err] after the
// channel closes.
//
//	for op := range w.Updates() {
//	    fmt.Println(op.Status)
//	}
//	if err := w.Err(); err != nil {
//	    log.Fatal(err)
//	}
func (w *Watch) Updates() <-chan *Operation {
	ch := make(chan *Operation)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				w.err = fmt.Errorf("panic in operation watch: %v\n%s", r, debug.Stack())
			}
			close(ch)
		}()

		for w.Next() {
			// Copy so the consumer never shares the record with the poller.
			op := *w.current
			select {
			case ch <- &op:
			case <-w.ctx.Done():
				return
			case <-w.stop:
				return
			}
		}
	}()
	return ch
}
