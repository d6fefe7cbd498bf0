package uistate

import (
	"context"
	"sync"
	"time"
)

// Operation is side-effecting work whose result is merged into state.
// It shapes its Payload to the state fields it updates.
type Operation func(ctx context.Context) (Payload, error)

// Settle runs a started operation and returns its terminal action without
// dispatching it. Calls after the first return the same action.
type Settle func(ctx context.Context) Action

// Begin dispatches AsyncStart(msg) synchronously and returns the Settle for op.
// An empty msg becomes DefaultMessage.
func Begin(d Dispatcher, op Operation, msg string) Settle {
	if msg == "" {
		msg = DefaultMessage
	}
	epoch := d.Dispatch(AsyncStart{Msg: msg}).Epoch

	var (
		once     sync.Once
		terminal Action
	)
	return func(ctx context.Context) Action {
		once.Do(func() {
			started := time.Now()
			payload, err := op(ctx)
			if o, ok := d.(operationObserver); ok {
				o.ObserveOperation(msg, time.Since(started), err != nil)
			}
			if err != nil {
				terminal = AsyncError{Err: err.Error(), Epoch: epoch}
				return
			}
			terminal = AsyncComplete{Payload: payload, Epoch: epoch}
		})
		return terminal
	}
}

// Run brackets op with AsyncStart and exactly one terminal action, dispatching both.
// Failures of op end up in State.Error and are not returned.
func Run(ctx context.Context, d Dispatcher, op Operation, msg string) State {
	settle := Begin(d, op, msg)
	return d.Dispatch(settle(ctx))
}
