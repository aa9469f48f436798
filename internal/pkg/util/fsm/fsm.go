package fsm

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// WrapEvent adapts an error-returning callback to fsm.Callback, reporting the error on the event.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// IsRejected reports whether err means the event did not apply in the current state,
// as opposed to a callback failure.
func IsRejected(err error) bool {
	var invalid fsm.InvalidEventError
	var noTransition fsm.NoTransitionError
	var canceled fsm.CanceledError
	return errors.As(err, &invalid) || errors.As(err, &noTransition) || errors.As(err, &canceled)
}
