// Package waiter provides bounded polling for eventually-consistent cloud
// state. Every wait has a fixed interval and a fixed wall-clock budget;
// exhausting the budget is an ordinary, reportable condition, never a hang.
package waiter

import (
	"context"
	"errors"
	"time"
)

// ErrBudgetExceeded is returned when the condition did not become true within
// the wait budget. Callers treat it as retryable or escalatable, not fatal.
var ErrBudgetExceeded = errors.New("wait budget exceeded")

// Poll calls cond on a fixed interval until it returns true, returns an
// error, or the budget elapses. The condition is checked once immediately.
func Poll(ctx context.Context, interval, budget time.Duration, cond func(context.Context) (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	done, err := cond(ctx)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrBudgetExceeded
			}
			return ctx.Err()
		case <-ticker.C:
			done, err := cond(ctx)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}
