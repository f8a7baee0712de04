// Package retry runs fallible operations a bounded number of times with a
// fixed pause between attempts.
package retry

import (
	"context"
	"log/slog"
	"time"
)

// Policy bounds a retried operation.
type Policy struct {
	Attempts int
	Delay    time.Duration
	// Name labels log lines.
	Name string
}

// DefaultPolicy is three attempts two seconds apart.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Delay: 2 * time.Second}
}

// Result is the outcome of Run. Err is the error of the last attempt exactly
// as the operation returned it, or the context error if the run was
// abandoned.
type Result[T any] struct {
	Value    T
	Attempts int
	Err      error
}

// Run calls op until it succeeds, the attempts are used up or ctx is done.
func Run[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) Result[T] {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var res Result[T]
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}

		res.Attempts = attempt
		value, err := op(ctx)
		if err == nil {
			res.Value = value
			res.Err = nil
			return res
		}
		res.Err = err

		if attempt == attempts {
			slog.ErrorContext(ctx, "operation failed, giving up",
				slog.String("operation", p.Name),
				slog.Int("attempts", attempt),
				slog.String("error", err.Error()))
			return res
		}

		slog.WarnContext(ctx, "operation failed, retrying",
			slog.String("operation", p.Name),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", p.Delay),
			slog.String("error", err.Error()))

		if p.Delay > 0 {
			timer := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				res.Err = ctx.Err()
				return res
			case <-timer.C:
			}
		}
	}
	return res
}

// Do is Run for callers that only need the value and error.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	res := Run(ctx, p, op)
	return res.Value, res.Err
}
