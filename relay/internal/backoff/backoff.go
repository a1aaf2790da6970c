// Package backoff implements the reconnect policy for the stream reader:
// linearly increasing delays with a cap, retried forever.
package backoff

import (
	"context"
	"time"
)

// Policy computes retry delays. The n-th retry waits
// min(Start + n*Increment, Max).
type Policy struct {
	Start     time.Duration
	Increment time.Duration
	Max       time.Duration
}

// Delay returns the wait before the given retry attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := p.Start + time.Duration(attempt)*p.Increment
	if d > p.Max || d < 0 {
		return p.Max
	}
	return d
}

// Retrier re-runs an operation forever, waiting per Policy between attempts.
// It is scoped to a single Run call: the attempt counter starts at zero each
// time Run is entered.
type Retrier struct {
	Policy Policy

	// OnRetry is invoked before each wait with the attempt number, the
	// computed delay and the error that ended the previous attempt.
	OnRetry func(attempt int, delay time.Duration, err error)

	// Sleep waits for the given duration or until ctx is done. Injectable
	// so policy behavior is testable without real waits. Defaults to a
	// timer-based wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run invokes fn until ctx is cancelled. fn returning is always treated as a
// failed attempt; the retrier never gives up on its own.
func (r *Retrier) Run(ctx context.Context, fn func(context.Context) error) error {
	sleep := r.Sleep
	if sleep == nil {
		sleep = wait
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := r.Policy.Delay(attempt)
		if r.OnRetry != nil {
			r.OnRetry(attempt, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
