package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_Delay(t *testing.T) {
	p := Policy{Start: time.Second, Increment: time.Second, Max: 30 * time.Second}

	assert.Equal(t, 1*time.Second, p.Delay(0))
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 3*time.Second, p.Delay(2))
	assert.Equal(t, 30*time.Second, p.Delay(29))
	assert.Equal(t, 30*time.Second, p.Delay(100))
}

func TestPolicy_Delay_MonotonicAndCapped(t *testing.T) {
	p := Policy{Start: 500 * time.Millisecond, Increment: 250 * time.Millisecond, Max: 5 * time.Second}

	prev := time.Duration(0)
	for n := 0; n < 1000; n++ {
		d := p.Delay(n)
		assert.GreaterOrEqual(t, d, prev, "delay must be monotonically non-decreasing")
		assert.LessOrEqual(t, d, p.Max, "delay must be bounded by the cap")
		prev = d
	}
}

func TestPolicy_Delay_ZeroIncrement(t *testing.T) {
	p := Policy{Start: 2 * time.Second, Increment: 0, Max: 30 * time.Second}

	assert.Equal(t, 2*time.Second, p.Delay(0))
	assert.Equal(t, 2*time.Second, p.Delay(50))
}

func TestRetrier_ObservedDelays(t *testing.T) {
	var delays []time.Duration
	attempts := 0

	r := &Retrier{
		Policy: Policy{Start: time.Second, Increment: time.Second, Max: 30 * time.Second},
		Sleep: func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	err := r.Run(ctx, func(context.Context) error {
		attempts++
		if attempts == 4 {
			cancel()
		}
		return errors.New("connection reset")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, attempts)
	// Three consecutive failures observe 1s, 2s, 3s before each retry.
	require.Len(t, delays, 3)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second, 3 * time.Second}, delays)
}

func TestRetrier_NeverGivesUp(t *testing.T) {
	attempts := 0
	r := &Retrier{
		Policy: Policy{Start: time.Millisecond, Increment: time.Millisecond, Max: 10 * time.Millisecond},
		Sleep:  func(ctx context.Context, d time.Duration) error { return nil },
	}

	ctx, cancel := context.WithCancel(context.Background())
	_ = r.Run(ctx, func(context.Context) error {
		attempts++
		if attempts == 100 {
			cancel()
		}
		return errors.New("still down")
	})

	assert.Equal(t, 100, attempts, "retrier must keep retrying until cancelled")
}

func TestRetrier_OnRetryCallback(t *testing.T) {
	var gotAttempts []int
	var gotErrs []error

	r := &Retrier{
		Policy: Policy{Start: time.Second, Increment: time.Second, Max: 30 * time.Second},
		OnRetry: func(attempt int, delay time.Duration, err error) {
			gotAttempts = append(gotAttempts, attempt)
			gotErrs = append(gotErrs, err)
		},
		Sleep: func(ctx context.Context, d time.Duration) error { return nil },
	}

	failure := errors.New("eof")
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())
	_ = r.Run(ctx, func(context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return failure
	})

	require.Len(t, gotAttempts, 1)
	assert.Equal(t, 0, gotAttempts[0])
	assert.ErrorIs(t, gotErrs[0], failure)
}

func TestRetrier_CancelledBeforeStart(t *testing.T) {
	r := &Retrier{Policy: Policy{Start: time.Second, Max: time.Second}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := r.Run(ctx, func(context.Context) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
