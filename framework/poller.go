package framework

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultPollInterval    = time.Second * 3
	DefaultPollMaxAttempts = 2000
)

// ErrPollTimedOut is returned by PollPolicy.Poll when the attempt limit is reached before
// the condition is satisfied.
var ErrPollTimedOut = errors.New("timed out")

// SleepFunc waits for the given duration, or returns early with an error if the context
// is cancelled.
type SleepFunc func(ctx context.Context, d time.Duration) error

// PollPolicy describes how to repeatedly check for a condition: how many times to try,
// and how long to wait between tries.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
	Sleep       SleepFunc // defaults to a context-aware time.Timer wait
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{Interval: DefaultPollInterval, MaxAttempts: DefaultPollMaxAttempts}
}

// Poll calls attempt until it reports done, returns an error, or MaxAttempts calls have
// been made. It sleeps for Interval between calls, but not after the last one. The
// returned count is the number of calls made.
//
// If the limit is reached, the error wraps ErrPollTimedOut.
func (p PollPolicy) Poll(ctx context.Context, attempt func(n int) (done bool, err error)) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepWithContext
	}
	for n := 1; ; n++ {
		done, err := attempt(n)
		if err != nil {
			return n, err
		}
		if done {
			return n, nil
		}
		if n >= maxAttempts {
			return n, fmt.Errorf("%w after %d attempts at %s intervals", ErrPollTimedOut, n, p.Interval)
		}
		if err := sleep(ctx, p.Interval); err != nil {
			return n, err
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
