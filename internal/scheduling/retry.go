package scheduling

import (
	"context"
	"time"
)

const maxRetryDelay = 5 * time.Second

// Sleeper pauses between automatic booking attempts.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

type timerSleeper struct{}

// NewTimerSleeper returns a Sleeper that waits on a timer and aborts when ctx is done.
func NewTimerSleeper() Sleeper {
	return timerSleeper{}
}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
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

// RetryPolicy bounds the automatic booking loop.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// Backoff returns the pause after the given failed attempt (1-based).
// The delay doubles per attempt and is capped.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.Delay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay > maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}
