// Package retry implements the bounded fixed-delay-doubling policy used
// around batch/historical venue calls. Live components never retry
// through this package; they fail fast and let the caller decide.
package retry

import (
	"context"
	"time"
)

type Policy struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts: 5,
		Delay:    500 * time.Millisecond,
		MaxDelay: 8 * time.Second,
	}
}

// Do runs fn up to p.Attempts times, sleeping p.Delay doubled after each
// failure (capped at p.MaxDelay). The last error is returned; ctx
// cancellation aborts between attempts.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := p.Delay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 8 * time.Second
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return err
}
