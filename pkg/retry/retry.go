// Package retry provides exponential backoff with jitter for transient
// failures, mainly the schema refresh path.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Config defines retry behavior.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0-1.0; +/- fraction of the delay
}

// DefaultConfig returns defaults suited to database introspection: 3
// retries starting at 200ms, doubling, capped at 5s, with 10% jitter.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// Do executes fn until it succeeds or retries are exhausted, waiting with
// exponential backoff between attempts. Context cancellation interrupts
// the wait and returns ctx.Err().
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(withJitter(delay, cfg.JitterFactor)):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return lastErr
}

func withJitter(delay time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return delay
	}
	jitter := float64(delay) * factor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}
