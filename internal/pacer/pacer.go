// Package pacer implements the exponential-backoff-with-jitter retry loop
// that every Transport call runs through, in the style rclone backends use
// their per-remote fs.Pacer (see backend/seafile/pacer.go): a small object
// wrapping a retryable call, not a generic job queue.
package pacer

import (
	"context"
	"math/rand"
	"time"
)

// Pacer retries a function with exponential backoff: delay doubles each
// attempt up to maxRetries, with up to one base-delay of jitter added each
// time.
type Pacer struct {
	base       time.Duration
	maxRetries int
	rng        *rand.Rand
}

// New builds a Pacer with the given base delay and retry budget.
func New(base time.Duration, maxRetries int) *Pacer {
	return &Pacer{
		base:       base,
		maxRetries: maxRetries,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Retryable is implemented by errors that know whether they're worth
// retrying; callers without a classifier pass their own shouldRetry
// function to Call instead.
type Retryable interface {
	Retryable() bool
}

// Call runs fn, retrying while shouldRetry(err) is true, up to maxRetries
// additional attempts, sleeping with exponential backoff plus jitter between
// attempts. It returns the last error seen if every attempt fails, or
// ctx.Err() if ctx is cancelled while sleeping.
func (p *Pacer) Call(ctx context.Context, shouldRetry func(error) bool, fn func(ctx context.Context) error) error {
	var lastErr error
	delay := p.base
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == p.maxRetries || !shouldRetry(lastErr) {
			return lastErr
		}
		sleep := delay
		if p.base > 0 {
			sleep += time.Duration(p.rng.Int63n(int64(p.base)))
		}
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return lastErr
}
