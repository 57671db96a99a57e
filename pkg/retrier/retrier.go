// Package retrier re-runs short market-data calls with exponential
// backoff. A quote that arrives late is as useless as one that never
// arrives, so the defaults cap quickly: three retries, 200ms first
// delay, 5s ceiling.
package retrier

import (
	"context"
	"math/rand"
	"time"
)

const (
	defaultInitialDelay = 200 * time.Millisecond
	defaultMaxDelay     = 5 * time.Second
	defaultMaxRetries   = 3

	backoffFactor = 2.0
	// each delay is shifted by up to ±10% so callers hitting the same
	// flaky source do not retry in lockstep
	jitterRatio = 0.1
)

// Retrier re-runs a failing call with a doubling delay between attempts.
type Retrier struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	maxRetries   int
}

// Option overrides one retry parameter.
type Option func(*Retrier)

// WithInitialInterval sets the delay before the first retry.
func WithInitialInterval(d time.Duration) Option {
	return func(r *Retrier) { r.initialDelay = d }
}

// WithMaxInterval caps the delay between retries.
func WithMaxInterval(d time.Duration) Option {
	return func(r *Retrier) { r.maxDelay = d }
}

// WithMaxRetries sets how many times a failing call is re-run.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) { r.maxRetries = n }
}

// New creates a Retrier with the defaults, adjusted by opts.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		initialDelay: defaultInitialDelay,
		maxDelay:     defaultMaxDelay,
		maxRetries:   defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs fn until it succeeds, retries are exhausted, or ctx is done.
// The error of the last attempt is returned; a cancelled context wins
// over whatever fn last reported.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	delay := r.initialDelay

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= r.maxRetries {
			return err
		}

		if sleepErr := sleep(ctx, jittered(delay)); sleepErr != nil {
			return sleepErr
		}
		delay = time.Duration(float64(delay) * backoffFactor)
		if delay > r.maxDelay {
			delay = r.maxDelay
		}
	}
}

// DoWithData is Do for calls that produce a value.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}

func jittered(d time.Duration) time.Duration {
	shift := (rand.Float64()*2 - 1) * jitterRatio * float64(d)
	if out := time.Duration(float64(d) + shift); out > 0 {
		return out
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
