package planning

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"
)

// =============================================================================
// EXECUTOR - Lock, transaction, classify, back off, retry
// =============================================================================

// RetryPolicy bounds how creation writes are retried.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// BaseDelay is the unit of the exponential backoff: attempt n waits
	// BaseDelay * 2^n plus up to JitterFraction of that.
	BaseDelay      time.Duration
	JitterFraction float64

	// Retryable classifies errors. Defaults to IsRetryable.
	Retryable func(error) bool
}

// DefaultRetryPolicy retries three times after 1s, 2s and 4s, each plus up
// to 10% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		BaseDelay:      time.Second,
		JitterFraction: 0.10,
		Retryable:      IsRetryable,
	}
}

// Backoff is the delay before retry number attempt (0-based), jitter excluded.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<attempt)
}

// Sleeper waits between attempts. Replaced in tests.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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

// Executor runs a unit of work inside a Store transaction and retries it
// when the failure is retryable.
//
// A transaction that has begun is never interrupted: fn runs with a context
// detached from the caller's cancellation. Only the sleep between attempts
// observes ctx.
type Executor struct {
	Store  Store
	Policy RetryPolicy
	Sleep  Sleeper
	Jitter func() float64 // in [0, 1)
}

func NewExecutor(store Store, policy RetryPolicy) *Executor {
	if policy.Retryable == nil {
		policy.Retryable = IsRetryable
	}
	return &Executor{
		Store:  store,
		Policy: policy,
		Sleep:  sleepContext,
		Jitter: rand.Float64,
	}
}

// Create runs fn under the creation lock with the retry policy.
func (e *Executor) Create(ctx context.Context, op string, fn func(Tx) error) error {
	return e.run(ctx, op, e.Store.WithCreationLock, e.Policy.MaxRetries, fn)
}

// Update runs fn in a plain transaction with the retry policy.
func (e *Executor) Update(ctx context.Context, op string, fn func(Tx) error) error {
	return e.run(ctx, op, e.Store.WithTx, e.Policy.MaxRetries, fn)
}

// Once runs fn in a plain transaction without retry.
func (e *Executor) Once(ctx context.Context, op string, fn func(Tx) error) error {
	return e.run(ctx, op, e.Store.WithTx, 0, fn)
}

func (e *Executor) run(ctx context.Context, op string, begin func(context.Context, func(Tx) error) error, retries int, fn func(Tx) error) error {
	txCtx := context.WithoutCancel(ctx)

	var err error
	for attempt := 0; ; attempt++ {
		err = begin(txCtx, fn)
		if err == nil {
			return nil
		}
		if attempt >= retries || !e.Policy.Retryable(err) {
			break
		}

		delay := e.Policy.Backoff(attempt)
		delay += time.Duration(float64(delay) * e.Policy.JitterFraction * e.jitter())
		log.Printf("[Ledger] %s attempt %d/%d failed, retrying in %v: %v", op, attempt+1, retries+1, delay, err)
		if serr := e.Sleep(ctx, delay); serr != nil {
			// Keep the storage error so callers can still classify it.
			log.Printf("[Ledger] %s abandoned during backoff: %v", op, serr)
			return fmt.Errorf("%s: %w (last error: %w)", op, serr, err)
		}
	}

	log.Printf("[Ledger] %s failed: %v", op, err)
	return err
}

func (e *Executor) jitter() float64 {
	if e.Jitter == nil {
		return 0
	}
	return e.Jitter()
}
