package submission

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"hub/internal/clients/remote"
	"hub/internal/platform/config"
	"hub/internal/ports"
)

// ErrRetriesExhausted wraps the last transient failure once every attempt is spent.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryPolicy retries transient remote failures with exponential backoff.
// Attempt k (0-based) that fails transiently is followed by a delay of
// BaseDelay * 2^k * (1 + U[0, JitterFraction]).
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	JitterFraction float64

	// Sleep and Rand are overridable for tests.
	Sleep func(ctx context.Context, d time.Duration) error
	Rand  func() float64
	// OnRetry, if set, is told about every scheduled retry.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// PolicyFromConfig builds the production policy.
func PolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		BaseDelay:      cfg.BaseDelay,
		JitterFraction: cfg.JitterFraction,
	}
}

// Delay returns the wait after the failed attempt k.
func (p RetryPolicy) Delay(k int) time.Duration {
	r := rand.Float64
	if p.Rand != nil {
		r = p.Rand
	}
	backoff := float64(p.BaseDelay) * float64(int64(1)<<k)
	return time.Duration(backoff * (1 + r()*p.JitterFraction))
}

// Do runs fn until it succeeds, fails permanently, or MaxAttempts is reached.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	var err error
	for k := range attempts {
		err = fn(ctx)
		if err == nil || !remote.IsRetryable(err) {
			return err
		}
		if k == attempts-1 {
			break
		}
		d := p.Delay(k)
		if p.OnRetry != nil {
			p.OnRetry(k+1, d, err)
		}
		if serr := sleep(ctx, d); serr != nil {
			return fmt.Errorf("retry interrupted: %w", serr)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryingReporter decorates a Reporter with a RetryPolicy.
type RetryingReporter struct {
	inner  ports.Reporter
	policy RetryPolicy
}

// WithRetry wraps inner so every Post is retried per policy.
func WithRetry(inner ports.Reporter, policy RetryPolicy) *RetryingReporter {
	return &RetryingReporter{inner: inner, policy: policy}
}

func (r *RetryingReporter) Post(ctx context.Context, endpoint string, payload any) error {
	return r.policy.Do(ctx, func(ctx context.Context) error {
		return r.inner.Post(ctx, endpoint, payload)
	})
}
