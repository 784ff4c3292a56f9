package payroll

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gaushala-erp/payroll-backend-go/internal/domain/payroll"
)

// newRetryPolicy doubles the wait from RetryBackoff with no jitter, allows
// MaxRetries retries and stops early when ctx is done.
func (s *PayrollServiceImpl) newRetryPolicy(ctx context.Context) backoff.BackOffContext {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.opts.RetryBackoff
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.opts.MaxRetries)), ctx)
}

// withRetry runs fn until it succeeds, fails with a non-transient error,
// or MaxRetries retries are spent. Only ErrStoreUnavailable is retried.
func withRetry[T any](ctx context.Context, s *PayrollServiceImpl, op string, fn func(context.Context) (T, error)) (T, error) {
	var lastErr error
	attempt := 0

	operation := func() (T, error) {
		attempt++
		result, err := fn(ctx)
		if err != nil && !errors.Is(err, payroll.ErrStoreUnavailable) {
			return result, backoff.Permanent(err)
		}
		lastErr = err
		return result, err
	}

	notify := func(err error, wait time.Duration) {
		s.metrics.StoreRetried()
		slog.Warn("Payroll: retrying store call",
			"operation", op,
			"attempt", attempt,
			"backoff", wait,
			"error", err,
		)
	}

	result, err := backoff.RetryNotifyWithData(operation, s.newRetryPolicy(ctx), notify)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) && lastErr != nil {
		// Keep the store error visible to callers that classify on it.
		var zero T
		return zero, errors.Join(lastErr, err)
	}
	return result, err
}
