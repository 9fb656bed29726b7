package embcache

import (
	"context"
	"errors"
	"time"

	"github.com/kailas-cloud/matchmate/internal/domain"
)

// RetryConfig configures exponential backoff for provider calls.
type RetryConfig struct {
	Attempts   int           // total calls, including the first
	BaseDelay  time.Duration // wait after the first failure
	Multiplier float64
}

// DefaultRetryConfig returns 3 attempts waiting 500ms then 1s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:   3,
		BaseDelay:  500 * time.Millisecond,
		Multiplier: 2,
	}
}

type sleepFunc func(ctx context.Context, d time.Duration) error

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

// retryWithBackoff calls fn until it succeeds, attempts run out, the context is done,
// or fn returns a quota error (retrying cannot help there).
func retryWithBackoff[T any](
	ctx context.Context, cfg RetryConfig, sleep sleepFunc, fn func() (T, error),
) (T, error) {
	var zero T
	var lastErr error
	attempts := max(cfg.Attempts, 1)
	backoff := cfg.BaseDelay

	for attempt := range attempts {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if errors.Is(err, domain.ErrQuotaExceeded) {
			return zero, err
		}

		if attempt < attempts-1 {
			if err := sleep(ctx, backoff); err != nil {
				return zero, err
			}
			if cfg.Multiplier > 1 {
				backoff = time.Duration(float64(backoff) * cfg.Multiplier)
			}
		}
	}

	return zero, lastErr
}
