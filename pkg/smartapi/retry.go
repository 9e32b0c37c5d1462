package smartapi

import (
	"context"
	"math/rand"
	"time"

	"github.com/cockroachdb/errors"
)

// ========== 调用方重试 ==========

// RetryPolicy configures Retry. The pipeline itself never retries.
type RetryPolicy struct {
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay" mapstructure:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
	Jitter     bool          `yaml:"jitter" mapstructure:"jitter"`
}

// DefaultRetryPolicy retries three times starting at 500ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Jitter:     true,
	}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << attempt
	if d <= 0 || (p.MaxDelay > 0 && d > p.MaxDelay) {
		d = p.MaxDelay
	}
	if p.Jitter && d > 0 {
		// ±20%
		span := int64(d) / 5
		if span > 0 {
			d += time.Duration(rand.Int63n(2*span) - span)
		}
	}
	if d < 0 {
		d = p.BaseDelay
	}
	return d
}

// Retry runs op with exponential backoff, retrying only IsRetryable errors.
func Retry(ctx context.Context, policy RetryPolicy, op func(ctx context.Context) error) error {
	if policy.MaxRetries <= 0 {
		return op(ctx)
	}

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt >= policy.MaxRetries {
			break
		}

		timer := time.NewTimer(policy.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return errors.Wrapf(lastErr, "operation failed after %d retries", policy.MaxRetries)
}

// RetryResult is Retry for operations producing a value.
func RetryResult[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Retry(ctx, policy, func(ctx context.Context) error {
		var err error
		result, err = op(ctx)
		return err
	})
	return result, err
}
