package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

const (
	defaultRetryAttempts   = 3
	defaultRetryBackoff    = 100 * time.Millisecond
	defaultRetryMaxBackoff = 10 * time.Second
	defaultRetryFactor     = 2.0
)

// RetryConfig is an attempt-count-driven retry policy for failed calls.
// It backs the optional transport retry of httpclient; readiness polling
// uses Poll instead.
type RetryConfig struct {
	// MaxAttempts counts the first call. Defaults to 3.
	MaxAttempts int
	// InitialBackoff is the first wait. Defaults to 100ms.
	InitialBackoff time.Duration
	// MaxBackoff caps a single wait. Defaults to 10s.
	MaxBackoff time.Duration
	// BackoffFactor grows the wait after each retry. Defaults to 2.
	BackoffFactor float64
	// Jitter spreads each wait by up to +/- this fraction (0 to 1).
	Jitter float64
	// RetryIf reports whether err is worth another attempt.
	// Defaults to DefaultRetryIf.
	RetryIf func(error) bool
	// OnRetry is called before each wait with the attempt that failed.
	OnRetry func(attempt int, err error, backoff time.Duration)
	// Clock defaults to SystemClock.
	Clock Clock
}

// DefaultRetryConfig returns 3 attempts from 100ms, doubling, with 10% jitter.
func DefaultRetryConfig() RetryConfig {
	cfg := RetryConfig{Jitter: 0.1}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in zero-value fields.
func (c *RetryConfig) ApplyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultRetryAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = defaultRetryBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultRetryMaxBackoff
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = defaultRetryFactor
	}
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
	if c.Clock == nil {
		c.Clock = SystemClock
	}
}

// DefaultRetryIf retries everything except context cancellation.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Retry calls fn until it succeeds, RetryIf rejects its error, or
// MaxAttempts is used up. attempt starts at 1. The last error is returned
// unchanged; a context error ends the loop before an attempt or during a
// wait.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	cfg.ApplyDefaults()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx, attempt)
		if err == nil {
			return result, nil
		}
		if attempt >= cfg.MaxAttempts || !cfg.RetryIf(err) {
			return zero, err
		}

		backoff := retryBackoff(attempt, cfg)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, backoff)
		}
		if serr := cfg.Clock.Sleep(ctx, backoff); serr != nil {
			return zero, serr
		}
	}
}

// retryBackoff is InitialBackoff * BackoffFactor^(attempt-1), jittered and
// capped at MaxBackoff.
func retryBackoff(attempt int, cfg RetryConfig) time.Duration {
	d := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if cfg.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * cfg.Jitter
	}
	if d > float64(cfg.MaxBackoff) {
		return cfg.MaxBackoff
	}
	if d <= 0 {
		return cfg.InitialBackoff
	}
	return time.Duration(d)
}
