package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPollTimeout is matched by every *PollTimeoutError.
var ErrPollTimeout = errors.New("poll deadline exceeded")

const (
	defaultPollInitialInterval = 2 * time.Second
	defaultPollMultiplier      = 2.0
	defaultPollMaxInterval     = 32 * time.Second
	defaultPollTimeout         = 300 * time.Second
)

// PollConfig is a deadline-driven backoff policy. There is no attempt limit;
// polling stops on success, on an operation error, or at the deadline.
type PollConfig struct {
	// InitialInterval is the first wait. Defaults to 2s.
	InitialInterval time.Duration `yaml:"initial_interval" mapstructure:"initial_interval"`
	// Multiplier grows the interval after each wait. Must be > 1. Defaults to 2.0.
	Multiplier float64 `yaml:"multiplier" mapstructure:"multiplier"`
	// MaxInterval caps a single wait. Defaults to 32s.
	MaxInterval time.Duration `yaml:"max_interval" mapstructure:"max_interval"`
	// Timeout is the deadline relative to the start of the poll. Zero means
	// 300s; negative values are rejected.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Deadline is an absolute deadline. When set it overrides Timeout.
	Deadline time.Time `yaml:"-" mapstructure:"-"`
	// TimeoutMessage is the text of the returned PollTimeoutError.
	TimeoutMessage string `yaml:"-" mapstructure:"-"`

	// OnNotReady is called each time the result is reported not ready.
	OnNotReady func(state PollState) `yaml:"-" mapstructure:"-"`
	// OnBackoff is called before each wait.
	OnBackoff func(state PollState, wait time.Duration) `yaml:"-" mapstructure:"-"`
	// OnDone is called once with the final state and error (nil on success).
	OnDone func(state PollState, err error) `yaml:"-" mapstructure:"-"`

	// Clock defaults to SystemClock.
	Clock Clock `yaml:"-" mapstructure:"-"`
}

// DefaultPollConfig returns the 2s/x2/32s/300s policy.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		InitialInterval: defaultPollInitialInterval,
		Multiplier:      defaultPollMultiplier,
		MaxInterval:     defaultPollMaxInterval,
		Timeout:         defaultPollTimeout,
	}
}

// ApplyDefaults fills in zero-value fields. A negative Timeout is left for
// Validate to reject.
func (c *PollConfig) ApplyDefaults() {
	if c.InitialInterval <= 0 {
		c.InitialInterval = defaultPollInitialInterval
	}
	if c.Multiplier == 0 {
		c.Multiplier = defaultPollMultiplier
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = defaultPollMaxInterval
	}
	if c.Timeout == 0 {
		c.Timeout = defaultPollTimeout
	}
	if c.Clock == nil {
		c.Clock = SystemClock
	}
}

// Validate checks the policy invariants.
func (c *PollConfig) Validate() error {
	if c.Multiplier <= 1 {
		return fmt.Errorf("resilience: poll multiplier must be > 1 (got %v)", c.Multiplier)
	}
	if c.MaxInterval < c.InitialInterval {
		return fmt.Errorf("resilience: poll max_interval %v is below initial_interval %v", c.MaxInterval, c.InitialInterval)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("resilience: poll timeout must be positive")
	}
	return nil
}

// PollState is the progress of a single Poll call. It is never shared.
type PollState struct {
	// Attempts is the number of operation invocations so far.
	Attempts int
	// Start is when polling began.
	Start time.Time
	// Deadline is the absolute deadline in effect.
	Deadline time.Time
	// NextWake is when the next attempt is due (zero before the first wait).
	NextWake time.Time
	// Elapsed is the time spent since Start.
	Elapsed time.Duration
	// Interval is the interval for the next wait, capped at MaxInterval.
	Interval time.Duration
}

// PollTimeoutError reports that the deadline passed while the result was
// still not ready.
type PollTimeoutError struct {
	Message  string
	Attempts int
	Elapsed  time.Duration
	Deadline time.Time
}

func (e *PollTimeoutError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s after %d attempts", ErrPollTimeout, e.Attempts)
}

// Is reports ErrPollTimeout as a match.
func (e *PollTimeoutError) Is(target error) bool {
	return target == ErrPollTimeout
}

// Poll invokes op until notReady reports false for its result.
//
// An error from op ends polling at once and is returned unchanged; notReady
// is only evaluated on successful results. Between attempts Poll waits
// min(interval, MaxInterval) and then multiplies the interval. If the next
// attempt would start after the deadline, Poll returns a *PollTimeoutError
// without waiting. A deadline that has already passed yields a timeout
// with no invocation. Each attempt runs under a context that expires at
// the deadline; an attempt cut short that way also ends in a
// *PollTimeoutError. Context cancellation is checked before every attempt
// and during every wait.
func Poll[T any](ctx context.Context, cfg PollConfig, op func(context.Context) (T, error), notReady func(T) bool) (T, error) {
	var zero T

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return zero, err
	}

	clock := cfg.Clock
	now := clock.Now()
	state := PollState{
		Start:    now,
		Deadline: cfg.Deadline,
		Interval: cfg.InitialInterval,
	}
	if state.Deadline.IsZero() {
		state.Deadline = now.Add(cfg.Timeout)
	}

	done := func(result T, err error) (T, error) {
		state.Elapsed = clock.Now().Sub(state.Start)
		if cfg.OnDone != nil {
			cfg.OnDone(state, err)
		}
		return result, err
	}
	timedOut := func() (T, error) {
		state.Elapsed = clock.Now().Sub(state.Start)
		return done(zero, &PollTimeoutError{
			Message:  cfg.TimeoutMessage,
			Attempts: state.Attempts,
			Elapsed:  state.Elapsed,
			Deadline: state.Deadline,
		})
	}

	if !now.Before(state.Deadline) {
		return timedOut()
	}

	for {
		if err := ctx.Err(); err != nil {
			return done(zero, err)
		}
		remaining := state.Deadline.Sub(clock.Now())
		if remaining <= 0 {
			return timedOut()
		}

		state.Attempts++
		result, err := attempt(ctx, remaining, op)
		if err != nil {
			if errors.Is(err, errAttemptDeadline) {
				return timedOut()
			}
			return done(zero, err)
		}
		if !notReady(result) {
			return done(result, nil)
		}
		if cfg.OnNotReady != nil {
			cfg.OnNotReady(state)
		}

		wait := state.Interval
		if wait > cfg.MaxInterval {
			wait = cfg.MaxInterval
		}
		now = clock.Now()
		if now.Add(wait).After(state.Deadline) {
			return timedOut()
		}
		state.NextWake = now.Add(wait)
		state.Elapsed = now.Sub(state.Start)

		if cfg.OnBackoff != nil {
			cfg.OnBackoff(state, wait)
		}
		if err := clock.Sleep(ctx, wait); err != nil {
			return done(zero, err)
		}
		state.Interval = nextInterval(state.Interval, cfg.Multiplier, cfg.MaxInterval)
	}
}

// errAttemptDeadline marks an attempt cut short by the poll deadline.
var errAttemptDeadline = errors.New("attempt reached poll deadline")

// attempt runs op with a context that expires when the poll deadline does.
// A failure caused by that expiry, while ctx itself is still live, is
// reported as errAttemptDeadline.
func attempt[T any](ctx context.Context, remaining time.Duration, op func(context.Context) (T, error)) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, remaining)
	defer cancel()

	result, err := op(attemptCtx)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return result, errAttemptDeadline
	}
	return result, err
}

// nextInterval multiplies interval, saturating at max so it cannot overflow.
func nextInterval(interval time.Duration, multiplier float64, max time.Duration) time.Duration {
	next := time.Duration(float64(interval) * multiplier)
	if next > max || next <= 0 {
		return max
	}
	return next
}
