// Package upstream runs calls to external providers (speech synthesis,
// content generation) under a per-attempt timeout with bounded exponential
// backoff. A timed-out attempt is reported as apperr.KindUpstreamTimeout and
// retried; errors wrapped with Permanent are returned immediately.
package upstream

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"esltrainer/internal/apperr"
)

// Policy bounds a single logical call
type Policy struct {
	Timeout         time.Duration
	MaxTries        uint
	InitialInterval time.Duration
}

// DefaultPolicy is used when a provider is built without explicit limits
var DefaultPolicy = Policy{
	Timeout:         15 * time.Second,
	MaxTries:        3,
	InitialInterval: 500 * time.Millisecond,
}

// Permanent marks err as not retryable
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Call invokes op until it succeeds, fails permanently, or the policy is exhausted
func Call[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	if p.Timeout <= 0 {
		p.Timeout = DefaultPolicy.Timeout
	}
	if p.MaxTries == 0 {
		p.MaxTries = DefaultPolicy.MaxTries
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}

	attempt := func() (T, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		defer cancel()

		v, err := op(attemptCtx)
		if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return v, apperr.New(apperr.KindUpstreamTimeout, "upstream call timed out", err)
		}
		return v, err
	}

	return backoff.Retry(ctx, attempt, backoff.WithBackOff(b), backoff.WithMaxTries(p.MaxTries))
}
