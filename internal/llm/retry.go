package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider retries failed requests with jittered exponential backoff.
type RetryProvider struct {
	inner Provider
	cfg   RetryConfig

	// sleep waits d or until ctx is done. Tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps p with cfg.
func WithRetry(p Provider, cfg RetryConfig) *RetryProvider {
	return &RetryProvider{inner: p, cfg: cfg, sleep: sleepCtx}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.cfg.MaxAttempts, 1)
	if req.Purpose == PurposeHint && r.cfg.HintAttempts > 0 {
		attempts = min(attempts, r.cfg.HintAttempts)
	}

	var (
		err           error
		invalidReplay bool
	)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if serr := r.sleep(ctx, r.backoff(attempt-1, err)); serr != nil {
				return nil, serr
			}
		}

		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}

		kind, ok := KindOf(err)
		if !ok {
			continue
		}
		switch kind {
		case KindRejected, KindTruncated:
			return nil, err
		case KindInvalidResponse:
			// A malformed reply is usually a one-off; a second one is not.
			if invalidReplay {
				return nil, err
			}
			invalidReplay = true
		}
	}
	return nil, err
}

func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

// backoff is the wait after the given failed attempt, honoring a
// provider's Retry-After.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var e *Error
	if errors.As(err, &e) && e.RetryAfter > 0 {
		return min(e.RetryAfter, r.cfg.MaxWait)
	}
	wait := float64(r.cfg.InitialWait) * math.Pow(r.cfg.Multiplier, float64(attempt))
	wait = min(wait, float64(r.cfg.MaxWait))
	wait *= 0.8 + 0.4*rand.Float64()
	return time.Duration(wait)
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
