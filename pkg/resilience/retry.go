package resilience

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fathomhq/mediacore/pkg/config"
)

// Classification says whether a failure is worth retrying at all, mirroring
// the NoRetry/RetrySameSession/RetryNewSession three-way split the teacher's
// MCP recovery path used, generalized here from session recovery to generic
// HTTP/DB/network calls.
type Classification string

const (
	NoRetry          Classification = "no_retry"
	RetrySameAttempt Classification = "retry_same_attempt"
	RetryFreshConn   Classification = "retry_fresh_conn"
)

// ClassifyError maps an error and optional HTTP status to a retry
// classification and the StepResult error kind callers should attach on
// final failure.
func ClassifyError(err error, statusCode int) (Classification, config.ErrorKind) {
	if err == nil && statusCode == 0 {
		return NoRetry, config.ErrInternal
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return RetryFreshConn, config.ErrTimeout
		}
		return RetryFreshConn, config.ErrTransientNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return RetryFreshConn, config.ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return NoRetry, config.ErrCancelled
	}
	if errors.Is(err, ErrBreakerOpen) {
		return NoRetry, config.ErrBreakerOpen
	}

	switch {
	case statusCode == 429:
		return RetrySameAttempt, config.ErrRateLimited
	case statusCode == 401 || statusCode == 403:
		return NoRetry, config.ErrAuthExpired
	case statusCode == 404:
		return NoRetry, config.ErrNotFound
	case statusCode == 408:
		return RetryFreshConn, config.ErrTimeout
	case statusCode >= 500 && statusCode < 600:
		return RetryFreshConn, config.ErrBackendUnavailable
	case statusCode >= 400 && statusCode < 500:
		return NoRetry, config.ErrPolicyDenied
	}

	if err != nil {
		return RetryFreshConn, config.ErrTransientNetwork
	}
	return NoRetry, config.ErrInternal
}

// Retrier executes an operation under the strategy selected by cfg.Strategy,
// stopping at MaxAttempts or the first non-retriable classification.
type Retrier struct {
	cfg config.RetryConfig
}

// NewRetrier builds a retrier from the given tuning.
func NewRetrier(cfg config.RetryConfig) *Retrier {
	return &Retrier{cfg: cfg}
}

// Op is a single attempt. It returns an HTTP-ish status code (0 if not
// applicable) alongside its error so ClassifyError can use either signal.
type Op func(ctx context.Context, attempt int) (statusCode int, err error)

// Do runs op under the configured strategy. Non-retriable classifications
// and context cancellation end the loop immediately.
func (r *Retrier) Do(ctx context.Context, op Op) error {
	if !r.cfg.Enabled {
		_, err := op(ctx, 1)
		return err
	}

	maxAttempts := r.cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var bo backoff.BackOff
	if r.cfg.Strategy == config.RetryExponential {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = nonZero(r.cfg.BaseDelay, 250*time.Millisecond)
		eb.MaxInterval = nonZero(r.cfg.MaxDelay, 30*time.Second)
		eb.Multiplier = nonZeroF(r.cfg.Multiplier, 2.0)
		eb.MaxElapsedTime = 0 // bounded by maxAttempts, not elapsed time
		bo = eb
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, err := op(ctx, attempt)
		if err == nil && !isRetriableStatus(status) {
			return nil
		}
		lastErr = err

		class, _ := ClassifyError(err, status)
		if class == NoRetry || attempt == maxAttempts {
			return lastErr
		}

		delay := r.delayFor(attempt, bo)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

func isRetriableStatus(status int) bool {
	return status == 429 || status == 408 || (status >= 500 && status < 600)
}

func (r *Retrier) delayFor(attempt int, bo backoff.BackOff) time.Duration {
	base := nonZero(r.cfg.BaseDelay, 250*time.Millisecond)
	maxDelay := nonZero(r.cfg.MaxDelay, 30*time.Second)

	var d time.Duration
	switch r.cfg.Strategy {
	case config.RetryExponential:
		if bo != nil {
			next := bo.NextBackOff()
			if next == backoff.Stop {
				d = maxDelay
			} else {
				d = next
			}
		}
	case config.RetryLinear:
		d = base * time.Duration(attempt)
	case config.RetryAdaptive:
		mult := nonZeroF(r.cfg.Multiplier, 1.5)
		d = time.Duration(float64(base) * pow(mult, attempt-1))
	default: // RetryFixed
		d = base
	}

	if d > maxDelay {
		d = maxDelay
	}
	if r.cfg.Jitter {
		d = jitter(d)
	}
	return d
}

// jitter applies full jitter: a uniform random duration in [0, d).
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d)))
}

func nonZero(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func nonZeroF(f, fallback float64) float64 {
	if f <= 0 {
		return fallback
	}
	return f
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
