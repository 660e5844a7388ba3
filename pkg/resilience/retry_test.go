package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fathomhq/mediacore/pkg/config"
)

func TestClassifyErrorRateLimited(t *testing.T) {
	class, kind := ClassifyError(errors.New("too many requests"), 429)
	if class != RetrySameAttempt || kind != config.ErrRateLimited {
		t.Fatalf("got class=%v kind=%v", class, kind)
	}
}

func TestClassifyErrorAuthIsNotRetried(t *testing.T) {
	class, kind := ClassifyError(errors.New("forbidden"), 403)
	if class != NoRetry || kind != config.ErrAuthExpired {
		t.Fatalf("got class=%v kind=%v", class, kind)
	}
}

func TestClassifyErrorServerErrorRetriesFreshConn(t *testing.T) {
	class, kind := ClassifyError(errors.New("server error"), 503)
	if class != RetryFreshConn || kind != config.ErrBackendUnavailable {
		t.Fatalf("got class=%v kind=%v", class, kind)
	}
}

func TestRetrierStopsOnNonRetriable(t *testing.T) {
	r := NewRetrier(config.RetryConfig{
		Enabled:     true,
		MaxAttempts: 5,
		Strategy:    config.RetryFixed,
		BaseDelay:   time.Millisecond,
	})

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 404, errors.New("not found")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one attempt for a non-retriable status, got %d", calls)
	}
}

func TestRetrierExhaustsMaxAttempts(t *testing.T) {
	r := NewRetrier(config.RetryConfig{
		Enabled:     true,
		MaxAttempts: 3,
		Strategy:    config.RetryFixed,
		BaseDelay:   time.Millisecond,
	})

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 503, errors.New("unavailable")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetrierSucceedsBeforeExhausting(t *testing.T) {
	r := NewRetrier(config.RetryConfig{
		Enabled:     true,
		MaxAttempts: 5,
		Strategy:    config.RetryExponential,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	})

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context, attempt int) (int, error) {
		calls++
		if attempt < 3 {
			return 503, errors.New("unavailable")
		}
		return 200, nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts before success, got %d", calls)
	}
}
