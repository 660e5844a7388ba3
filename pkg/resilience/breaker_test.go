package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fathomhq/mediacore/pkg/config"
)

func testBreakerConfig() config.BreakerConfig {
	return config.BreakerConfig{
		FailureThreshold:     3,
		SuccessThreshold:     2,
		Timeout:              10 * time.Millisecond,
		FailureRateThreshold: 0.5,
		MinCalls:             4,
	}
}

func TestRegistryTripsOnConsecutiveFailures(t *testing.T) {
	reg := NewRegistry(testBreakerConfig())
	key := BreakerKey{Component: "fetch", Tenant: "acme"}
	failing := func(ctx context.Context) (any, error) { return nil, errors.New("boom") }

	for i := 0; i < 3; i++ {
		if _, err := reg.Execute(context.Background(), key, failing); err == nil {
			t.Fatalf("attempt %d: expected error", i)
		}
	}

	if _, err := reg.Execute(context.Background(), key, failing); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("expected ErrBreakerOpen once tripped, got %v", err)
	}
}

func TestRegistryIsolatesKeys(t *testing.T) {
	reg := NewRegistry(testBreakerConfig())
	tripped := BreakerKey{Component: "fetch", Tenant: "acme"}
	other := BreakerKey{Component: "fetch", Tenant: "globex"}
	failing := func(ctx context.Context) (any, error) { return nil, errors.New("boom") }
	ok := func(ctx context.Context) (any, error) { return "fine", nil }

	for i := 0; i < 3; i++ {
		reg.Execute(context.Background(), tripped, failing)
	}
	if _, err := reg.Execute(context.Background(), tripped, failing); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("expected tripped key to be open")
	}
	if _, err := reg.Execute(context.Background(), other, ok); err != nil {
		t.Fatalf("expected unrelated tenant key to stay closed, got %v", err)
	}
}

func TestRegistryRecoversAfterTimeout(t *testing.T) {
	cfg := testBreakerConfig()
	reg := NewRegistry(cfg)
	key := BreakerKey{Component: "fetch", Tenant: "acme"}
	failing := func(ctx context.Context) (any, error) { return nil, errors.New("boom") }
	ok := func(ctx context.Context) (any, error) { return "fine", nil }

	for i := 0; i < 3; i++ {
		reg.Execute(context.Background(), key, failing)
	}
	time.Sleep(cfg.Timeout * 2)

	if _, err := reg.Execute(context.Background(), key, ok); err != nil {
		t.Fatalf("expected half-open probe to succeed, got %v", err)
	}
}
