// Package resilience implements the circuit breaker, adaptive batcher, and
// intelligent retry primitives (C1) that the rest of the module builds on.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sony/gobreaker"

	"github.com/fathomhq/mediacore/pkg/config"
)

// ErrBreakerOpen is returned when a call is rejected because the breaker for
// its key is OPEN. Call sites map this to config.ErrBreakerOpen.
var ErrBreakerOpen = errors.New("resilience: circuit breaker open")

// BreakerKey identifies one breaker instance. Breakers are process-local
// (spec §5): duplicate opens across processes are acceptable, independent
// protection.
type BreakerKey struct {
	Component string
	Tenant    string
}

func (k BreakerKey) String() string {
	return fmt.Sprintf("%s/%s", k.Component, k.Tenant)
}

// Registry is the global, process-local breaker registry keyed by
// (component, tenant), as required by spec §4.1.
type Registry struct {
	cfg  config.BreakerConfig
	mu   sync.Mutex
	byKey map[string]*gobreaker.CircuitBreaker
}

// NewRegistry creates a breaker registry using the given tuning.
func NewRegistry(cfg config.BreakerConfig) *Registry {
	return &Registry{cfg: cfg, byKey: make(map[string]*gobreaker.CircuitBreaker)}
}

func (r *Registry) breakerFor(key BreakerKey) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key.String()
	if b, ok := r.byKey[k]; ok {
		return b
	}
	settings := gobreaker.Settings{
		Name:        k,
		MaxRequests: uint32(r.cfg.SuccessThreshold),
		Interval:    0, // counts never reset on a timer; only on state transition
		Timeout:     r.cfg.Timeout,
		ReadyToTrip: r.readyToTrip(),
	}
	b := gobreaker.NewCircuitBreaker(settings)
	r.byKey[k] = b
	return b
}

// readyToTrip implements the CLOSED→OPEN transition from spec §4.1:
// consecutive failures >= failure_threshold OR, once at least min_calls
// requests have been counted, failure rate >= failure_rate_threshold. The
// counts are cumulative since the breaker last changed state (Interval is 0);
// they are not a rolling window.
func (r *Registry) readyToTrip() func(counts gobreaker.Counts) bool {
	threshold := uint32(r.cfg.FailureThreshold)
	minCalls := uint32(r.cfg.MinCalls)
	rate := r.cfg.FailureRateThreshold
	return func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= threshold {
			return true
		}
		if counts.Requests >= minCalls {
			failureRate := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRate >= rate
		}
		return false
	}
}

// State reports the current breaker state for a key without making a call.
func (r *Registry) State(key BreakerKey) gobreaker.State {
	return r.breakerFor(key).State()
}

// Execute runs fn protected by the breaker for key. If the breaker is OPEN,
// fn is never invoked and ErrBreakerOpen is returned in O(1), satisfying
// spec invariant 7.
func (r *Registry) Execute(ctx context.Context, key BreakerKey, fn func(ctx context.Context) (any, error)) (any, error) {
	b := r.breakerFor(key)
	result, err := b.Execute(func() (any, error) {
		return fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrBreakerOpen
	}
	return result, err
}

// stateLabel renders gobreaker's numeric state as the spec's named states,
// for logging/metrics — never fed to gobreaker itself.
func stateLabel(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "CLOSED"
	case gobreaker.StateOpen:
		return "OPEN"
	case gobreaker.StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// StateLabel is the exported form of stateLabel, used by health/debug
// endpoints that want to surface breaker state by key.
func (r *Registry) StateLabel(key BreakerKey) string {
	return stateLabel(r.State(key))
}
