// Package tenant implements the scoped tenant/workspace binding (C3) that
// every storage, metric, and log call in this module reads from.
package tenant

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoScope is returned by From when a storage/metric path runs without a
// bound tenant — spec §4.3 requires this to fail closed rather than fall
// back to a zero-value tenant.
var ErrNoScope = errors.New("tenant: no scope bound to context")

// Scope is the (tenant, workspace) pair that every persistent key and metric
// label is composed from.
type Scope struct {
	Tenant    string
	Workspace string
}

// String renders the scope the way namespace keys are built: "tenant:workspace".
func (s Scope) String() string {
	return s.Tenant + ":" + s.Workspace
}

// Namespace composes a fully-qualified namespace for a logical collection
// (spec §3: `"{tenant}:{workspace}:{logical_collection}"`).
func (s Scope) Namespace(collection string) string {
	return fmt.Sprintf("%s:%s:%s", s.Tenant, s.Workspace, collection)
}

// Valid reports whether both fields are populated.
func (s Scope) Valid() bool {
	return s.Tenant != "" && s.Workspace != ""
}

type scopeKey struct{}

// With pushes a scope onto the context. Nested calls stack: the innermost
// With wins until its context frame is discarded, matching the "entering a
// scope pushes it, leaving pops" semantics from spec §3 — in Go this falls
// out naturally from context.Context's tree structure, no explicit stack
// bookkeeping needed.
func With(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// From reads the currently bound scope. Absence is a fatal, typed error for
// any storage/metric path (fail-closed per spec §4.3).
func From(ctx context.Context) (Scope, error) {
	v, ok := ctx.Value(scopeKey{}).(Scope)
	if !ok || !v.Valid() {
		return Scope{}, ErrNoScope
	}
	return v, nil
}

// MustFrom is a convenience for call sites that have already validated a
// scope is present (e.g. immediately after With); it panics otherwise, which
// is appropriate only for programmer errors, never for request handling.
func MustFrom(ctx context.Context) Scope {
	s, err := From(ctx)
	if err != nil {
		panic(err)
	}
	return s
}
