// Package stepresult defines the StepResult contract (spec §6, §9): the
// typed outcome every pipeline/component operation returns in place of
// exceptions. Errors only cross component boundaries for programmer errors.
package stepresult

import "github.com/fathomhq/mediacore/pkg/config"

// Status is the three-way outcome of a step.
type Status string

const (
	OK   Status = "ok"
	Fail Status = "fail"
	Skip Status = "skip"
)

// Metrics is a small bag of numeric observations a stage wants attached to
// its result (duration, item counts, ...). Kept as a plain map rather than a
// typed struct since the fields vary per stage/component.
type Metrics map[string]float64

// Result is the StepResult contract. Data holds the stage's success payload;
// Error/ErrorKind are populated only when Status == Fail.
type Result struct {
	Status    Status
	Data      any
	Error     error
	ErrorKind config.ErrorKind
	Metrics   Metrics
}

// Ok builds a successful result.
func Ok(data any) Result {
	return Result{Status: OK, Data: data}
}

// OkWithMetrics builds a successful result carrying metrics.
func OkWithMetrics(data any, metrics Metrics) Result {
	return Result{Status: OK, Data: data, Metrics: metrics}
}

// Failf builds a failed result from an error kind and underlying error.
func Failf(kind config.ErrorKind, err error) Result {
	return Result{Status: Fail, Error: err, ErrorKind: kind}
}

// SkipWith builds a skip result (e.g. empty transcript → 0 chunks).
func SkipWith(reason string) Result {
	return Result{Status: Skip, Data: reason}
}

// IsOK, IsFail, IsSkip are small readability helpers for call sites branching
// on the result.
func (r Result) IsOK() bool   { return r.Status == OK }
func (r Result) IsFail() bool { return r.Status == Fail }
func (r Result) IsSkip() bool { return r.Status == Skip }
