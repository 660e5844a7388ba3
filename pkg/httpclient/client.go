// Package httpclient implements the resilient HTTP facade (C2): a single
// typed client with SSRF guarding, breaker/retry integration, and structured
// per-call logging, grounded on the teacher's mcp.Client constructor +
// method-set + logging style (pkg/mcp/client.go).
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/resilience"
	"github.com/fathomhq/mediacore/pkg/tenant"
)

// Response is the facade's normalized result: body already drained and
// capped at MaxBodyBytes, so callers never hold a live connection open.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
	FromCache  bool
}

// Client is the single entry point for all outbound HTTP in this module.
// Every call is tenant-scoped (read from ctx), breaker-protected, and
// retried per the configured strategy.
type Client struct {
	http     *http.Client
	cfg      config.HTTPConfig
	breakers *resilience.Registry
	logger   *slog.Logger
}

// New builds a Client. breakers may be shared across many Clients (it is
// itself concurrency-safe), matching the "process-local registry" shape
// from C1.
func New(cfg config.HTTPConfig, breakers *resilience.Registry) *Client {
	return &Client{
		http: &http.Client{
			Timeout: cfg.TimeoutPerAttempt,
		},
		cfg:      cfg,
		breakers: breakers,
		logger:   slog.Default(),
	}
}

// Get performs a GET request against url, which must pass the SSRF guard.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, nil, nil)
}

// Post performs a POST request with the given body and headers.
func (c *Client) Post(ctx context.Context, url string, body []byte, headers http.Header) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, body, headers)
}

// Stream performs a GET and returns the live response body for the caller to
// read incrementally (media downloads), bypassing the body-draining Get path.
// The caller owns closing the returned io.ReadCloser.
func (c *Client) Stream(ctx context.Context, url string) (*http.Response, error) {
	scope, err := tenant.From(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateURL(url, c.cfg.AllowedHosts); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.trace(scope, "stream", url, 1, statusOf(resp), err, time.Since(start))
	return resp, err
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, headers http.Header) (*Response, error) {
	scope, err := tenant.From(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateURL(url, c.cfg.AllowedHosts); err != nil {
		return nil, err
	}

	breakerKey := resilience.BreakerKey{Component: "http:" + hostOf(url), Tenant: scope.Tenant}
	retrier := resilience.NewRetrier(c.cfg.Retry)

	var result *Response
	var attempts int
	opErr := retrier.Do(ctx, func(ctx context.Context, attempt int) (int, error) {
		attempts = attempt
		// Resolve DNS again on every attempt so a rebind between retries
		// cannot slip past the SSRF guard.
		if err := validateURL(url, c.cfg.AllowedHosts); err != nil {
			return 0, err
		}
		start := time.Now()

		raw, err := c.breakers.Execute(ctx, breakerKey, func(ctx context.Context) (any, error) {
			return c.attempt(ctx, method, url, body, headers)
		})

		var status int
		var resp *Response
		if err == nil {
			resp = raw.(*Response)
			status = resp.StatusCode
			result = resp
		}
		c.trace(scope, method, url, attempt, status, err, time.Since(start))
		return status, err
	})
	if opErr != nil {
		return nil, opErr
	}
	result.Attempts = attempts
	return result, nil
}

func (c *Client) attempt(ctx context.Context, method, url string, body []byte, headers http.Header) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	limit := c.cfg.MaxBodyBytes
	if limit <= 0 {
		limit = 32 << 20
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("httpclient: response exceeds max_body_bytes (%d)", limit)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// trace emits the per-call observability line. Labels/log fields never
// include raw URLs per spec §8 hygiene — only method, host, status, attempt,
// tenant, workspace.
func (c *Client) trace(scope tenant.Scope, method, url string, attempt, status int, err error, elapsed time.Duration) {
	attrs := []any{
		"method", method,
		"host", hostOf(url),
		"status", status,
		"attempt", attempt,
		"tenant", scope.Tenant,
		"workspace", scope.Workspace,
		"elapsed_ms", elapsed.Milliseconds(),
	}
	if err != nil {
		c.logger.Warn("http call failed", append(attrs, "error", err)...)
		return
	}
	c.logger.Debug("http call completed", attrs...)
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
