// Package llm implements the gRPC-based LLM provider call facade (C6),
// modeled on the teacher's GRPCLLMClient wrapper style (constructor + method
// set + structured logging + env-driven defaults), generalized so the
// router can swap providers without touching policy code.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"

	"github.com/fathomhq/mediacore/pkg/tenant"
)

// CompletionRequest is one call to a provider arm.
type CompletionRequest struct {
	Model       string
	Prompt      string
	MaxTokens   int32
	Temperature float32
}

// CompletionResponse is what a provider returns, carrying the fields the
// router needs for reward computation (cost, latency are measured by the
// caller around the call; TokensIn/TokensOut come from the provider).
type CompletionResponse struct {
	Content   string
	TokensIn  int32
	TokensOut int32
	CostUSD   float64
}

// Provider is the narrow seam the router depends on — any backend (gRPC,
// HTTP, in-process stub) that can complete a request.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// Client is the gRPC-backed Provider. Request/response marshaling uses a
// JSON codec registered on the grpc.ClientConn rather than generated
// protobuf stubs: no .proto compiler is available in this build
// environment, and grpc-go's pluggable codec mechanism (encoding.Codec) is
// itself a supported, idiomatic way to run gRPC without protoc-generated
// messages.
type Client struct {
	conn   *grpc.ClientConn
	model  string
	method string
	logger *slog.Logger
}

const jsonCodecName = "mediacore-json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// NewClient dials addr and configures the client from environment defaults,
// mirroring the teacher's GEMINI_MODEL/GEMINI_TEMPERATURE/GEMINI_MAX_TOKENS
// env-var convention generalized to a provider-agnostic name.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(jsonCodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: connect to provider service: %w", err)
	}

	model := os.Getenv("MEDIACORE_LLM_MODEL")
	if model == "" {
		model = "default-model"
	}

	return &Client{
		conn:   conn,
		model:  model,
		method: "/mediacore.llm.LLMService/Complete",
		logger: slog.Default(),
	}, nil
}

// Close tears down the gRPC connection.
func (c *Client) Close() error { return c.conn.Close() }

// Complete issues a single completion RPC. Tenant/workspace are attached as
// outgoing call metadata so the provider-side service can enforce its own
// per-tenant quotas independent of this module's budget preflight.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.MaxTokens == 0 {
		if v, err := strconv.Atoi(os.Getenv("MEDIACORE_LLM_MAX_TOKENS")); err == nil {
			req.MaxTokens = int32(v)
		}
	}

	scope, _ := tenant.From(ctx)
	ctx = metadata.AppendToOutgoingContext(ctx, "tenant", scope.Tenant, "workspace", scope.Workspace)
	c.logger.Debug("llm completion requested", "model", req.Model, "tenant", scope.Tenant, "workspace", scope.Workspace)

	var resp CompletionResponse
	if err := c.conn.Invoke(ctx, c.method, &req, &resp); err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: complete via %q: %w", req.Model, err)
	}
	return resp, nil
}
