package llm

import (
	"context"
	"fmt"
)

// embedRequest/embedResponse and transcribeRequest/transcribeResponse mirror
// CompletionRequest/CompletionResponse's shape: plain structs marshaled
// through the same jsonCodec, invoked against sibling RPC methods on the
// same connection.

type embedRequest struct {
	Text  string
	Model string
}

type embedResponse struct {
	Vector []float32
}

type transcribeRequest struct {
	Media       []byte
	ContentType string
}

type transcribeResponse struct {
	Text string
}

// Model returns the default embedding/completion model this client was
// configured with, satisfying memory.Embedder.
func (c *Client) Model() string { return c.model }

// Embed issues an embedding RPC over the same connection Complete uses,
// making Client satisfy memory.Embedder without a second dial.
func (c *Client) Embed(ctx context.Context, text, model string) ([]float32, error) {
	if model == "" {
		model = c.model
	}
	req := embedRequest{Text: text, Model: model}
	var resp embedResponse
	if err := c.conn.Invoke(ctx, "/mediacore.llm.EmbeddingService/Embed", &req, &resp); err != nil {
		return nil, fmt.Errorf("llm: embed via %q: %w", model, err)
	}
	return resp.Vector, nil
}

// Name identifies this transcription engine for degradation logging,
// satisfying ingest.Transcriber.
func (c *Client) Name() string { return "grpc:" + c.model }

// Transcribe issues a transcription RPC over the same connection, making
// Client satisfy ingest.Transcriber alongside llm.Provider and
// memory.Embedder — one gRPC facade backing all three provider seams.
func (c *Client) Transcribe(ctx context.Context, media []byte, contentType string) (string, error) {
	req := transcribeRequest{Media: media, ContentType: contentType}
	var resp transcribeResponse
	if err := c.conn.Invoke(ctx, "/mediacore.llm.TranscriptionService/Transcribe", &req, &resp); err != nil {
		return "", fmt.Errorf("llm: transcribe: %w", err)
	}
	return resp.Text, nil
}
