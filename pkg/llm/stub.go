package llm

import "context"

// StubProvider is an in-process Provider used in tests, where no real
// provider call should occur.
type StubProvider struct {
	Response CompletionResponse
	Err      error
	Calls    []CompletionRequest
}

func (s *StubProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	s.Calls = append(s.Calls, req)
	if s.Err != nil {
		return CompletionResponse{}, s.Err
	}
	return s.Response, nil
}
