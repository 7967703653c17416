package oracle

import (
	"context"
	"sync"
)

// StaticClient replays canned JSON replies in order. Test double for every
// component that deliberates through the oracle.
type StaticClient struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Calls     int
}

func (s *StaticClient) Generate(_ context.Context, _ PromptSpec, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if s.Err != nil {
		return s.Err
	}
	if len(s.Responses) == 0 {
		return ErrNoResponse
	}
	resp := s.Responses[0]
	s.Responses = s.Responses[1:]
	return DecodeJSON(resp, out)
}

// GenerateFunc adapts a function to the Client interface.
type GenerateFunc func(ctx context.Context, spec PromptSpec, out any) error

func (f GenerateFunc) Generate(ctx context.Context, spec PromptSpec, out any) error {
	return f(ctx, spec, out)
}
