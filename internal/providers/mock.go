package providers

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const MockClientName = "mock"

// MockTurn scripts one Chat call: either a reply or an error.
type MockTurn struct {
	Reply string
	Err   error
}

// MockClient is an LLMClient for testing. Calls consume Script in order;
// once the script runs out the last turn repeats.
type MockClient struct {
	Script  []MockTurn
	Latency time.Duration

	mu       sync.Mutex
	requests [][]Message
}

// NewMockClient creates a mock that always returns reply.
func NewMockClient(reply string) *MockClient {
	return &MockClient{Script: []MockTurn{{Reply: reply}}}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat consumes the next scripted turn.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c.mu.Lock()
	snapshot := make([]Message, len(req.Messages))
	copy(snapshot, req.Messages)
	c.requests = append(c.requests, snapshot)
	n := len(c.requests)
	c.mu.Unlock()

	if len(c.Script) == 0 {
		return nil, fmt.Errorf("mock client has no scripted turns")
	}
	turn := c.Script[min(n, len(c.Script))-1]

	if turn.Err != nil {
		return &ChatResult{
			Provider:     MockClientName,
			RequestID:    req.RequestID,
			ErrorType:    "mock_failure",
			ErrorMessage: turn.Err.Error(),
		}, turn.Err
	}

	return &ChatResult{
		Provider:         MockClientName,
		ModelUsed:        req.Model,
		RequestID:        req.RequestID,
		Success:          true,
		Content:          turn.Reply,
		PromptTokens:     promptTokenEstimate(req.Messages),
		CompletionTokens: len(turn.Reply) / 4,
	}, nil
}

// Requests returns snapshots of every conversation the mock has seen.
func (c *MockClient) Requests() [][]Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]Message, len(c.requests))
	copy(out, c.requests)
	return out
}

// RequestCount returns the number of Chat calls made.
func (c *MockClient) RequestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func promptTokenEstimate(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		total += len(m.Content) / 4 // Rough estimate
	}
	return total
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)
