package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one canned reply of MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider replays canned responses in order and records every request.
// Once the queue is drained it asks Respond, if set; otherwise it reports the
// provider as unavailable. Safe for concurrent use.
type MockProvider struct {
	// Respond answers requests once the queue is empty.
	Respond func(Request) MockResponse

	mu    sync.Mutex
	queue []MockResponse
	Calls []Request
}

// NewMockProvider creates a MockProvider serving responses in order.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{queue: responses}
}

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	next, ok := m.next(req)
	if !ok {
		return nil, &ErrProviderUnavailable{}
	}
	if next.Err != nil {
		return nil, next.Err
	}
	return &Response{Content: next.Content, Usage: next.Usage, Model: "mock", StopReason: "end"}, nil
}

func (m *MockProvider) next(req Request) (MockResponse, bool) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return resp, true
	}
	respond := m.Respond
	m.mu.Unlock()

	if respond == nil {
		return MockResponse{}, false
	}
	return respond(req), true
}

func (m *MockProvider) ModelID() string { return "mock" }

// AddResponse queues one more canned response.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resp)
}

// CallCount returns the number of Generate calls so far.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
