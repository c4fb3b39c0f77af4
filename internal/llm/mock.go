package llm

import (
	"context"
	"sync"
)

// MockResult is one scripted Complete outcome.
type MockResult struct {
	Content string
	Err     error
}

// Mock is a deterministic Client for tests and the "mock" provider. Scripted
// results in Queue are consumed first; then Err, then Response; with nothing
// set, Complete returns a small fixed markdown document.
type Mock struct {
	Response string
	Err      error
	Queue    []MockResult

	mu    sync.Mutex
	calls []Prompt
}

// NewMock returns an unscripted deterministic client.
func NewMock() *Mock { return &Mock{} }

// ModelName identifies the backend in logs and status output.
func (m *Mock) ModelName() string { return "mock" }

// Calls returns a copy of the prompts seen so far.
func (m *Mock) Calls() []Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Prompt, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times Complete ran.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *Mock) Complete(_ context.Context, prompt Prompt) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	var scripted *MockResult
	if len(m.Queue) > 0 {
		next := m.Queue[0]
		m.Queue = m.Queue[1:]
		scripted = &next
	}
	m.mu.Unlock()

	if scripted != nil {
		return scripted.Content, scripted.Err
	}
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return "# Generated Section\n\nDeterministic mock output.\n", nil
}
