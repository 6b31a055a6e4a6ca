package executor

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Arvoid00/seamless-ai/plugin/ai"
	"github.com/Arvoid00/seamless-ai/plugin/ai/websearch"
	"github.com/Arvoid00/seamless-ai/store"
)

// mockCompletion is a scripted completion backend. ChatWithTools pops one
// completion per call; running past the script repeats the last entry so
// pathological non-terminating runs can be simulated.
type mockCompletion struct {
	script        []*ai.Completion
	chatText      string
	chatErr       error
	streamTokens  []string
	streamErr     error
	chatCalls     int
	toolCalls     int
	streamCalls   int
	lastToolInput []ai.Message
}

func (m *mockCompletion) Chat(_ context.Context, _ []ai.Message, _ ...ai.ChatOption) (string, error) {
	m.chatCalls++
	return m.chatText, m.chatErr
}

func (m *mockCompletion) ChatStream(_ context.Context, _ []ai.Message, _ ...ai.ChatOption) (<-chan string, <-chan error) {
	m.streamCalls++
	tokens := make(chan string, len(m.streamTokens))
	errs := make(chan error, 1)
	for _, t := range m.streamTokens {
		tokens <- t
	}
	close(tokens)
	if m.streamErr != nil {
		errs <- m.streamErr
	}
	close(errs)
	return tokens, errs
}

func (m *mockCompletion) ChatWithTools(_ context.Context, messages []ai.Message, _ []ai.ToolSchema, _ ...ai.ChatOption) (*ai.Completion, error) {
	m.lastToolInput = messages
	idx := m.toolCalls
	m.toolCalls++
	if len(m.script) == 0 {
		return nil, errors.New("mock has no scripted completions")
	}
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	return m.script[idx], nil
}

// mockEmbedding returns a fixed vector.
type mockEmbedding struct {
	vector []float32
	calls  int
	err    error
}

func (m *mockEmbedding) Embedding(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vector, nil
}

// mockSearcher returns fixed passages.
type mockSearcher struct {
	matches  []*store.PassageWithScore
	calls    int
	lastOpts *store.VectorSearchOptions
}

func (m *mockSearcher) VectorSearchPassages(_ context.Context, opts *store.VectorSearchOptions) ([]*store.PassageWithScore, error) {
	m.calls++
	m.lastOpts = opts
	return m.matches, nil
}

// mockWebSearch serves fixed search hits and pages.
type mockWebSearch struct {
	results     []websearch.Result
	pages       []websearch.Page
	searchCalls int
}

func (m *mockWebSearch) Search(_ context.Context, _ string, _ int) ([]websearch.Result, error) {
	m.searchCalls++
	return m.results, nil
}

func (m *mockWebSearch) FetchPages(_ context.Context, _ []string) ([]websearch.Page, error) {
	return m.pages, nil
}

// collectEvents is an Emit that records everything.
func collectEvents(events *[]Event) Emit {
	return func(e Event) error {
		*events = append(*events, e)
		return nil
	}
}
