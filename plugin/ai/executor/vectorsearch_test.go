package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Arvoid00/seamless-ai/store"
)

func TestSanitizeQuery(t *testing.T) {
	require.Equal(t, "what is SLA 99", sanitizeQuery("what is SLA (99%)?!"))
	require.Equal(t, "a b", sanitizeQuery("  a\n\tb  "))
	require.Equal(t, "", sanitizeQuery("!@#$%"))
}

func TestVectorSearchAnswersFromPassages(t *testing.T) {
	completion := &mockCompletion{chatText: "The SLA is 99.9%."}
	searcher := &mockSearcher{
		matches: []*store.PassageWithScore{
			{Passage: &store.Passage{Content: "Our SLA is 99.9%.", Source: "handbook.pdf"}, Score: 0.91},
			{Passage: &store.Passage{Content: "Support hours are 9-5.", Source: "handbook.pdf"}, Score: 0.72},
		},
	}
	vs := NewVectorSearch(completion, &mockEmbedding{vector: []float32{0.1, 0.2}}, searcher)

	var events []Event
	err := Run(context.Background(), vs, &Request{Input: "what is the SLA?", TagFilter: []string{"ops"}}, collectEvents(&events))
	require.NoError(t, err)
	require.Equal(t, 1, completion.chatCalls)
	require.Equal(t, []string{"ops"}, searcher.lastOpts.TagFilter)

	terminal := events[len(events)-1]
	require.Equal(t, EventTypeTerminal, terminal.Type)
	require.Equal(t, "The SLA is 99.9%.", terminal.Content)

	citations, ok := terminal.AuxiliaryData["passages"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, citations, 2)
	require.Equal(t, "handbook.pdf", citations[0]["source"])
}

func TestVectorSearchEmptyResultShortCircuits(t *testing.T) {
	completion := &mockCompletion{chatText: "should never be called"}
	vs := NewVectorSearch(completion, &mockEmbedding{vector: []float32{0.1}}, &mockSearcher{})

	var events []Event
	err := Run(context.Background(), vs, &Request{Input: "anything at all"}, collectEvents(&events))
	require.NoError(t, err)

	// No completion call is issued when retrieval finds nothing.
	require.Equal(t, 0, completion.chatCalls)

	terminal := events[len(events)-1]
	require.Equal(t, EventTypeTerminal, terminal.Type)
	require.Equal(t, NoResultsAnswer, terminal.Content)
	require.Nil(t, terminal.AuxiliaryData)
}

func TestVectorSearchEmptyQueryFails(t *testing.T) {
	vs := NewVectorSearch(&mockCompletion{}, &mockEmbedding{}, &mockSearcher{})

	var events []Event
	err := Run(context.Background(), vs, &Request{Input: "?!"}, collectEvents(&events))
	require.NoError(t, err)

	terminal := events[len(events)-1]
	require.Equal(t, EventTypeError, terminal.Type)
	require.Equal(t, ErrorKindToolExecution, terminal.Kind)
}
