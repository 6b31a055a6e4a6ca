package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Arvoid00/seamless-ai/plugin/ai"
	"github.com/Arvoid00/seamless-ai/plugin/ai/chart"
	"github.com/Arvoid00/seamless-ai/plugin/ai/websearch"
)

func TestResearchSearchThenFinalAnswer(t *testing.T) {
	completion := &mockCompletion{
		script: []*ai.Completion{
			toolCallCompletion("webSearch", `{"query": "go generics"}`),
			textCompletion("FINAL ANSWER: generics shipped in Go 1.18."),
		},
	}
	search := &mockWebSearch{
		results: []websearch.Result{{Title: "Go 1.18", URL: "https://go.dev", Snippet: "generics"}},
		pages:   []websearch.Page{{URL: "https://go.dev", Markdown: "# Go 1.18"}},
	}
	research := NewMultiAgentResearch(completion, search)

	var events []Event
	err := Run(context.Background(), research, &Request{Input: "when did go get generics?"}, collectEvents(&events))
	require.NoError(t, err)
	require.Equal(t, 1, search.searchCalls)

	terminal := events[len(events)-1]
	require.Equal(t, EventTypeTerminal, terminal.Type)
	require.Equal(t, "generics shipped in Go 1.18.", terminal.Content)
	require.Nil(t, terminal.AuxiliaryData)

	// researcher, toolCall, researcher again.
	require.Equal(t, EventTypeProgress, events[0].Type)
	require.Equal(t, nodeResearcher, events[0].Stage)
	require.Equal(t, nodeToolCall, events[1].Stage)
}

func TestResearchHandoffToChartGenerator(t *testing.T) {
	completion := &mockCompletion{
		script: []*ai.Completion{
			// Researcher answers without the marker, handing off.
			textCompletion("Population data gathered, a chart would help."),
			// Chart generator requests the chart capability.
			toolCallCompletion("generateChart", `{"title": "Population", "data": [{"label": "NL", "value": 17.8}]}`),
			// Chart generator concludes.
			textCompletion("FINAL ANSWER: see the population chart."),
		},
	}
	research := NewMultiAgentResearch(completion, &mockWebSearch{})

	var events []Event
	err := Run(context.Background(), research, &Request{Input: "chart the population"}, collectEvents(&events))
	require.NoError(t, err)

	terminal := events[len(events)-1]
	require.Equal(t, EventTypeTerminal, terminal.Type)
	require.Equal(t, "see the population chart.", terminal.Content)

	require.NotNil(t, terminal.AuxiliaryData)
	spec, ok := terminal.AuxiliaryData["chart"].(*chart.Spec)
	require.True(t, ok)
	require.Equal(t, "Population", spec.Title)
	require.Len(t, spec.Data, 1)
}

func TestResearchChartLastWriteWins(t *testing.T) {
	completion := &mockCompletion{
		script: []*ai.Completion{
			textCompletion("handing off to the chart specialist"),
			toolCallCompletion("generateChart", `{"title": "First", "data": [{"label": "a", "value": 1}]}`),
			toolCallCompletion("generateChart", `{"title": "Second", "data": [{"label": "b", "value": 2}]}`),
			textCompletion("FINAL ANSWER: done."),
		},
	}
	research := NewMultiAgentResearch(completion, &mockWebSearch{})

	var events []Event
	err := Run(context.Background(), research, &Request{Input: "two charts"}, collectEvents(&events))
	require.NoError(t, err)

	terminal := events[len(events)-1]
	require.Equal(t, EventTypeTerminal, terminal.Type)
	spec := terminal.AuxiliaryData["chart"].(*chart.Spec)
	require.Equal(t, "Second", spec.Title)
}

func TestResearchRecursionCeiling(t *testing.T) {
	// Specialists keep handing off to each other and never conclude.
	completion := &mockCompletion{
		script: []*ai.Completion{textCompletion("still thinking")},
	}
	research := NewMultiAgentResearch(completion, &mockWebSearch{})
	research.maxSteps = 8

	var events []Event
	err := Run(context.Background(), research, &Request{Input: "loop"}, collectEvents(&events))
	require.NoError(t, err)

	terminal := events[len(events)-1]
	require.Equal(t, EventTypeError, terminal.Type)
	require.Equal(t, ErrorKindRecursionExceeded, terminal.Kind)
	// One progress event per visited node before the ceiling.
	require.Len(t, events, 9)
}
