package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Arvoid00/seamless-ai/plugin/ai"
)

func toolCallCompletion(name, arguments string) *ai.Completion {
	return &ai.Completion{ToolCall: &ai.ToolCall{Name: name, Arguments: arguments}}
}

func textCompletion(text string) *ai.Completion {
	return &ai.Completion{Text: text}
}

func TestCalculatorGraphComputes(t *testing.T) {
	completion := &mockCompletion{
		script: []*ai.Completion{
			toolCallCompletion("calculator", `{"expression": "(2 + 3) * 4"}`),
			textCompletion("The result is 20."),
		},
	}
	calc := NewCalculatorGraph(completion)

	var events []Event
	err := Run(context.Background(), calc, &Request{Input: "what is (2+3)*4?"}, collectEvents(&events))
	require.NoError(t, err)

	require.NotEmpty(t, events)
	terminal := events[len(events)-1]
	require.Equal(t, EventTypeTerminal, terminal.Type)
	require.Equal(t, "The result is 20.", terminal.Content)

	// The calculator result was fed back to the oracle.
	var sawResult bool
	for _, msg := range completion.lastToolInput {
		if msg.Content == "Calculator result: (2 + 3) * 4 = 20" {
			sawResult = true
		}
	}
	require.True(t, sawResult)
}

func TestCalculatorGraphAnswersWithoutCalculation(t *testing.T) {
	completion := &mockCompletion{
		script: []*ai.Completion{textCompletion("No math needed.")},
	}
	calc := NewCalculatorGraph(completion)

	var events []Event
	err := Run(context.Background(), calc, &Request{Input: "hi"}, collectEvents(&events))
	require.NoError(t, err)
	require.Equal(t, 1, completion.toolCalls)

	terminal := events[len(events)-1]
	require.Equal(t, EventTypeTerminal, terminal.Type)
	require.Equal(t, "No math needed.", terminal.Content)
}

func TestCalculatorGraphRecursionCeiling(t *testing.T) {
	// The model keeps requesting calculations forever.
	completion := &mockCompletion{
		script: []*ai.Completion{toolCallCompletion("calculator", `{"expression": "1 + 1"}`)},
	}
	calc := NewCalculatorGraph(completion)
	calc.maxSteps = 10

	var events []Event
	err := Run(context.Background(), calc, &Request{Input: "loop"}, collectEvents(&events))
	require.NoError(t, err)

	terminal := events[len(events)-1]
	require.Equal(t, EventTypeError, terminal.Type)
	require.Equal(t, ErrorKindRecursionExceeded, terminal.Kind)
}

func TestCalculatorGraphBadArguments(t *testing.T) {
	completion := &mockCompletion{
		script: []*ai.Completion{toolCallCompletion("calculator", `{"nope": true}`)},
	}
	calc := NewCalculatorGraph(completion)

	var events []Event
	err := Run(context.Background(), calc, &Request{Input: "x"}, collectEvents(&events))
	require.NoError(t, err)

	terminal := events[len(events)-1]
	require.Equal(t, EventTypeError, terminal.Type)
	require.Equal(t, ErrorKindToolExecution, terminal.Kind)
}
