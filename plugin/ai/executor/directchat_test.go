package executor

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDirectChatStreamsTokens(t *testing.T) {
	completion := &mockCompletion{streamTokens: []string{"Hello", ", ", "world"}}
	chat := NewDirectChat(completion)

	var events []Event
	err := Run(context.Background(), chat, &Request{Input: "hi"}, collectEvents(&events))
	require.NoError(t, err)
	require.Len(t, events, 4)

	for _, e := range events[:3] {
		require.Equal(t, EventTypeToken, e.Type)
	}
	terminal := events[3]
	require.Equal(t, EventTypeTerminal, terminal.Type)
	require.Equal(t, "Hello, world", terminal.Content)
}

func TestDirectChatStreamError(t *testing.T) {
	completion := &mockCompletion{streamErr: errors.New("backend down")}
	chat := NewDirectChat(completion)

	var events []Event
	err := Run(context.Background(), chat, &Request{Input: "hi"}, collectEvents(&events))
	require.NoError(t, err)

	terminal := events[len(events)-1]
	require.Equal(t, EventTypeError, terminal.Type)
	require.Equal(t, ErrorKindToolExecution, terminal.Kind)
	require.Contains(t, terminal.Content, "backend down")
}

func TestRunAbortOnEmitFailure(t *testing.T) {
	completion := &mockCompletion{streamTokens: []string{"a", "b"}}
	chat := NewDirectChat(completion)

	stop := errors.New("client gone")
	err := Run(context.Background(), chat, &Request{Input: "hi"}, func(Event) error { return stop })
	require.ErrorIs(t, err, errAborted)
}
