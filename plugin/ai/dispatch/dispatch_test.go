package dispatch

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Arvoid00/seamless-ai/plugin/ai"
	"github.com/Arvoid00/seamless-ai/plugin/ai/executor"
	"github.com/Arvoid00/seamless-ai/plugin/ai/render"
	"github.com/Arvoid00/seamless-ai/plugin/ai/tool"
	"github.com/Arvoid00/seamless-ai/store"
)

// mockCompletion scripts the selection call and streams fixed tokens.
type mockCompletion struct {
	selection    *ai.Completion
	selectionErr error
	toolCalls    int
	streamTokens []string
	streamCalls  int
}

func (m *mockCompletion) Chat(_ context.Context, _ []ai.Message, _ ...ai.ChatOption) (string, error) {
	return "", errors.New("not used")
}

func (m *mockCompletion) ChatStream(_ context.Context, _ []ai.Message, _ ...ai.ChatOption) (<-chan string, <-chan error) {
	m.streamCalls++
	tokens := make(chan string, len(m.streamTokens))
	errs := make(chan error, 1)
	for _, t := range m.streamTokens {
		tokens <- t
	}
	close(tokens)
	close(errs)
	return tokens, errs
}

func (m *mockCompletion) ChatWithTools(_ context.Context, _ []ai.Message, _ []ai.ToolSchema, _ ...ai.ChatOption) (*ai.Completion, error) {
	m.toolCalls++
	return m.selection, m.selectionErr
}

// mockTranscriptStore records upserts.
type mockTranscriptStore struct {
	upserts []*store.Transcript
	err     error
}

func (m *mockTranscriptStore) UpsertTranscript(_ context.Context, transcript *store.Transcript) (*store.Transcript, error) {
	m.upserts = append(m.upserts, transcript)
	if m.err != nil {
		return nil, m.err
	}
	return transcript, nil
}

// stubExecutor emits one progress event and a fixed terminal event.
type stubExecutor struct {
	name     string
	result   string
	aux      map[string]any
	errEvent *executor.Event
}

func (e *stubExecutor) Name() string { return e.name }

func (e *stubExecutor) Execute(_ context.Context, _ *executor.Request, emit executor.Emit) error {
	if err := emit(executor.Progress("step", "working")); err != nil {
		return err
	}
	if e.errEvent != nil {
		return emit(*e.errEvent)
	}
	return emit(executor.Terminal(e.result, e.aux))
}

type stubRenderer struct{}

func (stubRenderer) RenderTurn(turn *store.Turn) *render.Renderable {
	return &render.Renderable{Kind: render.KindMarkdown, Text: turn.Content}
}

func testRegistry(t *testing.T, execs ...*stubExecutor) *tool.Registry {
	t.Helper()
	defs := make([]*tool.Definition, 0, len(execs))
	for _, ex := range execs {
		defs = append(defs, &tool.Definition{
			Name:        ex.name,
			Description: ex.name,
			InputSchema: map[string]any{"type": "object"},
			Executor:    ex,
			Renderer:    stubRenderer{},
		})
	}
	registry, err := tool.NewRegistry(defs...)
	require.NoError(t, err)
	return registry
}

func collectUpdates(updates *[]Update) SendFunc {
	return func(u *Update) error {
		*updates = append(*updates, *u)
		return nil
	}
}

func TestDispatchToolPath(t *testing.T) {
	completion := &mockCompletion{
		selection: &ai.Completion{ToolCall: &ai.ToolCall{Name: "vecSearch", Arguments: `{}`}},
	}
	transcripts := &mockTranscriptStore{}
	registry := testRegistry(t, &stubExecutor{
		name:   "vecSearch",
		result: "the answer",
		aux:    map[string]any{"passages": []any{"p1"}},
	})
	d := New(registry, completion, transcripts)

	var updates []Update
	result, err := d.Dispatch(context.Background(), &Request{
		Transcript: &store.Transcript{},
		Input:      "what is the SLA?",
	}, collectUpdates(&updates))
	require.NoError(t, err)

	require.Equal(t, store.RoleUser, result.UserTurn.Role)
	require.Equal(t, store.RoleFunction, result.ResponseTurn.Role)
	require.Equal(t, "vecSearch", result.ResponseTurn.ToolName)
	require.Equal(t, "the answer", result.ResponseTurn.Content)
	require.Contains(t, result.ResponseTurn.AuxiliaryData, "passages")

	require.Len(t, transcripts.upserts, 1)
	require.Len(t, transcripts.upserts[0].Turns, 2)

	// Selecting comes before Executing, which comes before Done.
	var states []State
	for _, u := range updates {
		if u.Type == UpdateTypeState {
			states = append(states, u.State)
		}
	}
	require.Equal(t, []State{StateSelecting, StateExecuting, StateStreaming, StateReconciling, StateDone}, states)
}

func TestDispatchFreeTextFromSelection(t *testing.T) {
	completion := &mockCompletion{selection: &ai.Completion{Text: "just an answer"}}
	transcripts := &mockTranscriptStore{}
	d := New(testRegistry(t, &stubExecutor{name: "calculator", result: "x"}), completion, transcripts)

	var updates []Update
	result, err := d.Dispatch(context.Background(), &Request{
		Transcript: &store.Transcript{},
		Input:      "hello",
	}, collectUpdates(&updates))
	require.NoError(t, err)

	require.Equal(t, store.RoleAssistant, result.ResponseTurn.Role)
	require.Equal(t, "just an answer", result.ResponseTurn.Content)
	require.Zero(t, completion.streamCalls)
}

func TestDispatchDisallowedToolFallsBack(t *testing.T) {
	// The model names a registered tool the agent has not enabled.
	completion := &mockCompletion{
		selection:    &ai.Completion{ToolCall: &ai.ToolCall{Name: "vecSearch", Arguments: `{}`}},
		streamTokens: []string{"fallback ", "answer"},
	}
	transcripts := &mockTranscriptStore{}
	registry := testRegistry(t,
		&stubExecutor{name: "vecSearch", result: "never"},
		&stubExecutor{name: "calculator", result: "never"},
	)
	d := New(registry, completion, transcripts)

	var updates []Update
	result, err := d.Dispatch(context.Background(), &Request{
		Transcript: &store.Transcript{},
		Input:      "hi",
		Agent:      &store.Agent{Name: "bare", EnabledTools: []string{"calculator"}},
	}, collectUpdates(&updates))
	require.NoError(t, err)

	require.Equal(t, store.RoleAssistant, result.ResponseTurn.Role)
	require.Equal(t, "fallback answer", result.ResponseTurn.Content)
	require.Equal(t, 1, completion.streamCalls)
}

func TestDispatchAgentWithNoToolsSkipsSelection(t *testing.T) {
	completion := &mockCompletion{streamTokens: []string{"plain"}}
	transcripts := &mockTranscriptStore{}
	d := New(testRegistry(t, &stubExecutor{name: "vecSearch", result: "never"}), completion, transcripts)

	result, err := d.Dispatch(context.Background(), &Request{
		Transcript: &store.Transcript{},
		Input:      "hi",
		Agent:      &store.Agent{Name: "bare", EnabledTools: []string{}},
	}, nil)
	require.NoError(t, err)

	require.Zero(t, completion.toolCalls)
	require.Equal(t, store.RoleAssistant, result.ResponseTurn.Role)
	require.Equal(t, "plain", result.ResponseTurn.Content)
}

func TestDispatchErrorEventBecomesSystemTurn(t *testing.T) {
	completion := &mockCompletion{
		selection: &ai.Completion{ToolCall: &ai.ToolCall{Name: "vecSearch", Arguments: `{}`}},
	}
	transcripts := &mockTranscriptStore{}
	failure := executor.Failure(executor.ErrorKindToolExecution, "backend down")
	d := New(testRegistry(t, &stubExecutor{name: "vecSearch", errEvent: &failure}), completion, transcripts)

	result, err := d.Dispatch(context.Background(), &Request{
		Transcript: &store.Transcript{},
		Input:      "hi",
	}, nil)
	require.NoError(t, err)

	require.Equal(t, store.RoleSystem, result.ResponseTurn.Role)
	require.Contains(t, result.ResponseTurn.Content, "backend down")

	// The failed cycle still records both turns durably.
	require.Len(t, transcripts.upserts, 1)
	require.Len(t, transcripts.upserts[0].Turns, 2)
}

func TestDispatchPersistsAfterClientDisconnect(t *testing.T) {
	completion := &mockCompletion{
		selection: &ai.Completion{ToolCall: &ai.ToolCall{Name: "vecSearch", Arguments: `{}`}},
	}
	transcripts := &mockTranscriptStore{}
	d := New(testRegistry(t, &stubExecutor{name: "vecSearch", result: "done"}), completion, transcripts)

	// The client goes away after the first update.
	sends := 0
	send := func(*Update) error {
		sends++
		if sends > 1 {
			return errors.New("broken pipe")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // simulate the request context dying with the client

	result, err := d.Dispatch(ctx, &Request{
		Transcript: &store.Transcript{},
		Input:      "hi",
	}, send)
	require.NoError(t, err)

	require.Len(t, transcripts.upserts, 1)
	require.Len(t, transcripts.upserts[0].Turns, 2)
	require.Equal(t, store.RoleUser, transcripts.upserts[0].Turns[0].Role)
	require.Equal(t, result.ResponseTurn.ID, transcripts.upserts[0].Turns[1].ID)
}

func TestDispatchPersistenceFailure(t *testing.T) {
	completion := &mockCompletion{selection: &ai.Completion{Text: "answer"}}
	transcripts := &mockTranscriptStore{err: errors.New("disk full")}
	d := New(testRegistry(t, &stubExecutor{name: "calculator", result: "x"}), completion, transcripts)

	var updates []Update
	_, err := d.Dispatch(context.Background(), &Request{
		Transcript: &store.Transcript{},
		Input:      "hi",
	}, collectUpdates(&updates))
	require.Error(t, err)

	// The attempted turns were still rendered before the failure state.
	var sawFailed, sawTurn bool
	for _, u := range updates {
		if u.Type == UpdateTypeState && u.State == StateFailed {
			sawFailed = true
		}
		if u.Type == UpdateTypeTurn {
			sawTurn = true
		}
	}
	require.True(t, sawFailed)
	require.True(t, sawTurn)
}

func TestBuildHistorySkipsSystemTurns(t *testing.T) {
	d := New(testRegistry(t, &stubExecutor{name: "calculator", result: "x"}), &mockCompletion{}, &mockTranscriptStore{})

	history := d.buildHistory(&store.Transcript{Turns: []store.Turn{
		{Role: store.RoleUser, Content: "q1"},
		{Role: store.RoleSystem, Content: "tool failed"},
		{Role: store.RoleAssistant, Content: "a1"},
	}})
	require.Len(t, history, 2)
	require.Equal(t, ai.MessageRoleUser, history[0].Role)
	require.Equal(t, "q1", history[0].Content)
	require.Equal(t, "a1", history[1].Content)
}
