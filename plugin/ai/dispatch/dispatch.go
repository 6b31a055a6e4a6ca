// Package dispatch drives one conversation turn from user input to a
// durably appended transcript: tool selection, executor streaming and
// reconciliation run as an explicit state machine per cycle.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Arvoid00/seamless-ai/plugin/ai"
	"github.com/Arvoid00/seamless-ai/plugin/ai/executor"
	"github.com/Arvoid00/seamless-ai/plugin/ai/render"
	"github.com/Arvoid00/seamless-ai/plugin/ai/tool"
	"github.com/Arvoid00/seamless-ai/store"
)

// State names one phase of a dispatch cycle.
type State string

const (
	StateIdle        State = "idle"
	StateSelecting   State = "selecting"
	StateExecuting   State = "executing"
	StateStreaming   State = "streaming"
	StateReconciling State = "reconciling"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// UpdateType identifies the kind of update streamed to the caller.
type UpdateType string

const (
	// UpdateTypeState announces a state transition.
	UpdateTypeState UpdateType = "state"
	// UpdateTypeEvent forwards one executor event.
	UpdateTypeEvent UpdateType = "event"
	// UpdateTypeTurn delivers a rendered turn once it is final.
	UpdateTypeTurn UpdateType = "turn"
)

// Update is one unit of the live render stream.
type Update struct {
	Type  UpdateType      `json:"type"`
	State State           `json:"state,omitempty"`
	Tool  string          `json:"tool,omitempty"`
	Event *executor.Event `json:"event,omitempty"`
	Turn  *render.Item    `json:"turn,omitempty"`
}

// SendFunc delivers updates to the caller. A failing send marks the caller
// as gone; the cycle keeps running and still persists its result.
type SendFunc func(*Update) error

// TranscriptStore is the persistence boundary of the dispatcher.
type TranscriptStore interface {
	UpsertTranscript(ctx context.Context, transcript *store.Transcript) (*store.Transcript, error)
}

// Request describes one user turn to dispatch.
type Request struct {
	Transcript *store.Transcript
	Input      string
	// TurnID is the client-generated id of the user turn, generated
	// server-side when absent.
	TurnID    string
	Agent     *store.Agent
	TagFilter []string
	UserID    int32
}

// Result is the outcome of a completed cycle.
type Result struct {
	Transcript   *store.Transcript
	UserTurn     store.Turn
	ResponseTurn store.Turn
}

// Dispatcher runs dispatch cycles. It is safe for concurrent use across
// different transcripts; turns of one transcript are serialized by the caller.
type Dispatcher struct {
	registry   *tool.Registry
	completion ai.CompletionService
	directChat *executor.DirectChat
	transcript TranscriptStore
	projector  *render.Projector
	counter    *tokenCounter
}

// New creates a dispatcher.
func New(registry *tool.Registry, completion ai.CompletionService, transcriptStore TranscriptStore) *Dispatcher {
	return &Dispatcher{
		registry:   registry,
		completion: completion,
		directChat: executor.NewDirectChat(completion),
		transcript: transcriptStore,
		projector:  render.NewProjector(registry.Renderers()),
		counter:    newTokenCounter(),
	}
}

// Projector exposes the projection used for live updates, shared with the
// reload path so both render identically.
func (d *Dispatcher) Projector() *render.Projector {
	return d.projector
}

// Dispatch runs one full cycle and returns once the transcript append has
// been attempted. Only persistence failures are returned as errors; tool
// failures surface as a system turn in the transcript.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request, send SendFunc) (*Result, error) {
	// The cycle must survive a client disconnect: the work continues on a
	// detached context and the durable append always happens.
	runCtx := context.WithoutCancel(ctx)
	sink := &updateSink{send: send}

	userTurn := store.Turn{
		ID:      req.TurnID,
		Role:    store.RoleUser,
		Content: req.Input,
	}
	if userTurn.ID == "" {
		userTurn.ID = uuid.NewString()
	}

	sink.state(StateSelecting)
	selected, freeText := d.selectTool(runCtx, req)

	var responseTurn store.Turn
	switch {
	case selected != nil:
		sink.state(StateExecuting)
		responseTurn = d.runExecutor(runCtx, selected.Executor, selected.Name, req, sink)
	case freeText != "":
		// The selection call already produced the whole answer.
		sink.state(StateStreaming)
		sink.event(executor.ToolNameDirectChat, executor.Token(freeText))
		responseTurn = store.Turn{
			ID:      uuid.NewString(),
			Role:    store.RoleAssistant,
			Content: freeText,
		}
	default:
		sink.state(StateStreaming)
		responseTurn = d.runExecutor(runCtx, d.directChat, executor.ToolNameDirectChat, req, sink)
	}

	sink.state(StateReconciling)
	transcript := render.Append(req.Transcript, userTurn, responseTurn)
	persisted, err := d.transcript.UpsertTranscript(runCtx, transcript)
	if err != nil {
		// Persistence failure is the one hard failure of a cycle. The caller
		// still gets the rendered turns so the input is not lost on screen.
		sink.turn(&userTurn)
		sink.turnRendered(&responseTurn, d.projector.ProjectTurn(&responseTurn))
		sink.state(StateFailed)
		return nil, errors.Wrap(err, "failed to persist transcript")
	}

	sink.turn(&userTurn)
	sink.turnRendered(&responseTurn, d.projector.ProjectTurn(&responseTurn))
	sink.state(StateDone)

	return &Result{
		Transcript:   persisted,
		UserTurn:     userTurn,
		ResponseTurn: responseTurn,
	}, nil
}

// selectTool submits the conversation plus tool schemas to the model and
// returns either the chosen tool or the model's free-text answer. A
// selection naming a disallowed or unknown tool falls back to free text.
func (d *Dispatcher) selectTool(ctx context.Context, req *Request) (*tool.Definition, string) {
	var enabled []string
	if req.Agent != nil {
		enabled = req.Agent.EnabledTools
		if enabled == nil {
			enabled = []string{}
		}
	}
	schemas := d.registry.Schemas(enabled)
	if len(schemas) == 0 {
		return nil, ""
	}

	messages := d.buildSelectionMessages(req)
	var opts []ai.ChatOption
	if req.Agent != nil {
		opts = append(opts, ai.WithTemperature(req.Agent.Strictness))
	}

	completion, err := d.completion.ChatWithTools(ctx, messages, schemas, opts...)
	if err != nil {
		// Selection failure is not fatal: the free-text path still works.
		slog.Warn("tool selection failed, falling back to chat", slog.String("error", err.Error()))
		return nil, ""
	}

	if completion.ToolCall == nil {
		return nil, completion.Text
	}

	name := completion.ToolCall.Name
	def, ok := d.registry.Lookup(name)
	if !ok || (enabled != nil && !slices.Contains(enabled, name)) {
		// Never second-guess a valid selection, but a disallowed tool is a
		// selection error, not something to execute.
		slog.Warn("model selected disallowed tool, falling back to chat",
			slog.String("tool", name),
			slog.Int("user", int(req.UserID)))
		return nil, ""
	}
	return def, ""
}

// runExecutor drives one executor and converts its terminal event into the
// response turn. Error events become a visible system turn.
func (d *Dispatcher) runExecutor(ctx context.Context, ex executor.Executor, toolName string, req *Request, sink *updateSink) store.Turn {
	execReq := &executor.Request{
		Input:     req.Input,
		History:   d.buildHistory(req.Transcript),
		Agent:     req.Agent,
		TagFilter: req.TagFilter,
		UserID:    req.UserID,
	}

	var terminal *executor.Event
	err := executor.Run(ctx, ex, execReq, func(event executor.Event) error {
		switch event.Type {
		case executor.EventTypeTerminal, executor.EventTypeError:
			terminal = &event
		default:
			sink.event(toolName, event)
		}
		return nil
	})
	if err != nil || terminal == nil {
		message := "tool execution produced no result"
		if err != nil {
			message = err.Error()
		}
		slog.Error("executor run failed", slog.String("tool", toolName), slog.String("error", message))
		return systemFailureTurn(toolName, message)
	}

	if terminal.Type == executor.EventTypeError {
		return systemFailureTurn(toolName, fmt.Sprintf("%s: %s", terminal.Kind, terminal.Content))
	}

	if toolName == executor.ToolNameDirectChat {
		return store.Turn{
			ID:      uuid.NewString(),
			Role:    store.RoleAssistant,
			Content: terminal.Content,
		}
	}

	turn := store.Turn{
		ID:       uuid.NewString(),
		Role:     store.RoleFunction,
		ToolName: toolName,
		Content:  terminal.Content,
	}
	if len(terminal.AuxiliaryData) > 0 {
		if buf, err := json.Marshal(terminal.AuxiliaryData); err == nil {
			turn.AuxiliaryData = string(buf)
		} else {
			slog.Warn("failed to marshal auxiliary data", slog.String("tool", toolName), slog.String("error", err.Error()))
		}
	}
	return turn
}

// systemFailureTurn builds the visible record of a failed tool run.
func systemFailureTurn(toolName, message string) store.Turn {
	return store.Turn{
		ID:      uuid.NewString(),
		Role:    store.RoleSystem,
		Content: fmt.Sprintf("The %s tool failed: %s", toolName, message),
	}
}

// buildSelectionMessages assembles the prompt for the selection call: the
// persona's system prompt plus the budgeted history and the new input.
func (d *Dispatcher) buildSelectionMessages(req *Request) []ai.Message {
	systemPrompt := "You are a helpful assistant. Use a tool when it clearly fits the request, otherwise answer directly."
	if req.Agent != nil && req.Agent.SystemPrompt != "" {
		systemPrompt = req.Agent.SystemPrompt
	}

	history := d.buildHistory(req.Transcript)
	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{Role: ai.MessageRoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, ai.Message{Role: ai.MessageRoleUser, Content: req.Input})
	return messages
}

// buildHistory converts prior turns into chat messages, excluding system
// turns and trimming the oldest turns to the token budget.
func (d *Dispatcher) buildHistory(transcript *store.Transcript) []ai.Message {
	if transcript == nil {
		return nil
	}

	var reversed []ai.Message
	budget := historyTokenBudget
	for i := len(transcript.Turns) - 1; i >= 0; i-- {
		turn := &transcript.Turns[i]
		if turn.Role == store.RoleSystem {
			continue
		}
		role := ai.MessageRoleAssistant
		if turn.Role == store.RoleUser {
			role = ai.MessageRoleUser
		}
		cost := d.counter.Count(turn.Content)
		if cost > budget {
			break
		}
		budget -= cost
		reversed = append(reversed, ai.Message{Role: role, Content: turn.Content})
	}

	slices.Reverse(reversed)
	return reversed
}

// updateSink forwards updates while the caller is reachable. After the first
// failed send it goes quiet instead of aborting the cycle.
type updateSink struct {
	send      SendFunc
	gone      bool
	streaming bool
}

func (s *updateSink) deliver(u *Update) {
	if s.gone || s.send == nil {
		return
	}
	if err := s.send(u); err != nil {
		slog.Debug("client disconnected, continuing cycle", slog.String("error", err.Error()))
		s.gone = true
	}
}

func (s *updateSink) state(state State) {
	if state == StateStreaming {
		s.streaming = true
	}
	s.deliver(&Update{Type: UpdateTypeState, State: state})
}

func (s *updateSink) event(toolName string, event executor.Event) {
	// The first forwarded event moves the cycle into its streaming phase.
	if !s.streaming {
		s.state(StateStreaming)
	}
	s.deliver(&Update{Type: UpdateTypeEvent, Tool: toolName, Event: &event})
}

func (s *updateSink) turn(turn *store.Turn) {
	s.deliver(&Update{Type: UpdateTypeTurn, Turn: &render.Item{
		TurnID:     turn.ID,
		Renderable: &render.Renderable{Kind: render.KindUserBubble, Text: turn.Content},
	}})
}

func (s *updateSink) turnRendered(turn *store.Turn, renderable *render.Renderable) {
	s.deliver(&Update{Type: UpdateTypeTurn, Turn: &render.Item{
		TurnID:     turn.ID,
		Renderable: renderable,
	}})
}
