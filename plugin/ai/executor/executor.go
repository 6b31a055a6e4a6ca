// Package executor implements the tool executors behind the turn dispatcher.
// Each executor is a small state machine that emits ordered progress events
// and ends with exactly one terminal or error event.
package executor

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/Arvoid00/seamless-ai/plugin/ai"
	"github.com/Arvoid00/seamless-ai/plugin/ai/graph"
	"github.com/Arvoid00/seamless-ai/store"
)

// Emit delivers one event to the caller. Returning an error aborts the
// execution; executors must stop emitting after a non-nil return.
type Emit func(Event) error

// Request carries everything an executor needs for one invocation.
type Request struct {
	// Input is the user's raw message for this turn.
	Input string
	// Arguments is the raw JSON argument object from tool selection.
	Arguments string
	// History is the prior conversation, oldest first, excluding system turns.
	History []ai.Message
	// Agent is the active persona overlay, nil when none.
	Agent *store.Agent
	// TagFilter scopes document retrieval, empty means unscoped.
	TagFilter []string
	UserID    int32
}

// ChatOptions derives per-request completion options from the active agent.
func (r *Request) ChatOptions() []ai.ChatOption {
	if r.Agent == nil {
		return nil
	}
	return []ai.ChatOption{ai.WithTemperature(r.Agent.Strictness)}
}

// SystemPrompt returns the active agent's system prompt, or the fallback.
func (r *Request) SystemPrompt(fallback string) string {
	if r.Agent != nil && r.Agent.SystemPrompt != "" {
		return r.Agent.SystemPrompt
	}
	return fallback
}

// Executor runs one tool invocation. Implementations emit zero or more
// progress/token events followed by exactly one terminal event, or return an
// error instead of the terminal event.
type Executor interface {
	Name() string
	Execute(ctx context.Context, req *Request, emit Emit) error
}

// Run drives an executor and converts any returned error into a single error
// event, so raw failures never cross the executor boundary. Abort errors
// from the emit function itself are returned as-is.
func Run(ctx context.Context, ex Executor, req *Request, emit Emit) error {
	err := ex.Execute(ctx, req, emit)
	if err == nil {
		return nil
	}
	if errors.Is(err, errAborted) {
		return err
	}

	kind := ErrorKindToolExecution
	if errors.Is(err, graph.ErrRecursionExceeded) {
		kind = ErrorKindRecursionExceeded
	}
	slog.Error("tool execution failed",
		slog.String("tool", ex.Name()),
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()))
	return emit(Failure(kind, err.Error()))
}

// errAborted marks errors caused by the emit callback rejecting an event.
var errAborted = errors.New("execution aborted by caller")

// abort wraps an emit failure so Run does not convert it into an error event.
func abort(err error) error {
	return errors.Wrap(errAborted, err.Error())
}
