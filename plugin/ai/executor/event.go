package executor

// EventType identifies the kind of event an executor emits.
type EventType string

const (
	// EventTypeProgress reports an intermediate step of a running executor.
	EventTypeProgress EventType = "progress"
	// EventTypeToken carries one streamed text delta of an answer under construction.
	EventTypeToken EventType = "token"
	// EventTypeTerminal carries the final result. Exactly one terminal or
	// error event ends every execution.
	EventTypeTerminal EventType = "terminal"
	// EventTypeError reports an unrecoverable failure.
	EventTypeError EventType = "error"
)

// ErrorKind classifies executor failures.
type ErrorKind string

const (
	// ErrorKindToolExecution covers upstream capability failures that
	// survived the gateway's retries.
	ErrorKindToolExecution ErrorKind = "TOOL_EXECUTION"
	// ErrorKindRecursionExceeded means a graph executor hit its step ceiling.
	ErrorKindRecursionExceeded ErrorKind = "RECURSION_EXCEEDED"
)

// Event is one unit of an executor's output stream. Events are emitted in
// strict order; callers must apply them in emission order.
type Event struct {
	Type    EventType `json:"type"`
	Stage   string    `json:"stage,omitempty"`
	Content string    `json:"content,omitempty"`
	Kind    ErrorKind `json:"kind,omitempty"`

	// AuxiliaryData is a tool-specific side payload attached to the terminal
	// event. It is persisted with the resulting turn at creation time because
	// it may depend on retrieval results that cannot be reproduced later.
	AuxiliaryData map[string]any `json:"auxiliary_data,omitempty"`
}

// Progress builds a progress event for the given stage.
func Progress(stage, content string) Event {
	return Event{Type: EventTypeProgress, Stage: stage, Content: content}
}

// Token builds a streamed text delta event.
func Token(delta string) Event {
	return Event{Type: EventTypeToken, Content: delta}
}

// Terminal builds the final result event.
func Terminal(result string, auxiliaryData map[string]any) Event {
	return Event{Type: EventTypeTerminal, Content: result, AuxiliaryData: auxiliaryData}
}

// Failure builds an error event.
func Failure(kind ErrorKind, message string) Event {
	return Event{Type: EventTypeError, Kind: kind, Content: message}
}
