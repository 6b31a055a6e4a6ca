package store

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
	RoleFunction  Role = "FUNCTION"
	RoleSystem    Role = "SYSTEM"
)

// Turn is one immutable unit of conversation. Turns are never edited in
// place; corrections are appended as new turns.
type Turn struct {
	// ID is generated client-side before any server round-trip.
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// ToolName is set only when Role is RoleFunction.
	ToolName string `json:"tool_name,omitempty"`
	// AuxiliaryData is a tool-specific side payload (JSON) attached at
	// creation time. It may depend on ephemeral retrieval results and is
	// never recomputed.
	AuxiliaryData string `json:"auxiliary_data,omitempty"`
	CreatedTs     int64  `json:"created_ts"`
}

// Transcript is the durable conversation document. It is persisted whole
// with upsert semantics: last full-document write wins.
type Transcript struct {
	ID        int32
	UID       string
	CreatorID int32
	Title     string
	AgentName string
	Pinned    bool
	Turns     []Turn
	CreatedTs int64
	UpdatedTs int64
}

type FindTranscript struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	AgentName *string
	Pinned    *bool
	// Filter is a CEL expression evaluated against each transcript,
	// e.g. `agent == "researcher" && pinned`.
	Filter *string
}

type DeleteTranscript struct {
	ID int32
}
