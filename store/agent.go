package store

// Agent is an optional persona overlay for a transcript. When a transcript
// has an associated agent, every dispatch cycle uses the agent's system
// prompt and restricts tool selection to its enabled tools.
type Agent struct {
	ID           int32
	Name         string
	SystemPrompt string
	EnabledTools []string
	// Strictness is a 0..1 sampling-temperature-like parameter.
	Strictness float32
	Tags       []string
	CreatedTs  int64
	UpdatedTs  int64
}

type FindAgent struct {
	ID   *int32
	Name *string
}

type DeleteAgent struct {
	ID int32
}
