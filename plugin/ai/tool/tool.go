// Package tool holds the static catalog of invocable tools. The registry is
// built once at startup and immutable afterwards; adding a tool is a
// registration, not a new branch in the dispatcher.
package tool

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/Arvoid00/seamless-ai/plugin/ai"
	"github.com/Arvoid00/seamless-ai/plugin/ai/executor"
	"github.com/Arvoid00/seamless-ai/plugin/ai/render"
)

// Definition binds a tool name to its selection schema, its executor and
// its renderer.
type Definition struct {
	Name string
	// Description drives tool selection by the model.
	Description string
	// InputSchema is the JSON Schema of the tool's arguments.
	InputSchema map[string]any
	Executor    executor.Executor
	Renderer    render.TurnRenderer
}

// Registry is the immutable tool catalog.
type Registry struct {
	definitions map[string]*Definition
}

// NewRegistry builds a registry from the given definitions. Duplicate or
// incomplete definitions are configuration errors.
func NewRegistry(definitions ...*Definition) (*Registry, error) {
	r := &Registry{definitions: make(map[string]*Definition, len(definitions))}
	for _, def := range definitions {
		if def.Name == "" {
			return nil, errors.New("tool definition has no name")
		}
		if def.Executor == nil {
			return nil, errors.Errorf("tool %q has no executor", def.Name)
		}
		if def.Renderer == nil {
			return nil, errors.Errorf("tool %q has no renderer", def.Name)
		}
		if _, ok := r.definitions[def.Name]; ok {
			return nil, errors.Errorf("tool %q registered twice", def.Name)
		}
		r.definitions[def.Name] = def
	}
	return r, nil
}

// Lookup finds a tool by name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	def, ok := r.definitions[name]
	return def, ok
}

// Names lists all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the selection schemas for the given enabled tool names.
// A nil slice means every registered tool is enabled.
func (r *Registry) Schemas(enabled []string) []ai.ToolSchema {
	names := enabled
	if names == nil {
		names = r.Names()
	}
	schemas := make([]ai.ToolSchema, 0, len(names))
	for _, name := range names {
		def, ok := r.definitions[name]
		if !ok {
			continue
		}
		schemas = append(schemas, ai.ToolSchema{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.InputSchema,
		})
	}
	return schemas
}

// Renderers returns the tool renderer table for the projection layer.
func (r *Registry) Renderers() map[string]render.TurnRenderer {
	renderers := make(map[string]render.TurnRenderer, len(r.definitions))
	for name, def := range r.definitions {
		renderers[name] = def.Renderer
	}
	return renderers
}

// ValidateEnabledTools checks that every named tool exists. It backs the
// startup validation of agent catalogs so a dangling tool reference fails
// fast instead of surfacing at dispatch time.
func (r *Registry) ValidateEnabledTools(names []string) error {
	for _, name := range names {
		if _, ok := r.definitions[name]; !ok {
			return errors.Errorf("unknown tool %q", name)
		}
	}
	return nil
}

// queryInputSchema is shared by tools whose only argument is a query string.
func queryInputSchema(description string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{"query"},
	}
}

// DefaultRegistry wires the built-in tools against the given capabilities.
func DefaultRegistry(
	completion ai.CompletionService,
	embedding ai.EmbeddingService,
	searcher executor.PassageSearcher,
	webSearch executor.SearchService,
) (*Registry, error) {
	return NewRegistry(
		&Definition{
			Name:        executor.ToolNameCalculator,
			Description: "Answers questions that require arithmetic by reasoning with a calculator.",
			InputSchema: queryInputSchema("The math question to solve."),
			Executor:    executor.NewCalculatorGraph(completion),
			Renderer:    render.NewMarkdownTurnRenderer(),
		},
		&Definition{
			Name:        executor.ToolNameResearch,
			Description: "Researches a topic on the web and optionally produces a chart.",
			InputSchema: queryInputSchema("The research question."),
			Executor:    executor.NewMultiAgentResearch(completion, webSearch),
			Renderer:    render.NewChartTurnRenderer(),
		},
		&Definition{
			Name:        executor.ToolNameVectorSearch,
			Description: "Answers questions from the user's ingested documents with citations.",
			InputSchema: queryInputSchema("The question to answer from stored documents."),
			Executor:    executor.NewVectorSearch(completion, embedding, searcher),
			Renderer:    render.NewCitationTurnRenderer(),
		},
	)
}
