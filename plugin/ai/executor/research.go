package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/Arvoid00/seamless-ai/plugin/ai"
	"github.com/Arvoid00/seamless-ai/plugin/ai/chart"
	"github.com/Arvoid00/seamless-ai/plugin/ai/graph"
	"github.com/Arvoid00/seamless-ai/plugin/ai/websearch"
)

// FinalAnswerMarker terminates a research run when it appears in a
// specialist's reply.
const FinalAnswerMarker = "FINAL ANSWER"

const (
	researcherPrompt = "You are a research specialist collaborating with a chart " +
		"specialist. Use the webSearch tool to gather facts. When the research " +
		"question is fully answered, prefix your reply with \"" + FinalAnswerMarker + "\". " +
		"If a chart would help, describe the data and hand off instead of answering."
	chartPrompt = "You are a chart specialist collaborating with a research " +
		"specialist. Use the generateChart tool to visualize data the researcher " +
		"gathered. Once the chart is produced, prefix your reply with \"" +
		FinalAnswerMarker + "\" and summarize it."
)

var webSearchSchema = ai.ToolSchema{
	Name:        "webSearch",
	Description: "Searches the web and returns page excerpts for a query.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query.",
			},
		},
		"required": []string{"query"},
	},
}

var generateChartSchema = ai.ToolSchema{
	Name:        "generateChart",
	Description: "Renders a bar chart from labeled numeric data points.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type": "string",
			},
			"data": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"label": map[string]any{"type": "string"},
						"value": map[string]any{"type": "number"},
					},
					"required": []string{"label", "value"},
				},
			},
		},
		"required": []string{"data"},
	},
}

// SearchService is the web-search capability consumed by the research graph.
type SearchService interface {
	Search(ctx context.Context, query string, limit int) ([]websearch.Result, error)
	FetchPages(ctx context.Context, urls []string) ([]websearch.Page, error)
}

// researchState is the per-run state of the peer graph. The chart field is
// overwritten by every chart call in the run; only the last one reaches the
// terminal result.
type researchState struct {
	messages []ai.Message
	sender   string
	pending  *ai.ToolCall
	chart    *chart.Spec
	answer   string
}

// lastContent returns the newest message text, empty when none.
func (s *researchState) lastContent() string {
	if len(s.messages) == 0 {
		return ""
	}
	return s.messages[len(s.messages)-1].Content
}

// MultiAgentResearch runs a supervisor-less peer graph of a researcher and a
// chart generator. A shared tool-call node executes whichever capability the
// specialist in control requested, then hands control back to that specialist.
type MultiAgentResearch struct {
	completion ai.CompletionService
	search     SearchService
	maxSteps   int
}

// NewMultiAgentResearch creates the research executor.
func NewMultiAgentResearch(completion ai.CompletionService, search SearchService) *MultiAgentResearch {
	return &MultiAgentResearch{
		completion: completion,
		search:     search,
		maxSteps:   graph.DefaultMaxSteps,
	}
}

var _ Executor = (*MultiAgentResearch)(nil)

func (m *MultiAgentResearch) Name() string {
	return ToolNameResearch
}

const (
	nodeResearcher = "researcher"
	nodeChart      = "chartGenerator"
	nodeToolCall   = "toolCall"
)

func (m *MultiAgentResearch) Execute(ctx context.Context, req *Request, emit Emit) error {
	initial := &researchState{
		messages: []ai.Message{{Role: ai.MessageRoleUser, Content: req.Input}},
	}

	g := graph.New[*researchState]().
		WithMaxSteps(m.maxSteps).
		AddNode(nodeResearcher, m.specialistNode(nodeResearcher, researcherPrompt, webSearchSchema, req)).
		AddConditionalEdge(nodeResearcher, routeSpecialist(nodeChart)).
		AddNode(nodeChart, m.specialistNode(nodeChart, chartPrompt, generateChartSchema, req)).
		AddConditionalEdge(nodeChart, routeSpecialist(nodeResearcher)).
		AddNode(nodeToolCall, m.toolCallNode()).
		AddConditionalEdge(nodeToolCall, func(s *researchState) string { return s.sender }).
		SetEntry(nodeResearcher).
		OnStep(func(node string, s *researchState) error {
			if err := emit(Progress(node, s.lastContent())); err != nil {
				return abort(err)
			}
			return nil
		})

	final, err := g.Run(ctx, initial)
	if err != nil {
		return err
	}

	answer := strings.TrimSpace(final.answer)
	if idx := strings.Index(answer, FinalAnswerMarker); idx >= 0 {
		answer = strings.TrimSpace(strings.TrimLeft(answer[idx+len(FinalAnswerMarker):], ": "))
	}
	var auxiliaryData map[string]any
	if final.chart != nil {
		auxiliaryData = map[string]any{"chart": final.chart}
	}
	if err := emit(Terminal(answer, auxiliaryData)); err != nil {
		return abort(err)
	}
	return nil
}

// specialistNode builds a node that asks the model for the next step with the
// specialist's capability attached.
func (m *MultiAgentResearch) specialistNode(name, prompt string, schema ai.ToolSchema, req *Request) graph.NodeFunc[*researchState] {
	return func(ctx context.Context, s *researchState) (*researchState, error) {
		messages := make([]ai.Message, 0, len(s.messages)+1)
		messages = append(messages, ai.Message{Role: ai.MessageRoleSystem, Content: prompt})
		messages = append(messages, s.messages...)

		completion, err := m.completion.ChatWithTools(ctx, messages, []ai.ToolSchema{schema}, req.ChatOptions()...)
		if err != nil {
			return s, err
		}

		s.sender = name
		if completion.ToolCall != nil {
			s.pending = completion.ToolCall
			return s, nil
		}
		s.pending = nil
		s.answer = completion.Text
		s.messages = append(s.messages, ai.Message{
			Role:    ai.MessageRoleAssistant,
			Content: fmt.Sprintf("[%s] %s", name, completion.Text),
		})
		return s, nil
	}
}

// routeSpecialist implements the peer routing rule: capability request goes
// to the shared tool node, a final answer terminates, anything else hands
// off to the other specialist.
func routeSpecialist(other string) graph.RouteFunc[*researchState] {
	return func(s *researchState) string {
		if s.pending != nil {
			return nodeToolCall
		}
		if strings.Contains(s.lastContent(), FinalAnswerMarker) {
			return graph.End
		}
		return other
	}
}

// toolCallNode executes the pending capability and records its output as a
// message for the sender to continue from.
func (m *MultiAgentResearch) toolCallNode() graph.NodeFunc[*researchState] {
	return func(ctx context.Context, s *researchState) (*researchState, error) {
		call := s.pending
		s.pending = nil
		if call == nil {
			return s, errors.New("tool call node reached without a pending call")
		}

		var output string
		switch call.Name {
		case "webSearch":
			result, err := m.runWebSearch(ctx, call.Arguments)
			if err != nil {
				return s, err
			}
			output = result
		case "generateChart":
			result, err := m.runGenerateChart(s, call.Arguments)
			if err != nil {
				return s, err
			}
			output = result
		default:
			return s, errors.Errorf("unknown capability %q requested", call.Name)
		}

		s.messages = append(s.messages, ai.Message{
			Role:    ai.MessageRoleAssistant,
			Content: fmt.Sprintf("[%s result] %s", call.Name, output),
		})
		return s, nil
	}
}

const (
	searchResultLimit = 4
	fetchPageLimit    = 2
	pageExcerptRunes  = 2000
)

func (m *MultiAgentResearch) runWebSearch(ctx context.Context, rawArgs string) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return "", errors.Wrap(err, "invalid webSearch arguments")
	}
	if args.Query == "" {
		return "", errors.New("webSearch arguments missing query")
	}

	results, err := m.search.Search(ctx, args.Query, searchResultLimit)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "no search results found", nil
	}

	urls := make([]string, 0, fetchPageLimit)
	for _, r := range results {
		urls = append(urls, r.URL)
		if len(urls) == fetchPageLimit {
			break
		}
	}
	pages, err := m.search.FetchPages(ctx, urls)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, r := range results {
		fmt.Fprintf(&sb, "- %s (%s): %s\n", r.Title, r.URL, r.Snippet)
	}
	for _, p := range pages {
		excerpt := []rune(p.Markdown)
		if len(excerpt) > pageExcerptRunes {
			excerpt = excerpt[:pageExcerptRunes]
		}
		fmt.Fprintf(&sb, "\n--- %s ---\n%s\n", p.URL, string(excerpt))
	}
	return sb.String(), nil
}

func (m *MultiAgentResearch) runGenerateChart(s *researchState, rawArgs string) (string, error) {
	var args struct {
		Title string            `json:"title"`
		Data  []chart.DataPoint `json:"data"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return "", errors.Wrap(err, "invalid generateChart arguments")
	}

	spec, err := chart.Render(args.Title, args.Data)
	if err != nil {
		return "", err
	}
	s.chart = spec
	return fmt.Sprintf("chart %q rendered with %d data points", args.Title, len(args.Data)), nil
}
