package executor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/Arvoid00/seamless-ai/plugin/ai"
	"github.com/Arvoid00/seamless-ai/plugin/ai/graph"
)

const calculatorPrompt = "You are a precise reasoning assistant with access to a " +
	"calculator. Use the calculator for every arithmetic computation instead of " +
	"computing yourself. When no further calculation is needed, reply with the " +
	"final answer in plain text."

var calculatorSchema = ai.ToolSchema{
	Name:        "calculator",
	Description: "Evaluates an arithmetic expression with + - * / % and parentheses.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"description": "The arithmetic expression to evaluate, e.g. \"(2 + 3) * 4\".",
			},
		},
		"required": []string{"expression"},
	},
}

// calcState is the per-run state threaded through the calculator graph.
type calcState struct {
	messages []ai.Message
	pending  string // expression requested by the oracle, empty when none
	answer   string
}

// CalculatorGraph answers arithmetic-heavy questions by alternating between a
// reasoning node and a calculator node. The oracle requests expressions; the
// calculator evaluates them and feeds results back until the oracle answers
// in plain text. Node visits are capped by the graph's step ceiling.
type CalculatorGraph struct {
	completion ai.CompletionService
	maxSteps   int
}

// NewCalculatorGraph creates the calculator executor.
func NewCalculatorGraph(completion ai.CompletionService) *CalculatorGraph {
	return &CalculatorGraph{completion: completion, maxSteps: graph.DefaultMaxSteps}
}

var _ Executor = (*CalculatorGraph)(nil)

func (c *CalculatorGraph) Name() string {
	return ToolNameCalculator
}

func (c *CalculatorGraph) Execute(ctx context.Context, req *Request, emit Emit) error {
	messages := make([]ai.Message, 0, len(req.History)+2)
	messages = append(messages, ai.Message{Role: ai.MessageRoleSystem, Content: req.SystemPrompt(calculatorPrompt)})
	messages = append(messages, req.History...)
	messages = append(messages, ai.Message{Role: ai.MessageRoleUser, Content: req.Input})
	initial := &calcState{messages: messages}

	g := graph.New[*calcState]().
		WithMaxSteps(c.maxSteps).
		AddNode("oracle", func(ctx context.Context, s *calcState) (*calcState, error) {
			completion, err := c.completion.ChatWithTools(ctx, s.messages, []ai.ToolSchema{calculatorSchema}, req.ChatOptions()...)
			if err != nil {
				return s, err
			}
			if completion.ToolCall != nil {
				expression, err := parseCalculatorArgs(completion.ToolCall.Arguments)
				if err != nil {
					return s, err
				}
				s.pending = expression
				return s, nil
			}
			s.pending = ""
			s.answer = completion.Text
			s.messages = append(s.messages, ai.Message{Role: ai.MessageRoleAssistant, Content: completion.Text})
			return s, nil
		}).
		AddConditionalEdge("oracle", func(s *calcState) string {
			if s.pending != "" {
				return "calculator"
			}
			return graph.End
		}).
		AddNode("calculator", func(_ context.Context, s *calcState) (*calcState, error) {
			value, err := Evaluate(s.pending)
			result := ""
			if err != nil {
				result = fmt.Sprintf("calculator error: %v", err)
			} else {
				result = fmt.Sprintf("%s = %s", s.pending, formatNumber(value))
			}
			s.messages = append(s.messages, ai.Message{
				Role:    ai.MessageRoleAssistant,
				Content: fmt.Sprintf("Calculator result: %s", result),
			})
			s.pending = ""
			return s, nil
		}).
		AddEdge("calculator", "oracle").
		SetEntry("oracle").
		OnStep(func(node string, s *calcState) error {
			content := s.answer
			if node == "calculator" && len(s.messages) > 0 {
				content = s.messages[len(s.messages)-1].Content
			}
			if node == "oracle" && s.pending != "" {
				content = fmt.Sprintf("evaluating %s", s.pending)
			}
			if err := emit(Progress(node, content)); err != nil {
				return abort(err)
			}
			return nil
		})

	final, err := g.Run(ctx, initial)
	if err != nil {
		return err
	}
	if err := emit(Terminal(final.answer, nil)); err != nil {
		return abort(err)
	}
	return nil
}

func parseCalculatorArgs(raw string) (string, error) {
	var args struct {
		Expression string `json:"expression"`
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return "", errors.Wrap(err, "invalid calculator arguments")
	}
	if args.Expression == "" {
		return "", errors.New("calculator arguments missing expression")
	}
	return args.Expression, nil
}
