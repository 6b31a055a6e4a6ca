package executor

import (
	"context"
	"strings"

	"github.com/Arvoid00/seamless-ai/plugin/ai"
)

// Registered tool names.
const (
	ToolNameDirectChat   = "directChat"
	ToolNameCalculator   = "calculator"
	ToolNameResearch     = "webResearch"
	ToolNameVectorSearch = "vecSearch"
)

const defaultChatPrompt = "You are a helpful assistant. Answer clearly and concisely."

// DirectChat streams a plain completion for the user's message. It is the
// dispatcher's free-text path expressed as an executor, so the fallback and
// the tool paths share one contract.
type DirectChat struct {
	completion ai.CompletionService
}

// NewDirectChat creates the plain chat executor.
func NewDirectChat(completion ai.CompletionService) *DirectChat {
	return &DirectChat{completion: completion}
}

var _ Executor = (*DirectChat)(nil)

func (d *DirectChat) Name() string {
	return ToolNameDirectChat
}

// Execute streams the answer token by token and terminates with the full text.
func (d *DirectChat) Execute(ctx context.Context, req *Request, emit Emit) error {
	messages := make([]ai.Message, 0, len(req.History)+2)
	messages = append(messages, ai.Message{
		Role:    ai.MessageRoleSystem,
		Content: req.SystemPrompt(defaultChatPrompt),
	})
	messages = append(messages, req.History...)
	messages = append(messages, ai.Message{Role: ai.MessageRoleUser, Content: req.Input})

	tokens, errs := d.completion.ChatStream(ctx, messages, req.ChatOptions()...)

	var answer strings.Builder
	for token := range tokens {
		answer.WriteString(token)
		if err := emit(Token(token)); err != nil {
			return abort(err)
		}
	}
	if err := <-errs; err != nil {
		return err
	}

	if err := emit(Terminal(answer.String(), nil)); err != nil {
		return abort(err)
	}
	return nil
}
