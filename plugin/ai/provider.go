package ai

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/Arvoid00/seamless-ai/plugin/ai/gateway"
)

// Message represents a chat message sent to the model backend.
type Message struct {
	Role    string
	Content string
}

// Chat message roles understood by the backend.
const (
	MessageRoleSystem    = openai.ChatMessageRoleSystem
	MessageRoleUser      = openai.ChatMessageRoleUser
	MessageRoleAssistant = openai.ChatMessageRoleAssistant
)

// ToolSchema describes a callable tool exposed to the model during selection.
// Parameters is a JSON Schema object.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is the model's request to invoke a tool, with raw JSON arguments.
type ToolCall struct {
	Name      string
	Arguments string
}

// Completion is the outcome of a tool-selection completion. Exactly one of
// Text and ToolCall is meaningful: when the model elects to call a tool,
// ToolCall is set; otherwise Text holds a plain answer.
type Completion struct {
	Text     string
	ToolCall *ToolCall
}

// CompletionService is the model surface executors consume.
type CompletionService interface {
	Chat(ctx context.Context, messages []Message, opts ...ChatOption) (string, error)
	ChatStream(ctx context.Context, messages []Message, opts ...ChatOption) (<-chan string, <-chan error)
	ChatWithTools(ctx context.Context, messages []Message, tools []ToolSchema, opts ...ChatOption) (*Completion, error)
}

// EmbeddingService generates embedding vectors for text.
type EmbeddingService interface {
	Embedding(ctx context.Context, text string) ([]float32, error)
}

type chatOptions struct {
	temperature *float32
	maxTokens   int
}

// ChatOption customizes a single completion request.
type ChatOption func(*chatOptions)

// WithTemperature overrides the configured sampling temperature.
func WithTemperature(t float32) ChatOption {
	return func(o *chatOptions) {
		o.temperature = &t
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) ChatOption {
	return func(o *chatOptions) {
		o.maxTokens = n
	}
}

// Provider provides chat and embedding capabilities on top of an
// OpenAI-compatible backend. All requests go through the retrying gateway.
type Provider struct {
	client  *openai.Client
	gateway *gateway.Gateway
	config  *Config
}

var (
	_ CompletionService = (*Provider)(nil)
	_ EmbeddingService  = (*Provider)(nil)
)

// NewProvider creates a new model provider. A missing API key is not an
// error here: the server starts degraded and surfaces the warning instead,
// so requests fail at call time rather than at startup.
func NewProvider(cfg *Config, gw *gateway.Gateway) *Provider {
	if gw == nil {
		gw = gateway.New()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client:  openai.NewClientWithConfig(clientConfig),
		gateway: gw,
		config:  cfg,
	}
}

func (p *Provider) buildRequest(messages []Message, opts []ChatOption) openai.ChatCompletionRequest {
	options := chatOptions{maxTokens: p.config.MaxTokens}
	for _, opt := range opts {
		opt(&options)
	}

	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		llmMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	temperature := p.config.Temperature
	if options.temperature != nil {
		temperature = *options.temperature
	}

	return openai.ChatCompletionRequest{
		Model:       p.config.ChatModel,
		Messages:    llmMessages,
		Temperature: temperature,
		MaxTokens:   options.maxTokens,
	}
}

// Chat performs a blocking chat completion.
func (p *Provider) Chat(ctx context.Context, messages []Message, opts ...ChatOption) (string, error) {
	req := p.buildRequest(messages, opts)
	resp, err := gateway.Do(ctx, p.gateway, func(ctx context.Context) (openai.ChatCompletionResponse, error) {
		return p.client.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		return "", errors.Wrap(err, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty chat response")
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatStream performs a streaming chat completion. Tokens arrive on the first
// channel in generation order; the second channel delivers at most one error
// and both channels close when the stream ends.
func (p *Provider) ChatStream(ctx context.Context, messages []Message, opts ...ChatOption) (<-chan string, <-chan error) {
	tokenCh := make(chan string, 16)
	errCh := make(chan error, 1)

	req := p.buildRequest(messages, opts)
	req.Stream = true

	go func() {
		defer close(tokenCh)
		defer close(errCh)

		stream, err := gateway.Do(ctx, p.gateway, func(ctx context.Context) (*openai.ChatCompletionStream, error) {
			return p.client.CreateChatCompletionStream(ctx, req)
		})
		if err != nil {
			errCh <- errors.Wrap(err, "failed to open completion stream")
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errCh <- err
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case tokenCh <- delta:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return tokenCh, errCh
}

// ChatWithTools performs a single completion with tool definitions attached.
// The model either answers in plain text or selects one tool to call.
func (p *Provider) ChatWithTools(ctx context.Context, messages []Message, tools []ToolSchema, opts ...ChatOption) (*Completion, error) {
	req := p.buildRequest(messages, opts)

	req.Tools = make([]openai.Tool, len(tools))
	for i, t := range tools {
		req.Tools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}

	resp, err := gateway.Do(ctx, p.gateway, func(ctx context.Context) (openai.ChatCompletionResponse, error) {
		return p.client.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		return nil, errors.Wrap(err, "tool selection completion failed")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty chat response")
	}

	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) > 0 {
		call := choice.Message.ToolCalls[0]
		if len(choice.Message.ToolCalls) > 1 {
			slog.Debug("model returned multiple tool calls, using first",
				slog.Int("count", len(choice.Message.ToolCalls)))
		}
		return &Completion{
			ToolCall: &ToolCall{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		}, nil
	}

	return &Completion{Text: choice.Message.Content}, nil
}

// Embedding generates an embedding vector for the given text.
func (p *Provider) Embedding(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.config.EmbeddingModel),
	}
	resp, err := gateway.Do(ctx, p.gateway, func(ctx context.Context) (openai.EmbeddingResponse, error) {
		return p.client.CreateEmbeddings(ctx, req)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate embedding")
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}
