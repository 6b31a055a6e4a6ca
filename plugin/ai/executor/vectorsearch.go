package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/Arvoid00/seamless-ai/plugin/ai"
	"github.com/Arvoid00/seamless-ai/store"
)

const (
	vectorSearchTopK = 5

	// NoResultsAnswer is the terminal text when retrieval finds nothing.
	NoResultsAnswer = "No matching documents were found for your question."

	// DontKnowSentinel is the phrase the model must emit when the retrieved
	// context cannot answer the question.
	DontKnowSentinel = "I don't know"
)

const vectorSearchPromptFormat = "Answer the question using ONLY the context " +
	"below. If the context does not contain the answer, reply exactly \"%s\". " +
	"Do not use outside knowledge.\n\nContext:\n%s"

// PassageSearcher is the retrieval boundary consumed by the executor.
type PassageSearcher interface {
	VectorSearchPassages(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.PassageWithScore, error)
}

// VectorSearch answers questions from ingested documents: it embeds the
// sanitized query, retrieves the nearest passages scoped by the active tag
// filter, and grounds one completion call on them. Retrieved passages travel
// in the terminal event's auxiliary data for citation rendering.
type VectorSearch struct {
	completion ai.CompletionService
	embedding  ai.EmbeddingService
	searcher   PassageSearcher
	topK       int
}

// NewVectorSearch creates the document search executor.
func NewVectorSearch(completion ai.CompletionService, embedding ai.EmbeddingService, searcher PassageSearcher) *VectorSearch {
	return &VectorSearch{
		completion: completion,
		embedding:  embedding,
		searcher:   searcher,
		topK:       vectorSearchTopK,
	}
}

var _ Executor = (*VectorSearch)(nil)

func (v *VectorSearch) Name() string {
	return ToolNameVectorSearch
}

func (v *VectorSearch) Execute(ctx context.Context, req *Request, emit Emit) error {
	query := sanitizeQuery(req.Input)
	if query == "" {
		return errors.New("query is empty after sanitization")
	}

	if err := emit(Progress("retrieval", fmt.Sprintf("searching documents for %q", query))); err != nil {
		return abort(err)
	}

	vector, err := v.embedding.Embedding(ctx, query)
	if err != nil {
		return err
	}

	matches, err := v.searcher.VectorSearchPassages(ctx, &store.VectorSearchOptions{
		Vector:    vector,
		TagFilter: req.TagFilter,
		Limit:     v.topK,
	})
	if err != nil {
		return err
	}

	// Zero matches is a normal outcome: terminate without a completion call.
	if len(matches) == 0 {
		if err := emit(Terminal(NoResultsAnswer, nil)); err != nil {
			return abort(err)
		}
		return nil
	}

	if err := emit(Progress("completion", fmt.Sprintf("answering from %d passages", len(matches)))); err != nil {
		return abort(err)
	}

	var contextBlock strings.Builder
	citations := make([]map[string]any, 0, len(matches))
	for i, match := range matches {
		fmt.Fprintf(&contextBlock, "[%d] %s\n\n", i+1, match.Passage.Content)
		citations = append(citations, map[string]any{
			"content": match.Passage.Content,
			"source":  match.Passage.Source,
			"score":   match.Score,
		})
	}

	messages := []ai.Message{
		{
			Role:    ai.MessageRoleSystem,
			Content: fmt.Sprintf(vectorSearchPromptFormat, DontKnowSentinel, contextBlock.String()),
		},
		{Role: ai.MessageRoleUser, Content: req.Input},
	}
	answer, err := v.completion.Chat(ctx, messages, req.ChatOptions()...)
	if err != nil {
		return err
	}

	if err := emit(Terminal(answer, map[string]any{"passages": citations})); err != nil {
		return abort(err)
	}
	return nil
}

// sanitizeQuery strips the query down to alphanumerics and whitespace.
func sanitizeQuery(input string) string {
	var sb strings.Builder
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n':
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
