package render

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/Arvoid00/seamless-ai/store"
)

// decodeAuxiliary parses a turn's auxiliary payload, nil when absent or invalid.
func decodeAuxiliary(turn *store.Turn) map[string]any {
	if turn.AuxiliaryData == "" {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(turn.AuxiliaryData), &data); err != nil {
		slog.Warn("invalid auxiliary data on turn",
			slog.String("turn", turn.ID),
			slog.String("error", err.Error()))
		return nil
	}
	return data
}

// MarkdownTurnRenderer renders a function turn's result as a markdown bubble.
type MarkdownTurnRenderer struct {
	markdown goldmark.Markdown
}

func NewMarkdownTurnRenderer() *MarkdownTurnRenderer {
	return &MarkdownTurnRenderer{
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (r *MarkdownTurnRenderer) RenderTurn(turn *store.Turn) *Renderable {
	var buf bytes.Buffer
	html := turn.Content
	if err := r.markdown.Convert([]byte(turn.Content), &buf); err == nil {
		html = buf.String()
	}
	return &Renderable{Kind: KindMarkdown, Text: turn.Content, HTML: html}
}

// ChartTurnRenderer renders a research turn: answer text plus the chart spec
// carried in the auxiliary payload, when one was produced.
type ChartTurnRenderer struct{}

func NewChartTurnRenderer() *ChartTurnRenderer {
	return &ChartTurnRenderer{}
}

func (r *ChartTurnRenderer) RenderTurn(turn *store.Turn) *Renderable {
	renderable := &Renderable{Kind: KindChart, Text: turn.Content}
	if aux := decodeAuxiliary(turn); aux != nil {
		if spec, ok := aux["chart"]; ok {
			renderable.Payload = map[string]any{"chart": spec}
		}
	}
	return renderable
}

// CitationTurnRenderer renders a document-search turn: the grounded answer
// plus the retrieved passages for citation display.
type CitationTurnRenderer struct{}

func NewCitationTurnRenderer() *CitationTurnRenderer {
	return &CitationTurnRenderer{}
}

func (r *CitationTurnRenderer) RenderTurn(turn *store.Turn) *Renderable {
	renderable := &Renderable{Kind: KindCitations, Text: turn.Content}
	if aux := decodeAuxiliary(turn); aux != nil {
		if passages, ok := aux["passages"]; ok {
			renderable.Payload = map[string]any{"passages": passages}
		}
	}
	return renderable
}

var (
	_ TurnRenderer = (*MarkdownTurnRenderer)(nil)
	_ TurnRenderer = (*ChartTurnRenderer)(nil)
	_ TurnRenderer = (*CitationTurnRenderer)(nil)
)
