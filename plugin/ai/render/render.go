// Package render projects transcripts into displayable form. Projection is
// a pure function of the transcript: rebuilding the same transcript always
// yields the same snapshot, regardless of how the turns were generated.
package render

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/Arvoid00/seamless-ai/store"
)

// Kind identifies a renderable's display form.
type Kind string

const (
	KindUserBubble   Kind = "user_bubble"
	KindMarkdown     Kind = "markdown"
	KindSystemNotice Kind = "system_notice"
	KindPlaceholder  Kind = "placeholder"
	KindChart        Kind = "chart"
	KindCitations    Kind = "citations"
)

// Renderable is the displayable projection of one turn.
type Renderable struct {
	Kind Kind `json:"kind"`
	// Text is the raw text for plain kinds.
	Text string `json:"text,omitempty"`
	// HTML is the rendered markup for markdown kinds.
	HTML string `json:"html,omitempty"`
	// Payload carries kind-specific structured data (chart spec, citations).
	Payload map[string]any `json:"payload,omitempty"`
}

// Item pairs a turn with its renderable.
type Item struct {
	TurnID     string      `json:"turn_id"`
	Renderable *Renderable `json:"renderable"`
}

// Snapshot is the transient render state of a transcript. It is never
// persisted; it is rebuilt from the transcript whenever needed.
type Snapshot struct {
	Items []Item `json:"items"`
}

// TurnRenderer renders one function turn of a specific tool.
type TurnRenderer interface {
	RenderTurn(turn *store.Turn) *Renderable
}

// Projector maps turns to renderables through a closed dispatch table keyed
// on role and tool name. Tool renderers are registered at startup alongside
// their tool definitions; the table never changes afterwards.
type Projector struct {
	markdown  goldmark.Markdown
	renderers map[string]TurnRenderer
}

// NewProjector creates a projector with the given tool renderer table.
func NewProjector(renderers map[string]TurnRenderer) *Projector {
	if renderers == nil {
		renderers = map[string]TurnRenderer{}
	}
	return &Projector{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		renderers: renderers,
	}
}

// Project derives the render snapshot for a whole transcript.
func (p *Projector) Project(transcript *store.Transcript) *Snapshot {
	snapshot := &Snapshot{Items: make([]Item, 0, len(transcript.Turns))}
	for i := range transcript.Turns {
		turn := &transcript.Turns[i]
		snapshot.Items = append(snapshot.Items, Item{
			TurnID:     turn.ID,
			Renderable: p.ProjectTurn(turn),
		})
	}
	return snapshot
}

// ProjectTurn renders a single turn. It never fails: unknown tools get an
// explicit placeholder.
func (p *Projector) ProjectTurn(turn *store.Turn) *Renderable {
	switch turn.Role {
	case store.RoleUser:
		return &Renderable{Kind: KindUserBubble, Text: turn.Content}
	case store.RoleAssistant:
		return &Renderable{Kind: KindMarkdown, Text: turn.Content, HTML: p.renderMarkdown(turn.Content)}
	case store.RoleSystem:
		return &Renderable{Kind: KindSystemNotice, Text: turn.Content}
	case store.RoleFunction:
		renderer, ok := p.renderers[turn.ToolName]
		if !ok {
			return &Renderable{
				Kind: KindPlaceholder,
				Text: fmt.Sprintf("no renderer found for tool %s", turn.ToolName),
			}
		}
		return renderer.RenderTurn(turn)
	default:
		return &Renderable{
			Kind: KindPlaceholder,
			Text: fmt.Sprintf("unknown turn role %s", turn.Role),
		}
	}
}

func (p *Projector) renderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(source), &buf); err != nil {
		slog.Warn("markdown conversion failed", slog.String("error", err.Error()))
		return source
	}
	return buf.String()
}
