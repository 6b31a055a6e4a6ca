package render

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Arvoid00/seamless-ai/store"
)

func newTestProjector() *Projector {
	return NewProjector(map[string]TurnRenderer{
		"calculator":  NewMarkdownTurnRenderer(),
		"webResearch": NewChartTurnRenderer(),
		"vecSearch":   NewCitationTurnRenderer(),
	})
}

func turn(role store.Role, content string) store.Turn {
	return store.Turn{ID: uuid.NewString(), Role: role, Content: content}
}

func TestProjectRoles(t *testing.T) {
	transcript := &store.Transcript{
		Turns: []store.Turn{
			turn(store.RoleUser, "hello **there**"),
			turn(store.RoleAssistant, "hello **there**"),
			turn(store.RoleSystem, "tool execution failed"),
		},
	}

	snapshot := newTestProjector().Project(transcript)
	require.Len(t, snapshot.Items, 3)

	require.Equal(t, KindUserBubble, snapshot.Items[0].Renderable.Kind)
	require.Equal(t, "hello **there**", snapshot.Items[0].Renderable.Text)
	require.Empty(t, snapshot.Items[0].Renderable.HTML)

	require.Equal(t, KindMarkdown, snapshot.Items[1].Renderable.Kind)
	require.Contains(t, snapshot.Items[1].Renderable.HTML, "<strong>there</strong>")

	require.Equal(t, KindSystemNotice, snapshot.Items[2].Renderable.Kind)
}

func TestProjectFunctionTurns(t *testing.T) {
	chartTurn := turn(store.RoleFunction, "see the chart")
	chartTurn.ToolName = "webResearch"
	chartTurn.AuxiliaryData = `{"chart": {"type": "bar", "data": [{"label": "a", "value": 1}]}}`

	citationTurn := turn(store.RoleFunction, "the SLA is 99.9%")
	citationTurn.ToolName = "vecSearch"
	citationTurn.AuxiliaryData = `{"passages": [{"content": "...", "source": "handbook.pdf"}]}`

	transcript := &store.Transcript{Turns: []store.Turn{chartTurn, citationTurn}}
	snapshot := newTestProjector().Project(transcript)

	require.Equal(t, KindChart, snapshot.Items[0].Renderable.Kind)
	require.Contains(t, snapshot.Items[0].Renderable.Payload, "chart")

	require.Equal(t, KindCitations, snapshot.Items[1].Renderable.Kind)
	require.Contains(t, snapshot.Items[1].Renderable.Payload, "passages")
}

func TestProjectUnknownToolPlaceholder(t *testing.T) {
	unknown := turn(store.RoleFunction, `{"anything": true}`)
	unknown.ToolName = "retiredTool"

	snapshot := newTestProjector().Project(&store.Transcript{Turns: []store.Turn{unknown}})
	require.Len(t, snapshot.Items, 1)
	require.Equal(t, KindPlaceholder, snapshot.Items[0].Renderable.Kind)
	require.Equal(t, "no renderer found for tool retiredTool", snapshot.Items[0].Renderable.Text)
}

func TestProjectDeterministic(t *testing.T) {
	functionTurn := turn(store.RoleFunction, "result")
	functionTurn.ToolName = "calculator"
	transcript := &store.Transcript{
		Turns: []store.Turn{
			turn(store.RoleUser, "2+2?"),
			functionTurn,
			turn(store.RoleAssistant, "anything else?"),
		},
	}

	p := newTestProjector()
	first := p.Project(transcript)
	second := p.Project(transcript)
	require.Equal(t, first, second)
}

func TestAppendOnly(t *testing.T) {
	transcript := &store.Transcript{}

	const cycles = 5
	for i := 0; i < cycles; i++ {
		before := len(transcript.Turns)
		userTurn := turn(store.RoleUser, fmt.Sprintf("question %d", i))
		assistantTurn := turn(store.RoleAssistant, fmt.Sprintf("answer %d", i))
		transcript = Append(transcript, userTurn, assistantTurn)
		require.Len(t, transcript.Turns, before+2)
	}

	// Earlier turns are untouched.
	require.Equal(t, "question 0", transcript.Turns[0].Content)
	require.Equal(t, "answer 0", transcript.Turns[1].Content)
	require.Equal(t, "question 0", transcript.Title)
}

func TestAppendDerivesTruncatedTitle(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "word "
	}
	transcript := Append(&store.Transcript{}, turn(store.RoleUser, long), turn(store.RoleAssistant, "ok"))
	require.LessOrEqual(t, len([]rune(transcript.Title)), titleMaxRunes+1)
	require.NotEmpty(t, transcript.Title)
}
