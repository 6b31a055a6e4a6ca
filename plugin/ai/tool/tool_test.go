package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Arvoid00/seamless-ai/plugin/ai/executor"
	"github.com/Arvoid00/seamless-ai/plugin/ai/render"
	"github.com/Arvoid00/seamless-ai/store"
)

type noopExecutor struct{ name string }

func (e *noopExecutor) Name() string { return e.name }

func (e *noopExecutor) Execute(_ context.Context, _ *executor.Request, emit executor.Emit) error {
	return emit(executor.Terminal("ok", nil))
}

type noopRenderer struct{}

func (noopRenderer) RenderTurn(turn *store.Turn) *render.Renderable {
	return &render.Renderable{Kind: render.KindMarkdown, Text: turn.Content}
}

func definition(name string) *Definition {
	return &Definition{
		Name:        name,
		Description: name,
		InputSchema: queryInputSchema("q"),
		Executor:    &noopExecutor{name: name},
		Renderer:    noopRenderer{},
	}
}

func TestRegistryLookup(t *testing.T) {
	r, err := NewRegistry(definition("alpha"), definition("beta"))
	require.NoError(t, err)

	def, ok := r.Lookup("alpha")
	require.True(t, ok)
	require.Equal(t, "alpha", def.Name)

	_, ok = r.Lookup("missing")
	require.False(t, ok)

	require.Equal(t, []string{"alpha", "beta"}, r.Names())
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(definition("alpha"), definition("alpha"))
	require.Error(t, err)
}

func TestRegistryRejectsIncompleteDefinitions(t *testing.T) {
	_, err := NewRegistry(&Definition{Name: "x", Renderer: noopRenderer{}})
	require.Error(t, err)

	_, err = NewRegistry(&Definition{Name: "x", Executor: &noopExecutor{name: "x"}})
	require.Error(t, err)
}

func TestSchemasRespectEnabledSet(t *testing.T) {
	r, err := NewRegistry(definition("alpha"), definition("beta"))
	require.NoError(t, err)

	all := r.Schemas(nil)
	require.Len(t, all, 2)

	subset := r.Schemas([]string{"beta"})
	require.Len(t, subset, 1)
	require.Equal(t, "beta", subset[0].Name)

	none := r.Schemas([]string{})
	require.Empty(t, none)
}

func TestValidateEnabledTools(t *testing.T) {
	r, err := NewRegistry(definition("alpha"))
	require.NoError(t, err)

	require.NoError(t, r.ValidateEnabledTools([]string{"alpha"}))
	require.Error(t, r.ValidateEnabledTools([]string{"alpha", "ghost"}))
}
