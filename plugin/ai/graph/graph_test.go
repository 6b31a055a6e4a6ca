package graph

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type counterState struct {
	visits []string
	n      int
}

func TestRunLinear(t *testing.T) {
	g := New[*counterState]().
		AddNode("a", func(_ context.Context, s *counterState) (*counterState, error) {
			s.visits = append(s.visits, "a")
			return s, nil
		}).
		AddNode("b", func(_ context.Context, s *counterState) (*counterState, error) {
			s.visits = append(s.visits, "b")
			return s, nil
		}).
		AddEdge("a", "b").
		AddEdge("b", End).
		SetEntry("a")

	out, err := g.Run(context.Background(), &counterState{})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, out.visits)
}

func TestRunConditionalRouting(t *testing.T) {
	g := New[*counterState]().
		AddNode("loop", func(_ context.Context, s *counterState) (*counterState, error) {
			s.n++
			return s, nil
		}).
		AddConditionalEdge("loop", func(s *counterState) string {
			if s.n >= 3 {
				return End
			}
			return "loop"
		}).
		SetEntry("loop")

	out, err := g.Run(context.Background(), &counterState{})
	require.NoError(t, err)
	require.Equal(t, 3, out.n)
}

func TestRunRecursionCeiling(t *testing.T) {
	g := New[*counterState]().
		WithMaxSteps(10).
		AddNode("loop", func(_ context.Context, s *counterState) (*counterState, error) {
			s.n++
			return s, nil
		}).
		AddConditionalEdge("loop", func(*counterState) string { return "loop" }).
		SetEntry("loop")

	out, err := g.Run(context.Background(), &counterState{})
	require.ErrorIs(t, err, ErrRecursionExceeded)
	require.Equal(t, 10, out.n)
}

func TestRunNodeError(t *testing.T) {
	boom := errors.New("boom")
	g := New[*counterState]().
		AddNode("a", func(_ context.Context, s *counterState) (*counterState, error) {
			return s, boom
		}).
		AddEdge("a", End).
		SetEntry("a")

	_, err := g.Run(context.Background(), &counterState{})
	require.ErrorIs(t, err, boom)
}

func TestRunStepObserverAbort(t *testing.T) {
	stop := errors.New("stop")
	g := New[*counterState]().
		AddNode("a", func(_ context.Context, s *counterState) (*counterState, error) {
			return s, nil
		}).
		AddEdge("a", End).
		SetEntry("a").
		OnStep(func(string, *counterState) error { return stop })

	_, err := g.Run(context.Background(), &counterState{})
	require.ErrorIs(t, err, stop)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := New[*counterState]().
		AddNode("a", func(_ context.Context, s *counterState) (*counterState, error) {
			return s, nil
		}).
		AddEdge("a", End).
		SetEntry("a")

	_, err := g.Run(ctx, &counterState{})
	require.ErrorIs(t, err, context.Canceled)
}
