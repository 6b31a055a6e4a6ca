// Package graph provides a small directed execution graph used by the
// multi-step tool executors. Nodes transform a shared state value; routing
// between nodes is decided after every node run. Total node visits are
// capped so a runaway routing loop terminates deterministically.
package graph

import (
	"context"

	"github.com/pkg/errors"
)

// End is the reserved route target that terminates a run.
const End = "__end__"

// DefaultMaxSteps caps total node visits per run.
const DefaultMaxSteps = 100

// ErrRecursionExceeded is returned when a run visits more nodes than the
// configured ceiling allows.
var ErrRecursionExceeded = errors.New("graph recursion ceiling exceeded")

// NodeFunc runs one node and returns the updated state.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// RouteFunc inspects the state after a node run and names the next node,
// or End to terminate.
type RouteFunc[S any] func(state S) string

// StepFunc observes every completed node visit. Returning an error aborts
// the run.
type StepFunc[S any] func(node string, state S) error

// Graph is an executable directed graph over state type S.
type Graph[S any] struct {
	nodes    map[string]NodeFunc[S]
	routes   map[string]RouteFunc[S]
	entry    string
	maxSteps int
	onStep   StepFunc[S]
}

// New creates an empty graph with the default step ceiling.
func New[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:    make(map[string]NodeFunc[S]),
		routes:   make(map[string]RouteFunc[S]),
		maxSteps: DefaultMaxSteps,
	}
}

// WithMaxSteps overrides the step ceiling.
func (g *Graph[S]) WithMaxSteps(n int) *Graph[S] {
	g.maxSteps = n
	return g
}

// OnStep registers an observer called after every node visit.
func (g *Graph[S]) OnStep(fn StepFunc[S]) *Graph[S] {
	g.onStep = fn
	return g
}

// AddNode registers a node under the given name.
func (g *Graph[S]) AddNode(name string, fn NodeFunc[S]) *Graph[S] {
	g.nodes[name] = fn
	return g
}

// AddEdge registers an unconditional edge from one node to the next.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.routes[from] = func(S) string { return to }
	return g
}

// AddConditionalEdge registers a routing function evaluated after the node runs.
func (g *Graph[S]) AddConditionalEdge(from string, route RouteFunc[S]) *Graph[S] {
	g.routes[from] = route
	return g
}

// SetEntry names the node where every run starts.
func (g *Graph[S]) SetEntry(name string) *Graph[S] {
	g.entry = name
	return g
}

// Run executes the graph from the entry node until a route returns End.
// The final state is returned alongside ErrRecursionExceeded when the step
// ceiling is hit.
func (g *Graph[S]) Run(ctx context.Context, state S) (S, error) {
	if g.entry == "" {
		return state, errors.New("graph has no entry node")
	}

	current := g.entry
	for steps := 0; ; steps++ {
		if steps >= g.maxSteps {
			return state, ErrRecursionExceeded
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		fn, ok := g.nodes[current]
		if !ok {
			return state, errors.Errorf("unknown graph node %q", current)
		}

		next, err := fn(ctx, state)
		if err != nil {
			return state, errors.Wrapf(err, "node %s", current)
		}
		state = next

		if g.onStep != nil {
			if err := g.onStep(current, state); err != nil {
				return state, err
			}
		}

		route, ok := g.routes[current]
		if !ok {
			return state, errors.Errorf("node %q has no outgoing edge", current)
		}
		target := route(state)
		if target == End {
			return state, nil
		}
		current = target
	}
}
