package dag

import (
	"fmt"
	"slices"
)

// New creates a graph with n vertices and no edges.
func New(n int) *Graph {
	return &Graph{
		deps:       make([][]int, n),
		dependents: make([][]int, n),
	}
}

// Len returns the number of vertices.
func (g *Graph) Len() int {
	return len(g.deps)
}

// AddEdge creates a directed edge from the `from` vertex to the `to` vertex.
// This signifies that `to` has a dependency on `from`. Duplicate edges are
// ignored.
func (g *Graph) AddEdge(from, to int) error {
	if from == to {
		return fmt.Errorf("self-referential edge not allowed: %d -> %d", from, from)
	}
	if from < 0 || from >= g.Len() {
		return fmt.Errorf("source vertex not found: %d", from)
	}
	if to < 0 || to >= g.Len() {
		return fmt.Errorf("destination vertex not found: %d", to)
	}
	if slices.Contains(g.deps[to], from) {
		return nil
	}
	g.deps[to] = append(g.deps[to], from)
	g.dependents[from] = append(g.dependents[from], to)
	return nil
}

// Dependencies returns the vertices v depends on.
func (g *Graph) Dependencies(v int) []int {
	return slices.Clone(g.deps[v])
}

// Dependents returns the vertices that depend on v.
func (g *Graph) Dependents(v int) []int {
	return slices.Clone(g.dependents[v])
}

// DetectCycles checks the graph for any cycle and returns a *CycleError
// describing the first one found. Vertices are visited in ascending order,
// so the reported cycle is deterministic.
func (g *Graph) DetectCycles() error {
	const (
		unvisited = iota
		visiting
		visited
	)
	color := make([]int, g.Len())
	var stack []int

	var visit func(v int) *CycleError
	visit = func(v int) *CycleError {
		color[v] = visiting
		stack = append(stack, v)

		next := slices.Clone(g.dependents[v])
		slices.Sort(next)
		for _, w := range next {
			switch color[w] {
			case visiting:
				// w is on the stack: the cycle is the stack suffix starting at w.
				start := slices.Index(stack, w)
				path := append(slices.Clone(stack[start:]), w)
				return &CycleError{Path: path}
			case unvisited:
				if err := visit(w); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[v] = visited
		return nil
	}

	for v := range g.Len() {
		if color[v] != unvisited {
			continue
		}
		if err := visit(v); err != nil {
			return err
		}
	}
	return nil
}
