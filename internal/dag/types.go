package dag

import (
	"fmt"
	"strings"
)

// Graph is a directed graph over the vertices 0..n-1. An edge from -> to
// means that `to` depends on `from`.
//
// Graph is not safe for concurrent mutation; it is built and queried by a
// single finalize call.
type Graph struct {
	// deps holds, for each vertex, the vertices it depends on.
	deps [][]int
	// dependents holds, for each vertex, the vertices that depend on it.
	dependents [][]int
}

// CycleError reports a dependency cycle. Path starts and ends with the same
// vertex.
type CycleError struct {
	Path []int
}

func (e *CycleError) Error() string {
	return "cycle detected: " + e.Format(func(v int) string { return fmt.Sprint(v) })
}

// Format renders the cycle path with a caller supplied vertex formatter.
func (e *CycleError) Format(name func(int) string) string {
	parts := make([]string, len(e.Path))
	for i, v := range e.Path {
		parts[i] = name(v)
	}
	return strings.Join(parts, " -> ")
}
