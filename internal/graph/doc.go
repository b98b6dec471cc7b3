// Package graph implements the mutable, build-time form of a command graph.
//
// # Why Graph Package Exists
//
// Work is described once and executed many times. The mutable Graph is where
// the description is assembled: nodes, their alternative bodies, their
// parameter bindings and the edges between them. It never executes anything.
// Executable forms are produced from it by execgraph.Finalize, which takes a
// Snapshot and leaves the graph untouched, so one graph can be finalized any
// number of times into independent executable graphs.
//
// # Building a Graph
//
// There are two ways to add nodes, and they can be mixed:
//
//   - **Explicit:** Add and AddDynamic create a node with caller supplied
//     predecessors. No inference happens; the caller is responsible for the
//     ordering being correct.
//   - **Recording:** BeginRecording intercepts a queue. Every command
//     submitted to that queue becomes a node whose predecessors are inferred
//     from the resources it declares (see resource.Registry), plus any
//     recorded tokens listed in Command.DependsOn. EndRecording releases the
//     queue back to immediate execution.
//
// # Storage
//
// Nodes live in an arena indexed by nodeid.ID. Edges are index lists kept on
// both endpoints. The graph does not check for cycles while building; that is
// deferred to finalize, the only place a cycle can matter.
//
// # Thread-Safety
//
// All methods are safe for concurrent use. Recording through several
// goroutines is allowed, but the resulting node order follows the order in
// which submissions reach the graph.
package graph
