// Package execgraph produces and runs executable graphs.
//
// # Why Executable Graph Exists
//
// A graph.Graph is a build-time description and is free to change. Running it
// needs a frozen form: the cycle check done, the execution order fixed and
// the bindings copied away from the source. Finalize produces that form.
//
// An executable graph is stored in two halves:
//   - the topology (topologystore), written once by Finalize;
//   - the node bindings (nodestore), the active body index and parameters of
//     every node.
//
// Updates only ever replace bindings. The topology of an executable graph is
// fixed for its whole lifetime.
//
// # Submissions
//
// Submit builds an immutable plan from the current bindings before it
// returns, then runs the plan asynchronously on the queue's worker slots.
// Updates issued afterwards, including rebinding a dynamic parameter, only
// affect later submissions. Any number of submissions may be in flight.
//
// # Updatable and Frozen Graphs
//
// Finalize produces a frozen graph by default. Its bindings are resolved
// once, dynamic parameters included, and every update is rejected with
// errs.ErrNotUpdatable. Pass Updatable to keep the bindings rewritable and
// dynamic parameters live.
//
// # Concurrency
//
// All methods are safe for concurrent use. Update calls targeting the same
// node race with each other; the last one wins.
package execgraph
