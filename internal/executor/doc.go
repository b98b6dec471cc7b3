// Package executor runs one submission of an executable graph.
//
// An Executor receives a Plan, the per-submission snapshot produced by the
// builder, and drives it to completion on the worker slots of a queue. It
// owns all per-run bookkeeping (dependency counters, node states, errors),
// so any number of executors may run plans of the same executable graph
// concurrently without sharing mutable state.
//
// Scheduling follows the classic ready-queue model: nodes whose dependency
// counter reaches zero are pushed to a channel drained by a pool of workers.
// Nodes with no path between them may therefore run at the same time. When
// a body fails, every transitive dependent is marked Skipped and never runs;
// unrelated branches continue. A submission always runs to completion.
package executor
