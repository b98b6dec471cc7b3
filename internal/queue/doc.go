// Package queue implements the execution queue: the object work is submitted
// to, and the switch point between immediate execution and recording.
//
// # Modes
//
// A Queue is always in exactly one Mode:
//
//   - Immediate: Submit runs the command asynchronously on the queue's worker
//     slots and returns a pending completion event.
//   - Recording: Submit hands the command to the graph that intercepted the
//     queue. Nothing executes; the graph turns the command into a node and
//     returns a recorded token usable as an explicit dependency.
//
// The mode is an explicit field checked on every submission. At most one
// graph may intercept a queue at a time.
//
// # Execution resources
//
// Each queue owns a fixed number of worker slots. Immediate commands and the
// nodes of submitted executable graphs all acquire a slot before running, so
// the slot count bounds the parallelism of everything driven by the queue.
package queue
