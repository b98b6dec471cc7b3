package executor

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/specialistvlad/cmdgraph/internal/node"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/task"
)

// Step is one node of a plan, fully resolved for a single submission.
type Step struct {
	ID   nodeid.ID
	Name string
	Body task.Body
	Task *task.Task
	// Dependents are indices into Plan.Steps.
	Dependents []int
	// Deps is the number of steps this step waits for.
	Deps int
}

// Plan is the immutable per-submission snapshot of an executable graph.
// Steps are in topological order.
type Plan struct {
	Submission uuid.UUID
	Graph      string
	Steps      []Step
}

// Slots provides the execution resources a plan runs on.
type Slots interface {
	// Exec runs fn while holding one worker slot.
	Exec(ctx context.Context, fn func(ctx context.Context) error) error
	// Workers returns the number of slots.
	Workers() int
}

// ErrSkipped marks nodes that did not run because a dependency failed.
var ErrSkipped = errors.New("skipped due to upstream failure")

// NodeError attributes a failure to a node.
type NodeError struct {
	Node nodeid.ID
	Name string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Node, e.Name, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// Report describes the outcome of one submission.
type Report struct {
	Submission uuid.UUID
	States     map[nodeid.ID]node.State
	Errors     map[nodeid.ID]error
}

// Failed returns the ids of the nodes whose body returned an error.
func (r *Report) Failed() []nodeid.ID {
	var out []nodeid.ID
	for id, st := range r.States {
		if st == node.Failed {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
