package builder

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/cmdgraph/internal/ctxlog"
	"github.com/specialistvlad/cmdgraph/internal/errs"
	"github.com/specialistvlad/cmdgraph/internal/executor"
	"github.com/specialistvlad/cmdgraph/internal/node"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/nodestore"
	"github.com/specialistvlad/cmdgraph/internal/task"
	"github.com/specialistvlad/cmdgraph/internal/topologystore"
)

// Options tunes a single Build call.
type Options struct {
	// Graph labels the plan in logs.
	Graph string
	// Submission identifies the plan. A new id is generated when zero.
	Submission uuid.UUID
}

// Build creates the plan for one submission.
func Build(ctx context.Context, topo topologystore.Store, state nodestore.Store, opts Options) (*executor.Plan, error) {
	logger := ctxlog.FromContext(ctx)

	submission := opts.Submission
	if submission == uuid.Nil {
		submission = uuid.New()
	}

	order := topo.Order(ctx)
	index := make(map[nodeid.ID]int, len(order))
	for i, id := range order {
		index[id] = i
	}

	plan := &executor.Plan{
		Submission: submission,
		Graph:      opts.Graph,
		Steps:      make([]executor.Step, len(order)),
	}
	for i, id := range order {
		n, ok := topo.GetNode(ctx, id)
		if !ok {
			return nil, errs.New("build", errs.ErrUnknownNode, id, "missing from topology")
		}
		b, err := state.Binding(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("reading binding of %s: %w", id, err)
		}
		body, ok := n.Body(b.Active)
		if !ok {
			return nil, errs.New("build", errs.ErrInvalidBodyIndex, id, "active index %d of %d bodies", b.Active, n.BodyCount())
		}

		deps, err := topo.DependenciesOf(ctx, id)
		if err != nil {
			return nil, err
		}
		dependents, err := topo.DependentsOf(ctx, id)
		if err != nil {
			return nil, err
		}
		step := executor.Step{
			ID:   id,
			Name: n.Name,
			Body: body,
			Task: &task.Task{
				Node:       id,
				Name:       n.Name,
				Submission: submission,
				Variant:    b.Active,
				Inputs:     task.ResolveAll(b.Params),
			},
			Deps:       len(deps),
			Dependents: make([]int, 0, len(dependents)),
		}
		for _, d := range dependents {
			step.Dependents = append(step.Dependents, index[d])
		}
		plan.Steps[i] = step
	}

	logger.Debug("Builder: plan created.", "graph", opts.Graph, "submission", submission, "step_count", len(plan.Steps))
	return plan, nil
}

// CheckLiveness verifies that every resource bound to a node, directly or
// through a dynamic parameter, is still alive. bindings overrides the stored
// binding for the nodes it contains.
func CheckLiveness(ctx context.Context, op string, topo topologystore.Store, state nodestore.Store, bindings map[nodeid.ID]node.Binding) error {
	for _, n := range topo.AllNodes(ctx) {
		b, ok := bindings[n.ID()]
		if !ok {
			var err error
			if b, err = state.Binding(ctx, n.ID()); err != nil {
				return fmt.Errorf("reading binding of %s: %w", n.ID(), err)
			}
		}
		if err := CheckBinding(op, n.ID(), b.Params); err != nil {
			return err
		}
	}
	return nil
}

// CheckBinding verifies the resources bound in params of a single node.
func CheckBinding(op string, id nodeid.ID, params task.Params) error {
	for _, res := range node.Resources(params) {
		if !res.Alive() {
			return errs.New(op, errs.ErrDanglingResource, id, "%v is no longer alive", res)
		}
	}
	return nil
}
