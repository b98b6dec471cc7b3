package execgraph

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/specialistvlad/cmdgraph/internal/builder"
	"github.com/specialistvlad/cmdgraph/internal/ctxlog"
	"github.com/specialistvlad/cmdgraph/internal/errs"
	"github.com/specialistvlad/cmdgraph/internal/graph"
	"github.com/specialistvlad/cmdgraph/internal/metrics"
	"github.com/specialistvlad/cmdgraph/internal/node"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/task"
)

// Update changes the active body and/or parameter bindings of one node for
// every later submission. Submissions already in flight are unaffected.
func (eg *Graph) Update(ctx context.Context, id nodeid.ID, opts ...UpdateOption) error {
	u := nodeUpdate{}
	for _, opt := range opts {
		opt(&u)
	}

	eg.mu.Lock()
	defer eg.mu.Unlock()

	if err := eg.checkUpdatable("update"); err != nil {
		return err
	}
	n, ok := eg.topo.GetNode(ctx, id)
	if !ok {
		return errs.New("update", errs.ErrUnknownNode, id, "graph %s has %d nodes", eg.label, eg.topo.Len(ctx))
	}
	cur, err := eg.state.Binding(ctx, id)
	if err != nil {
		return fmt.Errorf("reading binding of %s: %w", id, err)
	}

	next := node.Binding{Active: cur.Active, Params: cur.Params.Clone()}
	if u.active != nil {
		if *u.active < 0 || *u.active >= n.BodyCount() {
			return errs.New("update", errs.ErrInvalidBodyIndex, id, "index %d, node has %d bodies", *u.active, n.BodyCount())
		}
		next.Active = *u.active
	}
	if u.hasParams {
		for _, slot := range task.Params(u.params).Slots() {
			if _, declared := cur.Params[slot]; !declared {
				return errs.New("update", errs.ErrUnknownParameter, id, "slot %q", slot)
			}
			v := u.params[slot]
			if d, ok := v.(task.Dynamic); ok && !eg.ownsParams(d.Owner()) {
				return errs.New("update", errs.ErrForeignParameter, id, "slot %q is bound to a parameter of graph %s", slot, d.Owner())
			}
			next.Params[slot] = v
		}
	}
	if !eg.assumeOutlive {
		if err := builder.CheckBinding("update", id, next.Params); err != nil {
			return err
		}
	}

	if err := eg.state.Update(ctx, id, next); err != nil {
		return err
	}
	metrics.Updates.WithLabelValues(metrics.KindNode).Inc()
	ctxlog.FromContext(ctx).Debug("Update: node binding replaced.", "graph", eg.label, "node", id.String(), "active", next.Active)
	return nil
}

// UpdateNodes refreshes the listed nodes from g, which must be the graph eg
// was finalized from. Only the active body index and parameter bindings are
// copied; edges added to g after finalize are ignored. Either every listed
// node is updated or none is.
func (eg *Graph) UpdateNodes(ctx context.Context, g *graph.Graph, ids ...nodeid.ID) error {
	eg.mu.Lock()
	defer eg.mu.Unlock()

	if err := eg.checkUpdatable("update nodes"); err != nil {
		return err
	}
	if g.ID() != eg.source {
		return errs.New("update nodes", errs.ErrIncompatibleGraph, nodeid.None, "graph %s is not the source of %s", g.Label(), eg.label)
	}

	snap := g.Snapshot()
	next := make(map[nodeid.ID]node.Binding, len(ids))
	for _, id := range ids {
		n, ok := eg.topo.GetNode(ctx, id)
		if !ok || id.Index() >= len(snap.Nodes) {
			return errs.New("update nodes", errs.ErrUnknownNode, id, "")
		}
		b := snap.Nodes[id].Binding()
		if b.Active >= n.BodyCount() {
			return errs.New("update nodes", errs.ErrInvalidBodyIndex, id, "index %d, node has %d bodies", b.Active, n.BodyCount())
		}
		if !eg.assumeOutlive {
			if err := builder.CheckBinding("update nodes", id, b.Params); err != nil {
				return err
			}
		}
		next[id] = b
	}

	for id, b := range next {
		if err := eg.state.Update(ctx, id, b); err != nil {
			return err
		}
	}
	metrics.Updates.WithLabelValues(metrics.KindNodes).Inc()
	ctxlog.FromContext(ctx).Debug("Update: nodes refreshed from source graph.", "graph", eg.label, "nodes", nodeid.Strings(ids))
	return nil
}

// UpdateFrom replaces the bindings of every node with those of other. other
// must be structurally equivalent to the graph eg was finalized from: same
// node count, same edges, and per node the same bodies count, parameter
// slots, access modes and resource aliasing pattern. Nodes correspond by
// creation order. Nothing is copied unless the whole update is valid.
func (eg *Graph) UpdateFrom(ctx context.Context, other *graph.Graph) error {
	eg.mu.Lock()
	defer eg.mu.Unlock()

	if err := eg.checkUpdatable("update graph"); err != nil {
		return err
	}

	snap := other.Snapshot()
	if id, detail := eg.shape.mismatch(shapeOf(snap)); detail != "" {
		return errs.New("update graph", errs.ErrIncompatibleGraph, id, "%s", detail)
	}

	next := make(map[nodeid.ID]node.Binding, len(snap.Nodes))
	for _, n := range snap.Nodes {
		next[n.ID()] = n.Binding()
	}
	if !eg.assumeOutlive {
		if err := builder.CheckLiveness(ctx, "update graph", eg.topo, eg.state, next); err != nil {
			return err
		}
	}

	for _, n := range snap.Nodes {
		if err := eg.state.Update(ctx, n.ID(), next[n.ID()]); err != nil {
			return err
		}
	}
	eg.bound = snap.ID
	metrics.Updates.WithLabelValues(metrics.KindWhole).Inc()
	ctxlog.FromContext(ctx).Debug("Update: bindings copied from equivalent graph.", "graph", eg.label, "other", other.Label(), "node_count", len(snap.Nodes))
	return nil
}

// ownsParams reports whether parameters of graph id may be bound by a
// targeted update: those of the source graph and those of the graph the
// last whole-graph update copied from.
func (eg *Graph) ownsParams(id uuid.UUID) bool {
	return id == eg.source || id == eg.bound
}

func (eg *Graph) checkUpdatable(op string) error {
	if !eg.updatable {
		return errs.New(op, errs.ErrNotUpdatable, nodeid.None, "graph %s was finalized without Updatable", eg.label)
	}
	return nil
}
