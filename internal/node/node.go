package node

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/resource"
	"github.com/specialistvlad/cmdgraph/internal/task"
)

// Node is a single vertex in a command graph: one unit of work with one or
// more alternative bodies, its parameter bindings, and its edges.
//
// A Node is owned by exactly one graph, which serializes all mutation.
// Copies handed to finalized graphs are made with Clone.
type Node struct {
	// id is the arena index of the node inside its graph.
	id nodeid.ID
	// Name is the human-readable name, used in logs and plans.
	Name string

	bodies []task.Body
	active int
	params task.Params
	access task.Accesses

	preds []nodeid.ID
	succs []nodeid.ID
}

// New creates a node. bodies must hold at least one body.
func New(id nodeid.ID, name string, bodies []task.Body, params task.Params, access task.Accesses) (*Node, error) {
	if len(bodies) == 0 {
		return nil, fmt.Errorf("node %s: at least one body is required", id)
	}
	for i, b := range bodies {
		if b == nil {
			return nil, fmt.Errorf("node %s: body %d is nil", id, i)
		}
	}
	if name == "" {
		name = id.String()
	}
	return &Node{
		id:     id,
		Name:   name,
		bodies: slices.Clone(bodies),
		params: params.Clone(),
		access: access.Clone(),
	}, nil
}

func (n *Node) ID() nodeid.ID {
	return n.id
}

// Bodies returns the alternative bodies of the node.
func (n *Node) Bodies() []task.Body {
	return slices.Clone(n.bodies)
}

// Body returns the body at index i.
func (n *Node) Body(i int) (task.Body, bool) {
	if i < 0 || i >= len(n.bodies) {
		return nil, false
	}
	return n.bodies[i], true
}

func (n *Node) BodyCount() int {
	return len(n.bodies)
}

// IsDynamic reports whether the node selects among several bodies.
func (n *Node) IsDynamic() bool {
	return len(n.bodies) > 1
}

func (n *Node) ActiveIndex() int {
	return n.active
}

// SetActiveIndex selects the body that executes.
func (n *Node) SetActiveIndex(i int) error {
	if i < 0 || i >= len(n.bodies) {
		return fmt.Errorf("node %s: body index %d out of range [0, %d)", n.id, i, len(n.bodies))
	}
	n.active = i
	return nil
}

// Params returns a copy of the parameter bindings.
func (n *Node) Params() task.Params {
	return n.params.Clone()
}

// SetParam rebinds an existing parameter slot. It reports false when the
// node has no such slot.
func (n *Node) SetParam(slot string, value any) bool {
	if _, ok := n.params[slot]; !ok {
		return false
	}
	n.params[slot] = value
	return true
}

// Accesses returns a copy of the declared slot accesses.
func (n *Node) Accesses() task.Accesses {
	return n.access.Clone()
}

// Binding returns the node's current mutable state.
func (n *Node) Binding() Binding {
	return Binding{Active: n.active, Params: n.params.Clone()}
}

// Predecessors returns the ids of the nodes this node depends on, in the
// order the edges were added.
func (n *Node) Predecessors() []nodeid.ID {
	return slices.Clone(n.preds)
}

// Successors returns the ids of the nodes that depend on this node.
func (n *Node) Successors() []nodeid.ID {
	return slices.Clone(n.succs)
}

// Link records the edge from -> to on both endpoints. It returns false when
// the edge already existed.
func Link(from, to *Node) bool {
	if slices.Contains(to.preds, from.id) {
		return false
	}
	to.preds = append(to.preds, from.id)
	from.succs = append(from.succs, to.id)
	return true
}

// Clone returns a deep copy of the node's mutable fields. Bodies are shared.
func (n *Node) Clone() *Node {
	return &Node{
		id:     n.id,
		Name:   n.Name,
		bodies: slices.Clone(n.bodies),
		active: n.active,
		params: n.params.Clone(),
		access: n.access.Clone(),
		preds:  slices.Clone(n.preds),
		succs:  slices.Clone(n.succs),
	}
}

// Resources returns the distinct resources bound in params, resolving
// dynamic parameters to their current value.
func Resources(params task.Params) []resource.Resource {
	var out []resource.Resource
	seen := make(map[resource.ID]struct{})
	for _, slot := range params.Slots() {
		res, ok := task.Resolve(params[slot]).(resource.Resource)
		if !ok {
			continue
		}
		if _, dup := seen[res.ID()]; dup {
			continue
		}
		seen[res.ID()] = struct{}{}
		out = append(out, res)
	}
	return out
}
