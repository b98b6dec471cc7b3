package execgraph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/specialistvlad/cmdgraph/internal/graph"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/resource"
	"github.com/specialistvlad/cmdgraph/internal/task"
)

// nodeShape is the part of a node that must match for a whole-graph update.
type nodeShape struct {
	preds  []nodeid.ID
	bodies int
	slots  []string
	access map[string]resource.Mode
	// resources maps each resource-bound slot to the resource's position in
	// order of first appearance across the graph, so aliasing patterns are
	// compared rather than resource identities.
	resources map[string]int
}

type shape []nodeShape

func shapeOf(snap *graph.Snapshot) shape {
	canonical := make(map[resource.ID]int)
	out := make(shape, len(snap.Nodes))
	for i, n := range snap.Nodes {
		params := n.Params()
		ns := nodeShape{
			preds:     slices.Sorted(slices.Values(n.Predecessors())),
			bodies:    n.BodyCount(),
			slots:     params.Slots(),
			access:    map[string]resource.Mode(n.Accesses()),
			resources: make(map[string]int),
		}
		for _, slot := range ns.slots {
			res, ok := task.Resolve(params[slot]).(resource.Resource)
			if !ok {
				continue
			}
			pos, seen := canonical[res.ID()]
			if !seen {
				pos = len(canonical)
				canonical[res.ID()] = pos
			}
			ns.resources[slot] = pos
		}
		out[i] = ns
	}
	return out
}

// mismatch describes the first difference between two shapes, or returns
// the empty string when they are equivalent.
func (s shape) mismatch(o shape) (nodeid.ID, string) {
	if len(s) != len(o) {
		return nodeid.None, fmt.Sprintf("node count %d, other graph has %d", len(s), len(o))
	}
	for i := range s {
		a, b := s[i], o[i]
		id := nodeid.ID(i)
		switch {
		case !slices.Equal(a.preds, b.preds):
			return id, fmt.Sprintf("predecessors %v, other graph has %v", nodeid.Strings(a.preds), nodeid.Strings(b.preds))
		case a.bodies != b.bodies:
			return id, fmt.Sprintf("%d bodies, other graph has %d", a.bodies, b.bodies)
		case !slices.Equal(a.slots, b.slots):
			return id, fmt.Sprintf("parameter slots %v, other graph has %v", a.slots, b.slots)
		case !maps.Equal(a.access, b.access):
			return id, "resource access modes differ"
		case !maps.Equal(a.resources, b.resources):
			return id, "resource binding pattern differs"
		}
	}
	return nodeid.None, ""
}
