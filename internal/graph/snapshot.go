package graph

import (
	"github.com/google/uuid"
	"github.com/specialistvlad/cmdgraph/internal/node"
	"github.com/specialistvlad/cmdgraph/internal/queue"
	"github.com/specialistvlad/cmdgraph/internal/resource"
)

// Snapshot is a deep copy of a graph at one point in time. Later changes to
// the graph never affect it.
type Snapshot struct {
	ID            uuid.UUID
	Label         string
	Device        queue.Device
	AssumeOutlive bool
	// Nodes are indexed by nodeid.ID, i.e. in creation order.
	Nodes []*node.Node
	// Resources are the registered resources in registration order.
	Resources []resource.Resource
}

// Snapshot copies the current state of the graph.
func (g *Graph) Snapshot() *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	nodes := make([]*node.Node, len(g.nodes))
	for i, n := range g.nodes {
		nodes[i] = n.Clone()
	}
	return &Snapshot{
		ID:            g.id,
		Label:         g.label,
		Device:        g.device,
		AssumeOutlive: g.assumeOutlive,
		Nodes:         nodes,
		Resources:     g.registry.Resources(),
	}
}
