package graph

import (
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/cmdgraph/internal/errs"
	"github.com/specialistvlad/cmdgraph/internal/node"
	"github.com/specialistvlad/cmdgraph/internal/nodeid"
	"github.com/specialistvlad/cmdgraph/internal/queue"
	"github.com/specialistvlad/cmdgraph/internal/resource"
	"github.com/specialistvlad/cmdgraph/internal/task"
)

// Graph is the mutable command graph.
type Graph struct {
	mu sync.Mutex

	id            uuid.UUID
	label         string
	device        queue.Device
	assumeOutlive bool

	nodes     []*node.Node
	registry  *resource.Registry
	recording *queue.Queue
}

// New creates an empty graph bound to device.
func New(device queue.Device, opts ...Option) *Graph {
	g := &Graph{
		id:       uuid.New(),
		device:   device,
		registry: resource.NewRegistry(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.label == "" {
		g.label = g.id.String()
	}
	return g
}

// ID returns the graph identity.
func (g *Graph) ID() uuid.UUID {
	return g.id
}

func (g *Graph) Label() string {
	return g.label
}

func (g *Graph) Device() queue.Device {
	return g.device
}

// AssumesResourcesOutlive reports whether liveness checks are disabled.
func (g *Graph) AssumesResourcesOutlive() bool {
	return g.assumeOutlive
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// Register makes resources known to the graph. Recording a command that
// accesses an unregistered resource fails with errs.ErrUnknownResource.
func (g *Graph) Register(resources ...resource.Resource) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, res := range resources {
		g.registry.Register(res)
	}
}

// Add creates a static node with one body. Every id in deps must already
// exist in this graph.
func (g *Graph) Add(body task.Body, deps []nodeid.ID, params task.Params, opts ...NodeOption) (nodeid.ID, error) {
	return g.add("add", []task.Body{body}, deps, params, opts)
}

// AddDynamic creates a dynamic node selecting among bodies. The first body
// is active.
func (g *Graph) AddDynamic(bodies []task.Body, deps []nodeid.ID, params task.Params, opts ...NodeOption) (nodeid.ID, error) {
	return g.add("add dynamic", bodies, deps, params, opts)
}

func (g *Graph) add(op string, bodies []task.Body, deps []nodeid.ID, params task.Params, opts []NodeOption) (nodeid.ID, error) {
	cfg := nodeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	next := nodeid.ID(len(g.nodes))
	for _, dep := range deps {
		if !g.exists(dep) {
			return nodeid.None, errs.New(op, errs.ErrDanglingDependency, next, "predecessor %s does not exist in graph %s", dep, g.label)
		}
	}
	if err := g.checkParams(op, next, params); err != nil {
		return nodeid.None, err
	}

	n, err := node.New(next, cfg.name, bodies, params, cfg.access)
	if err != nil {
		return nodeid.None, errs.New(op, errs.ErrInvalidCommand, next, "%v", err)
	}
	g.nodes = append(g.nodes, n)
	for _, dep := range deps {
		node.Link(g.nodes[dep], n)
	}
	return next, nil
}

// MakeEdge makes to depend on from. Both nodes must exist. Edges may close
// a cycle; that is reported by finalize, not here.
func (g *Graph) MakeEdge(from, to nodeid.ID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, id := range []nodeid.ID{from, to} {
		if !g.exists(id) {
			return errs.New("make edge", errs.ErrDanglingDependency, id, "node does not exist in graph %s", g.label)
		}
	}
	if from == to {
		return errs.New("make edge", errs.ErrCyclicGraph, to, "a node cannot depend on itself")
	}
	node.Link(g.nodes[from], g.nodes[to])
	return nil
}

// SetActiveIndex selects the active body of a dynamic node. The change is
// seen by graphs finalized afterwards and by execgraph.UpdateNodes.
func (g *Graph) SetActiveIndex(id nodeid.ID, index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.exists(id) {
		return errs.New("set active index", errs.ErrUnknownNode, id, "graph %s has %d nodes", g.label, len(g.nodes))
	}
	if err := g.nodes[id].SetActiveIndex(index); err != nil {
		return errs.New("set active index", errs.ErrInvalidBodyIndex, id, "%v", err)
	}
	return nil
}

// SetParam rebinds one parameter slot of a node.
func (g *Graph) SetParam(id nodeid.ID, slot string, value any) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.exists(id) {
		return errs.New("set param", errs.ErrUnknownNode, id, "graph %s has %d nodes", g.label, len(g.nodes))
	}
	if err := g.checkParams("set param", id, task.Params{slot: value}); err != nil {
		return err
	}
	if !g.nodes[id].SetParam(slot, value) {
		return errs.New("set param", errs.ErrUnknownParameter, id, "slot %q", slot)
	}
	return nil
}

func (g *Graph) exists(id nodeid.ID) bool {
	return id.Valid() && id.Index() < len(g.nodes)
}

// checkParams rejects dynamic parameters created for another graph.
func (g *Graph) checkParams(op string, id nodeid.ID, params task.Params) error {
	for _, slot := range params.Slots() {
		if d, ok := params[slot].(task.Dynamic); ok && d.Owner() != g.id {
			return errs.New(op, errs.ErrForeignParameter, id, "slot %q is bound to a parameter of graph %s", slot, d.Owner())
		}
	}
	return nil
}
